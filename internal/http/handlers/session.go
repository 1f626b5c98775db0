package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/auth"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/http/middleware"
)

func (h *Handler) issueSession(c *gin.Context, claims auth.Claims) (auth.Claims, error) {
	token, issued, err := h.Sessions.Issue(claims)
	if err != nil {
		return auth.Claims{}, err
	}
	http.SetCookie(c.Writer, h.Sessions.Cookie(token))
	middleware.SetSession(c, &issued)
	return issued, nil
}

func expiresAt(claims *auth.Claims) string {
	if claims.ExpiresAt == nil {
		return ""
	}
	return claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
}

// @Summary Keep the session alive
// @Tags session
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]any
// @Router /api/session/heartbeat [post]
func (h *Handler) SessionHeartbeat(c *gin.Context) {
	claims := middleware.SessionClaims(c)
	if claims == nil {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Session expired", nil)
		return
	}
	refreshed := false
	if auth.NeedsRefresh(claims, h.now(), h.SessionRefresh) {
		issued, err := h.issueSession(c, *claims)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "INTERNAL", "Failed to refresh session", err.Error())
			return
		}
		claims, refreshed = &issued, true
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "refreshed": refreshed, "expires_at": expiresAt(claims)})
}

func (h *Handler) RefreshSession(c *gin.Context) {
	claims := middleware.SessionClaims(c)
	if claims == nil {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Session expired", nil)
		return
	}
	issued, err := h.issueSession(c, *claims)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Failed to refresh session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Session refreshed", "expires_at": expiresAt(&issued)})
}

func (h *Handler) SessionStatus(c *gin.Context) {
	claims := middleware.SessionClaims(c)
	if claims == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"member_id":     claims.MemberID,
		"user_id":       claims.UserID,
		"name":          claims.Name,
		"role":          claims.Role,
		"login_time":    claims.LoginTime.Format(time.RFC3339),
		"expires_at":    expiresAt(claims),
	})
}
