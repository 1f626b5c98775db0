package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/auth"
)

const sessionKey = "session"

// LoadSession decodes the session cookie when present. Invalid cookies are ignored.
func LoadSession(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(auth.CookieName); err == nil && token != "" {
			if claims, err := sessions.Parse(token); err == nil {
				c.Set(sessionKey, claims)
			}
		}
		c.Next()
	}
}

// SessionClaims returns the claims set by LoadSession, or nil.
func SessionClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// SetSession makes claims visible to later handlers in the same request.
func SetSession(c *gin.Context, claims *auth.Claims) {
	c.Set(sessionKey, claims)
}

func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if SessionClaims(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Authentication required",
				},
			})
			return
		}
		c.Next()
	}
}

// RequirePageSession redirects browsers without a session to the login page.
func RequirePageSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if SessionClaims(c) == nil {
			c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

func IsAdmin(claims *auth.Claims) bool {
	return claims != nil && strings.EqualFold(claims.Role, "Administrator")
}
