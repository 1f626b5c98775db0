package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/realtime"
)

// @Summary Realtime event stream
// @Tags realtime
// @Router /ws [get]
func (h *Handler) WebSocket(c *gin.Context) {
	if h.Hub == nil {
		writeError(c, http.StatusServiceUnavailable, "INTERNAL", "Realtime hub not available", nil)
		return
	}
	who := realtime.Identity{}
	if claims, _ := actor(c); claims != nil {
		who = realtime.Identity{MemberID: claims.MemberID, Name: claims.Name, Role: claims.Role}
	}
	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	realtime.Serve(h.Hub, conn, who)
}
