package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	status, database, code := "healthy", "connected", http.StatusOK
	if h.Store == nil || h.Store.Ping(ctx) != nil {
		status, database, code = "degraded", "disconnected", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":      status,
		"database":    database,
		"environment": h.Env,
		"version":     h.Version,
		"timestamp":   h.now().Format(time.RFC3339),
	})
}

func (h *Handler) APIStatus(c *gin.Context) {
	clients := 0
	if h.Hub != nil {
		clients = h.Hub.ClientCount()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "online",
		"version":           h.Version,
		"websocket_clients": clients,
		"timestamp":         h.now().Format(time.RFC3339),
	})
}

func (h *Handler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Server is running", "timestamp": h.now().Format(time.RFC3339)})
}
