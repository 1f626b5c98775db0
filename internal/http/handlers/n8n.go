package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
)

// @Summary Create a ticket from an n8n email
// @Tags n8n
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/n8n/email-tickets [post]
func (h *Handler) N8NEmailTicket(c *gin.Context) {
	h.createEmailTicket(c)
}

// N8NQuick acknowledges immediately so slow workflows do not time out.
func (h *Handler) N8NQuick(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Received",
		"timestamp": h.now().Format(time.RFC3339),
	})
}

func (h *Handler) N8NMinimal(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) N8NStatus(c *gin.Context) {
	total, err := h.Store.CountTickets(c.Request.Context(), db.TicketFilter{})
	if err != nil {
		h.storeError(c, err, "tickets")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "operational",
		"total_tickets": total,
		"timestamp":     h.now().Format(time.RFC3339),
	})
}

func (h *Handler) N8NSimpleTest(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database not available", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "database": "connected", "message": "n8n connection test passed"})
}
