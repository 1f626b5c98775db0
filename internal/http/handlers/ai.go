package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/ai"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/realtime"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
)

const aiDraftTimeout = 45 * time.Second

func (h *Handler) DisplayResponseInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "AI response endpoint is available",
		"methods": []string{"POST"},
	})
}

// resolveDraftTicket finds the ticket an AI draft belongs to: a reference in the
// customer's text first, then the supplied id, then the sender's latest ticket.
func (h *Handler) resolveDraftTicket(ctx context.Context, p service.Payload) (models.Ticket, string, error) {
	candidates := []struct{ id, via string }{
		{service.ExtractTicketIDFromBody(p.Str("body", "email_body", "customer_message", "message")), "body"},
		{strings.TrimSpace(p.Str("ticket_id", "ticketId")), "ticket_id"},
	}
	for _, cand := range candidates {
		if cand.id == "" {
			continue
		}
		t, err := h.Store.GetTicket(ctx, cand.id)
		if err == nil {
			return t, cand.via, nil
		}
	}
	if addr := service.ExtractEmail(p.Str("email", "from", "customer_email")); addr != "" {
		t, err := h.Store.LatestTicketByEmail(ctx, addr)
		if err == nil {
			return t, "email", nil
		}
		return models.Ticket{}, "", err
	}
	return models.Ticket{}, "", fmt.Errorf("no ticket reference in payload")
}

// @Summary Store an AI draft produced by n8n
// @Tags ai
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/ai/display-response [post]
func (h *Handler) DisplayResponse(c *gin.Context) {
	raw, ok := readPayload(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "No JSON data received", nil)
		return
	}
	p, ok := service.FirstObject(raw)
	if !ok {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "No JSON data received", nil)
		return
	}
	draft := strings.TrimSpace(p.Str("ai_response", "response", "draft", "output", "reply"))
	if draft == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No AI response provided", nil)
		return
	}
	ctx := c.Request.Context()
	t, via, err := h.resolveDraftTicket(ctx, p)
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", err.Error())
		return
	}
	now := h.now()
	if _, err := h.Store.UpdateTicket(ctx, t.TicketID, bson.M{
		"draft":            draft,
		"draft_body":       draft,
		"n8n_draft":        draft,
		"draft_updated_at": now,
	}); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}

	customerSaved := false
	if msg := strings.TrimSpace(p.Str("customer_reply")); msg != "" {
		reply := models.Reply{
			TicketID:    t.TicketID,
			Message:     service.StripEmailQuotes(msg),
			SenderName:  service.NameFromEmail(t.Email),
			SenderType:  models.SenderWebhook,
			Sender:      "customer",
			Attachments: []models.Attachment{},
			CreatedAt:   now,
		}
		if reply.SenderName == "" {
			reply.SenderName = "Customer"
		}
		if err := h.Store.CreateReply(ctx, &reply); err != nil {
			h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("failed to save customer reply with draft")
		} else {
			customerSaved = true
			_ = h.Store.MarkUnreadReply(ctx, t.TicketID, now)
		}
	}

	h.emit(func(hub *realtime.Hub) {
		hub.TicketUpdated(t.TicketID, realtime.Event{"ticket_id": t.TicketID, "update_type": "draft", "has_draft": true})
	})
	h.Logger.Info().Str("ticket_id", t.TicketID).Str("matched_by", via).Int("draft_length", len(draft)).Msg("ai draft stored")
	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"message":              "AI response saved",
		"ticket_id":            t.TicketID,
		"matched_by":           via,
		"draft_length":         len(draft),
		"customer_reply_saved": customerSaved,
	})
}

func (h *Handler) GetAIResponse(c *gin.Context) {
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	response := ""
	for _, v := range []string{t.N8NDraft, t.DraftBody, t.Draft} {
		if strings.TrimSpace(v) != "" {
			response = v
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"ticket_id":    t.TicketID,
		"response":     response,
		"has_response": response != "",
	})
}

func (h *Handler) AIHealth(c *gin.Context) {
	adapter := "none"
	switch h.AI.(type) {
	case *ai.HTTPAdapter:
		adapter = "http"
	case ai.MockAdapter:
		adapter = "mock"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"adapter":    adapter,
		"configured": h.AI != nil,
		"timestamp":  h.now().Format(time.RFC3339),
	})
}

// @Summary Generate an AI draft reply for a ticket
// @Tags ai
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Failure 429 {object} map[string]any
// @Failure 504 {object} map[string]any
// @Router /api/tickets/{id}/ai-draft [post]
func (h *Handler) GenerateDraft(c *gin.Context) {
	if h.AI == nil {
		writeError(c, http.StatusServiceUnavailable, "INTERNAL", "AI drafting is not configured", nil)
		return
	}
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), aiDraftTimeout)
	defer cancel()
	draft, err := h.AI.DraftReply(ctx, t)
	if err != nil {
		var rl ai.RateLimitError
		switch {
		case errors.As(err, &rl):
			writeError(c, http.StatusTooManyRequests, "RATE_LIMITED", "AI provider rate limit reached", gin.H{"retry_after": int(rl.RetryAfter.Seconds())})
		case errors.Is(err, ai.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
			writeError(c, http.StatusGatewayTimeout, "GATEWAY_TIMEOUT", "AI request timed out", nil)
		case errors.Is(err, ai.ErrNotConfigured):
			writeError(c, http.StatusServiceUnavailable, "INTERNAL", "AI drafting is not configured", nil)
		default:
			h.Logger.Error().Err(err).Str("ticket_id", t.TicketID).Msg("ai draft failed")
			writeError(c, http.StatusBadGateway, "INTERNAL", "AI draft failed", err.Error())
		}
		return
	}
	if _, err := h.Store.UpdateTicket(c.Request.Context(), t.TicketID, bson.M{
		"draft":            draft,
		"draft_body":       draft,
		"draft_updated_at": h.now(),
	}); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	h.emit(func(hub *realtime.Hub) {
		hub.TicketUpdated(t.TicketID, realtime.Event{"ticket_id": t.TicketID, "update_type": "draft", "has_draft": true})
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket_id": t.TicketID, "draft": draft})
}
