package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/metrics"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/notify"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/realtime"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/storage"
)

const (
	agentEchoWindow       = 2 * time.Minute
	attachmentMergeWindow = 5 * time.Minute
	agentEchoLookback     = 5
)

// persistWebhookAttachments moves inline attachment bytes to disk and keeps only metadata.
func (h *Handler) persistWebhookAttachments(ticketID string, atts []models.Attachment) []models.Attachment {
	if h.Files == nil {
		return atts
	}
	for i, att := range atts {
		data, ok := service.InlineBytes(att)
		if !ok {
			continue
		}
		saved, err := h.Files.SaveBytes("replies", "webhook_"+storage.SafeFilename(ticketID), att.DisplayName(), data)
		if err != nil {
			h.Logger.Warn().Err(err).Str("ticket_id", ticketID).Str("file", att.DisplayName()).Msg("webhook attachment kept inline")
			continue
		}
		att.FilePath = saved.FilePath
		att.Size = saved.Size
		if att.MimeType == "" {
			att.MimeType = saved.MimeType
		}
		att.Data = ""
		att.FileData = ""
		atts[i] = att
	}
	return atts
}

func (h *Handler) duplicateReply(c *gin.Context, ticketID, replyID, reason string) {
	metrics.RecordWebhookReply("duplicate")
	h.Logger.Info().Str("ticket_id", ticketID).Str("reason", reason).Msg("duplicate webhook reply ignored")
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"duplicate": true,
		"message":   "Reply already recorded",
		"ticket_id": ticketID,
		"reply_id":  replyID,
	})
}

// @Summary Record a customer reply sent by n8n
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/webhook/reply [post]
func (h *Handler) WebhookReply(c *gin.Context) {
	raw, ok := readPayload(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "No data received", nil)
		return
	}
	p, ok := service.FirstObject(raw)
	if !ok || len(p) == 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "No data received", nil)
		return
	}
	ticketID := strings.TrimSpace(p.Str("ticket_id", "ticketId"))
	if ticketID == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "ticket_id is required", nil)
		return
	}
	message := service.ExtractReplyMessage(p)
	if strings.TrimSpace(message) == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "message required (send body, message, reply, or content)", nil)
		return
	}

	ctx := c.Request.Context()
	t, err := h.Store.GetTicket(ctx, ticketID)
	if err != nil {
		metrics.RecordWebhookReply("error")
		h.storeError(c, err, "Ticket")
		return
	}
	now := h.now()

	if rid := p.Str("portal_reply_id", "reply_id"); rid != "" {
		exists, err := h.Store.ReplyExistsForTicket(ctx, rid, t.TicketID)
		if err == nil && exists {
			h.duplicateReply(c, t.TicketID, rid, "portal reply id")
			return
		}
	}
	recent, err := h.Store.RecentAgentReplies(ctx, t.TicketID, now.Add(-agentEchoWindow), agentEchoLookback)
	if err == nil && service.IsRecentDuplicate(message, recent, now) {
		h.duplicateReply(c, t.TicketID, "", "agent echo")
		return
	}

	set := bson.M{}
	if mid := p.Str("message_id", "messageId", "internetMessageId"); mid != "" {
		set["message_id"] = mid
	}
	if tid := p.Str("conversationId", "threadId", "conversation_id"); tid != "" {
		set["threadId"] = tid
	}

	atts := h.persistWebhookAttachments(t.TicketID, service.NormalizeWebhookAttachments(p["attachments"]))
	cleaned := service.StripEmailQuotes(message)
	if cleaned == "" {
		cleaned = strings.TrimSpace(message)
	}

	if len(atts) > 0 {
		prev, err := h.Store.RecentWebhookReply(ctx, t.TicketID, now.Add(-attachmentMergeWindow))
		if err == nil && len(prev.Attachments) == 0 {
			fields := bson.M{"attachments": atts}
			if len(cleaned) > len(prev.Message) {
				fields["message"] = cleaned
			}
			if err := h.Store.UpdateReply(ctx, prev.ID, fields); err != nil {
				metrics.RecordWebhookReply("error")
				h.storeError(c, err, "reply")
				return
			}
			set["has_unread_reply"] = true
			set["last_reply_at"] = now
			if _, err := h.Store.UpdateTicket(ctx, t.TicketID, set); err != nil {
				h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("failed to flag unread reply")
			}
			h.emit(func(hub *realtime.Hub) {
				hub.NewReply(t.TicketID, realtime.Event{
					"ticket_id":        t.TicketID,
					"reply_id":         prev.ID.Hex(),
					"sender_type":      "customer",
					"attachment_count": len(atts),
					"merged":           true,
				})
			})
			metrics.RecordWebhookReply("merged")
			c.JSON(http.StatusOK, gin.H{
				"success":          true,
				"message":          "Attachments merged into existing reply",
				"reply_id":         prev.ID.Hex(),
				"ticket_id":        t.TicketID,
				"attachment_count": len(atts),
			})
			return
		} else if err != nil && !errors.Is(err, db.ErrNotFound) {
			h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("recent webhook reply lookup failed")
		}
	}

	sender := strings.TrimSpace(p.Str("sender_name", "from"))
	if sender == "" {
		sender = "Customer"
	}
	if atts == nil {
		atts = []models.Attachment{}
	}
	reply := models.Reply{
		TicketID:    t.TicketID,
		Message:     cleaned,
		SenderName:  sender,
		SenderType:  models.SenderWebhook,
		Sender:      "customer",
		Attachments: atts,
		CreatedAt:   now,
	}
	if err := h.Store.CreateReply(ctx, &reply); err != nil {
		metrics.RecordWebhookReply("error")
		h.storeError(c, err, "reply")
		return
	}
	set["has_unread_reply"] = true
	set["last_reply_at"] = now
	if _, err := h.Store.UpdateTicket(ctx, t.TicketID, set); err != nil {
		h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("failed to flag unread reply")
	}
	h.emit(func(hub *realtime.Hub) {
		hub.NewReply(t.TicketID, realtime.Event{
			"ticket_id":        t.TicketID,
			"reply_id":         reply.ID.Hex(),
			"message":          cleaned,
			"sender_name":      sender,
			"sender_type":      "customer",
			"attachment_count": len(atts),
			"created_at":       now,
		})
	})
	metrics.RecordWebhookReply("created")
	h.Logger.Info().Str("ticket_id", t.TicketID).Int("attachments", len(atts)).Msg("customer reply recorded")
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          "Reply added successfully",
		"reply_id":         reply.ID.Hex(),
		"ticket_id":        t.TicketID,
		"attachment_count": len(atts),
	})
}

// @Summary Refer a ticket to the Technical Director through n8n
// @Tags webhooks
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Router /api/webhook/tech-director/{id} [post]
func (h *Handler) WebhookTechDirector(c *gin.Context) {
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	now := h.now()
	by := actorName(c)
	if _, err := h.Store.UpdateTicket(c.Request.Context(), t.TicketID, bson.M{
		"status":               models.StatusReferredToTD,
		"referred_to_director": true,
		"referred_at":          now,
		"referred_by":          by,
	}); err != nil {
		h.storeError(c, err, "Ticket")
		return
	}
	t.Status = models.StatusReferredToTD
	webhookStatus := "skipped"
	if h.Notifier != nil && h.Notifier.Configured() {
		h.Notifier.ReferToTechDirector(c.Request.Context(), t, by)
		webhookStatus = notify.StatusPending
	}
	h.emit(func(hub *realtime.Hub) {
		hub.StatusChanged(t.TicketID, realtime.Event{
			"ticket_id":  t.TicketID,
			"new_status": models.StatusReferredToTD,
			"changed_by": by,
		})
	})
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Ticket referred to Technical Director",
		"ticket_id":      t.TicketID,
		"webhook_status": webhookStatus,
	})
}

func (h *Handler) WebhookStatus(c *gin.Context) {
	id := c.Param("id")
	if h.Notifier != nil {
		if st, ok := h.Notifier.Status.Get(id); ok {
			c.JSON(http.StatusOK, gin.H{"success": true, "ticket_id": id, "webhook": st})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"ticket_id": id,
		"webhook":   gin.H{"status": "unknown", "message": "No webhook data found"},
	})
}

func truncateURL(u string) string {
	if len(u) <= 50 {
		return u
	}
	return u[:50] + "..."
}

func (h *Handler) WebhookHealth(c *gin.Context) {
	url, pending := "", 0
	if h.Notifier != nil {
		url = h.Notifier.URL()
		pending = h.Notifier.Status.Pending()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "operational",
		"webhook_url":      truncateURL(url),
		"pending_webhooks": pending,
		"timestamp":        h.now().Format(time.RFC3339),
	})
}

func (h *Handler) WebhookCleanup(c *gin.Context) {
	n := 0
	if h.Notifier != nil {
		n = h.Notifier.Status.Clear()
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cleared": n, "message": "Cleared " + strconv.Itoa(n) + " webhook status entries"})
}

// @Summary Send a test payload to the n8n webhook
// @Tags webhooks
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 504 {object} map[string]any
// @Router /api/webhook/test [post]
func (h *Handler) WebhookTest(c *gin.Context) {
	if h.Notifier == nil || !h.Notifier.Configured() {
		writeError(c, http.StatusBadRequest, "WEBHOOK_ERROR", "Webhook URL not configured", nil)
		return
	}
	res, err := h.Notifier.Test(c.Request.Context())
	if err != nil {
		if notify.IsTimeout(err) {
			writeError(c, http.StatusGatewayTimeout, "GATEWAY_TIMEOUT", "Webhook timed out", nil)
			return
		}
		writeError(c, http.StatusBadGateway, "WEBHOOK_ERROR", "Webhook request failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        res.Delivered(),
		"webhook_status": res.StatusCode,
		"response":       res.Body,
	})
}
