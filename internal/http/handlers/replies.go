package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/email"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/notify"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/realtime"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/storage"
)

func isReplyFileField(name string) bool {
	return strings.HasPrefix(name, "attachment_") ||
		name == "attachments" || name == "attachments[]" ||
		name == "response_attachments" || name == "response_attachments[]"
}

// storeReplyAttachment stores an uploaded reply file on disk. When the upload folder
// is unavailable the bytes travel inline as base64.
func (h *Handler) storeReplyAttachment(ticketID, name string, data []byte) models.Attachment {
	if h.Files != nil {
		att, err := h.Files.SaveBytes("replies", "reply_"+storage.SafeFilename(ticketID), name, data)
		if err == nil {
			att.FileName = name
			att.Type = "file"
			return att
		}
		h.Logger.Warn().Err(err).Str("file", name).Msg("reply attachment kept inline")
	}
	return models.Attachment{
		Filename: name,
		FileName: name,
		MimeType: storage.MimeType(name, data),
		Size:     int64(len(data)),
		Data:     encodeBase64(data),
		Type:     "file",
	}
}

// commonDocumentRefs turns common_document_{n} form values into attachment references.
func (h *Handler) commonDocumentRefs(ctx context.Context, values map[string][]string) []models.Attachment {
	keys := make([]string, 0)
	for k := range values {
		if strings.HasPrefix(k, "common_document_") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]models.Attachment, 0, len(keys))
	for _, k := range keys {
		for _, id := range values[k] {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			att := models.Attachment{DocumentID: id, Type: "common_document"}
			if h.Store != nil {
				if oid, err := db.ParseObjectID(id); err == nil {
					if doc, err := h.Store.GetCommonDocument(ctx, oid); err == nil {
						att.Filename = doc.FileName
						if att.Filename == "" {
							att.Filename = doc.Name
						}
						att.ContentType = doc.FileType
						att.Size = doc.FileSize
					}
				}
			}
			out = append(out, att)
		}
	}
	return out
}

// parseAgentReply reads the message and attachments from a multipart or JSON body.
func (h *Handler) parseAgentReply(c *gin.Context, ticketID string) (string, []models.Attachment, bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid form data", err.Error())
			return "", nil, false
		}
		message := ""
		for _, key := range []string{"response_text", "response", "message"} {
			if v := strings.TrimSpace(c.PostForm(key)); v != "" {
				message = v
				break
			}
		}
		var atts []models.Attachment
		fields := make([]string, 0, len(form.File))
		for k := range form.File {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if !isReplyFileField(field) {
				continue
			}
			for _, fh := range form.File[field] {
				data, err := readUpload(fh)
				if err != nil || len(data) == 0 {
					continue
				}
				atts = append(atts, h.storeReplyAttachment(ticketID, fh.Filename, data))
			}
		}
		atts = append(atts, h.commonDocumentRefs(c.Request.Context(), form.Value)...)
		return message, atts, true
	}

	raw, ok := readPayload(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Message is required", nil)
		return "", nil, false
	}
	body, _ := service.FirstObject(raw)
	message := strings.TrimSpace(body.Str("response_text", "response", "message"))
	atts := service.NormalizeWebhookAttachments(body["attachments"])
	for i, att := range atts {
		if data, ok := service.InlineBytes(att); ok && h.Files != nil {
			saved := h.storeReplyAttachment(ticketID, att.DisplayName(), data)
			saved.DocumentID = att.DocumentID
			atts[i] = saved
		}
	}
	values := map[string][]string{}
	for k, v := range body {
		if s, ok := v.(string); ok && strings.HasPrefix(k, "common_document_") {
			values[k] = []string{s}
		}
	}
	atts = append(atts, h.commonDocumentRefs(c.Request.Context(), values)...)
	return message, atts, true
}

// deliverReply hands the reply to n8n, or to SMTP when no webhook is configured.
func (h *Handler) deliverReply(ctx context.Context, ticket models.Ticket, in notify.ReplyInput) error {
	if h.Notifier != nil && h.Notifier.Configured() {
		res, err := h.Notifier.SendReply(ctx, notify.BuildReplyPayload(ticket, in, h.now()))
		if err != nil {
			return err
		}
		if !res.Delivered() {
			return fmt.Errorf("webhook returned status %d", res.StatusCode)
		}
		return nil
	}
	if h.Mailer == nil {
		return notify.ErrNoWebhook
	}
	subject := in.Subject
	if subject == "" {
		subject = ticket.Subject
	}
	msg := email.Message{
		To:      []string{ticket.Email},
		Subject: service.ReplySubject(subject, ticket.TicketID),
		Text:    service.ReplaceVHCPlaceholder(in.Message, ticket.VHCLink),
		HTML:    service.ReplaceVHCPlaceholderHTML(in.Message, ticket.VHCLink),
	}
	for _, att := range in.Attachments {
		data, err := storage.DecodeBase64(att.Data)
		if err != nil {
			continue
		}
		msg.Attachments = append(msg.Attachments, email.Attachment{Filename: att.Filename, Data: data, ContentType: att.ContentType})
	}
	return h.Mailer.Send(ctx, msg)
}

// @Summary Reply to a ticket as an agent
// @Tags replies
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/tickets/{id}/reply [post]
func (h *Handler) AgentReply(c *gin.Context) {
	id := c.Param("id")
	message, atts, ok := h.parseAgentReply(c, id)
	if !ok {
		return
	}
	if message == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Message is required", nil)
		return
	}
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	claims, _ := actor(c)
	now := h.now()

	if atts == nil {
		atts = []models.Attachment{}
	}
	reply := models.Reply{
		TicketID:    t.TicketID,
		Message:     message,
		SenderName:  actorName(c),
		SenderType:  models.SenderAgent,
		Sender:      models.SenderAgent,
		Attachments: atts,
		CreatedAt:   now,
	}
	if claims != nil {
		reply.SenderID = claims.MemberID
	}
	if err := h.Store.CreateReply(ctx, &reply); err != nil {
		h.storeError(c, err, "reply")
		return
	}
	if _, err := h.Store.UpdateTicketWithUnset(ctx, t.TicketID, bson.M{
		"last_reply_at": now,
		"last_reply_by": reply.SenderName,
	}, "draft_body"); err != nil {
		h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("failed to update reply timestamps")
	}

	h.emit(func(hub *realtime.Hub) {
		hub.NewReply(t.TicketID, realtime.Event{
			"ticket_id":        t.TicketID,
			"reply_id":         reply.ID.Hex(),
			"message":          message,
			"sender_name":      reply.SenderName,
			"sender_type":      models.SenderAgent,
			"attachment_count": len(atts),
			"created_at":       now,
		})
	})

	emailSent := false
	var warning string
	if t.Email != "" {
		resolved := service.ResolveEmailAttachments(ctx, atts, t, h.attachmentSource())
		in := notify.ReplyInput{
			ReplyID:     reply.ID.Hex(),
			Message:     message,
			Attachments: resolved,
		}
		if claims != nil {
			in.UserID = claims.MemberID
		}
		if err := h.deliverReply(ctx, t, in); err != nil {
			warning = "Reply saved but email delivery failed"
			h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("reply delivery failed")
		} else {
			emailSent = true
		}
	}

	resp := gin.H{
		"success":    true,
		"message":    "Reply sent successfully",
		"reply_id":   reply.ID.Hex(),
		"ticket_id":  t.TicketID,
		"email_sent": emailSent,
	}
	if warning != "" {
		resp["warning"] = warning
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Send an email template to the customer
// @Tags replies
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/tickets/{id}/send-email [post]
func (h *Handler) SendTemplateEmail(c *gin.Context) {
	raw, ok := readPayload(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "No JSON data received", nil)
		return
	}
	body, _ := service.FirstObject(raw)
	t, ok := h.loadTicket(c)
	if !ok {
		return
	}
	subject := strings.TrimSpace(body.Str("custom_subject", "subject"))
	if subject == "" {
		subject = t.Subject
	}
	message := strings.TrimSpace(body.Str("custom_body", "body", "message"))
	if message == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email body is required", nil)
		return
	}
	if t.Email == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Ticket has no customer email", nil)
		return
	}

	ctx := c.Request.Context()
	requested := t.Attachments
	if v, present := body["attachments"]; present {
		requested = service.NormalizeWebhookAttachments(v)
	}
	resolved := service.ResolveEmailAttachments(ctx, requested, t, h.attachmentSource())

	claims, _ := actor(c)
	now := h.now()
	stored := make([]models.Attachment, 0, len(resolved))
	for _, r := range resolved {
		stored = append(stored, models.Attachment{Filename: r.Filename, ContentType: r.ContentType, Size: int64(r.Size)})
	}
	reply := models.Reply{
		TicketID:        t.TicketID,
		Message:         message,
		SenderName:      actorName(c),
		SenderType:      models.SenderAgent,
		Sender:          models.SenderAgent,
		Attachments:     stored,
		IsEmailTemplate: true,
		Subject:         subject,
		CreatedAt:       now,
	}
	if claims != nil {
		reply.SenderID = claims.MemberID
	}
	if err := h.Store.CreateReply(ctx, &reply); err != nil {
		h.storeError(c, err, "reply")
		return
	}
	if _, err := h.Store.UpdateTicket(ctx, t.TicketID, bson.M{"last_reply_at": now, "last_reply_by": reply.SenderName}); err != nil {
		h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("failed to update reply timestamps")
	}
	h.emit(func(hub *realtime.Hub) {
		hub.ReplySent(t.TicketID, realtime.Event{
			"ticket_id":         t.TicketID,
			"reply_id":          reply.ID.Hex(),
			"subject":           subject,
			"is_email_template": true,
		})
	})

	in := notify.ReplyInput{
		ReplyID:      reply.ID.Hex(),
		Message:      message,
		Subject:      subject,
		Attachments:  resolved,
		FromTemplate: true,
	}
	if claims != nil {
		in.UserID = claims.MemberID
	}
	if err := h.deliverReply(ctx, t, in); err != nil {
		h.Logger.Warn().Err(err).Str("ticket_id", t.TicketID).Msg("template email delivery failed")
		warning := "Email saved but delivery failed"
		if errors.Is(err, notify.ErrNoWebhook) {
			warning = "Email saved but no delivery channel is configured"
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message":    "Email saved",
			"warning":    warning,
			"reply_id":   reply.ID.Hex(),
			"email_sent": false,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          "Email sent successfully",
		"reply_id":         reply.ID.Hex(),
		"email_sent":       true,
		"attachment_count": len(resolved),
	})
}
