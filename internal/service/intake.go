package service

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

var ErrEmptyPayload = errors.New("no JSON data received")

// AttachmentSaver persists ticket attachment bytes and returns their metadata.
type AttachmentSaver interface {
	SaveTicketAttachment(ticketID, name string, data []byte, idx int) (models.Attachment, error)
}

type IntakeService struct {
	Files  AttachmentSaver
	Logger zerolog.Logger
	Now    func() time.Time
}

func (s *IntakeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ProcessEmailTicket maps an n8n email payload onto a new ticket document.
// Attachment bytes go to disk; only metadata stays on the ticket.
func (s *IntakeService) ProcessEmailTicket(raw any) (models.Ticket, error) {
	data, ok := FirstObject(raw)
	if !ok || len(data) == 0 {
		return models.Ticket{}, ErrEmptyPayload
	}

	email := ExtractEmail(data.Str("from", "email"))
	body := data.Longest("body", "text", "content", "message", "email_body", "plainText")
	name := data.Str("name", "sender_name")
	if name == "" && email != "" {
		name = NameFromEmail(email)
	}
	ticketID := strings.TrimSpace(data.Str("ticket_id", "ticketId", "final_ticket_id"))
	if ticketID == "" {
		ticketID = NewEmailTicketID()
	}

	var rawAttachments []any
	switch v := data["attachments"].(type) {
	case []any:
		rawAttachments = v
	case map[string]any:
		rawAttachments = []any{}
		for _, att := range NormalizeWebhookAttachments(v) {
			rawAttachments = append(rawAttachments, att)
		}
	}

	attachments := make([]models.Attachment, 0, len(rawAttachments))
	hasWarranty := false
	warrantyForms := 0
	var totalSize int64
	for idx, item := range rawAttachments {
		var att models.Attachment
		switch v := item.(type) {
		case map[string]any:
			att = attachmentFromMap(Payload(v))
		case models.Attachment:
			att = v
		default:
			continue
		}
		fn := att.DisplayName()
		if fn == "" {
			fn = "attachment"
		}
		if DetectWarrantyForm(fn) {
			hasWarranty = true
			warrantyForms++
		}
		if s.Files != nil {
			if content, ok := InlineBytes(att); ok {
				saved, err := s.Files.SaveTicketAttachment(ticketID, fn, content, idx)
				if err == nil {
					attachments = append(attachments, saved)
					totalSize += saved.Size
					continue
				}
				s.Logger.Warn().Err(err).Str("ticket_id", ticketID).Str("filename", fn).Msg("attachment save failed, keeping metadata")
			}
		}
		attachments = append(attachments, models.Attachment{
			Filename: fn,
			FileName: fn,
			Size:     att.Size,
			MimeType: firstNonEmpty(att.ContentType, att.MimeType),
		})
		totalSize += att.Size
	}

	threadID := data.Str("threadId", "thread_id")
	if threadID == "" {
		threadID = "n8n_" + ticketID
	}
	now := s.now()
	return models.Ticket{
		TicketID:            ticketID,
		Email:               email,
		Name:                name,
		Subject:             firstNonEmpty(data.Str("subject", "Subject"), "No Subject"),
		Body:                body,
		Message:             body,
		Status:              models.StatusOpen,
		Priority:            firstNonEmpty(data.Str("Priority", "priority"), models.DefaultPriority),
		Classification:      firstNonEmpty(data.Str("Classification", "classification"), models.DefaultClassifcation),
		Source:              "n8n_email",
		CreationMethod:      "n8n_email",
		HasWarranty:         hasWarranty,
		HasAttachments:      len(attachments) > 0,
		Attachments:         attachments,
		TotalAttachments:    len(attachments),
		WarrantyFormsCount:  warrantyForms,
		AttachmentTotalSize: totalSize,
		ProcessingMethod:    "n8n_email",
		Draft:               data.Str("draft", "n8n_draft"),
		N8NDraft:            data.Str("n8n_draft", "draft"),
		ThreadID:            threadID,
		MessageID:           data.Str("messageid", "message_id", "messageId"),
		EmailDate:           data.Str("date"),
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}
