package notify

import (
	"context"
	"time"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/metrics"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
)

// ReplyPayload is what the n8n reply workflow expects. Several fields repeat
// the same value under the names older workflow versions read.
type ReplyPayload struct {
	TicketID        string                       `json:"ticket_id"`
	PortalReplyID   string                       `json:"portal_reply_id,omitempty"`
	ResponseText    string                       `json:"response_text"`
	ReplyMessage    string                       `json:"replyMessage"`
	HTMLMessage     string                       `json:"html_message"`
	CustomerEmail   string                       `json:"customer_email"`
	Email           string                       `json:"email"`
	TicketSubject   string                       `json:"ticket_subject"`
	Subject         string                       `json:"subject"`
	CustomerName    string                       `json:"customer_name"`
	Priority        string                       `json:"priority"`
	TicketStatus    string                       `json:"ticket_status"`
	TicketSource    string                       `json:"ticketSource"`
	Source          string                       `json:"source,omitempty"`
	IsEmailTicket   bool                         `json:"is_email_ticket"`
	ThreadID        string                       `json:"threadId"`
	MessageID       string                       `json:"message_id"`
	Timestamp       string                       `json:"timestamp"`
	UserID          string                       `json:"user_id"`
	HasAttachments  bool                         `json:"has_attachments"`
	Attachments     []service.ResolvedAttachment `json:"attachments"`
	AttachmentCount int                          `json:"attachment_count"`
	Body            string                       `json:"body"`
	Draft           string                       `json:"draft,omitempty"`
	Message         string                       `json:"message"`
	Content         string                       `json:"content"`
}

type ReplyInput struct {
	ReplyID     string
	Message     string
	Subject     string
	UserID      string
	Attachments []service.ResolvedAttachment
	// FromTemplate marks messages composed from an email template.
	FromTemplate bool
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// BuildReplyPayload renders the plain and HTML bodies and fills the ticket context.
func BuildReplyPayload(ticket models.Ticket, in ReplyInput, now time.Time) ReplyPayload {
	plain := service.ReplaceVHCPlaceholder(in.Message, ticket.VHCLink)
	htmlBody := service.ReplaceVHCPlaceholderHTML(in.Message, ticket.VHCLink)

	subject := orDefault(in.Subject, orDefault(ticket.Subject, "Your Support Request"))
	customer := ticket.CustomerName
	if customer == "" {
		customer = ticket.Name
	}
	atts := in.Attachments
	if atts == nil {
		atts = []service.ResolvedAttachment{}
	}
	p := ReplyPayload{
		TicketID:        ticket.TicketID,
		PortalReplyID:   in.ReplyID,
		ResponseText:    plain,
		ReplyMessage:    plain,
		HTMLMessage:     htmlBody,
		CustomerEmail:   ticket.Email,
		Email:           ticket.Email,
		TicketSubject:   subject,
		Subject:         subject,
		CustomerName:    customer,
		Priority:        orDefault(ticket.Priority, models.DefaultPriority),
		TicketStatus:    orDefault(ticket.Status, models.StatusAwaitingReply),
		TicketSource:    orDefault(ticket.Source, "manual"),
		IsEmailTicket:   ticket.Source == "n8n_email" || ticket.Source == "email",
		ThreadID:        ticket.ConversationID,
		MessageID:       ticket.MessageID,
		Timestamp:       now.Format(time.RFC3339),
		UserID:          in.UserID,
		HasAttachments:  len(atts) > 0,
		Attachments:     atts,
		AttachmentCount: len(atts),
		Body:            ticket.Body,
		Draft:           in.Message,
		Message:         plain,
		Content:         plain,
	}
	if in.FromTemplate {
		p.TicketSource = "email template"
		p.Source = "email template"
		p.Draft = ""
	}
	return p
}

// SendReply posts an agent reply for n8n to email to the customer.
func (c *Client) SendReply(ctx context.Context, payload ReplyPayload) (Result, error) {
	res, err := c.Post(ctx, payload)
	kind := "reply"
	if payload.Source == "email template" {
		kind = "email_template"
	}
	metrics.RecordOutboundWebhook(kind, err)
	if err != nil {
		c.logger.Error().Err(err).Str("ticket_id", payload.TicketID).Msg("n8n reply webhook failed")
		return res, err
	}
	c.logger.Info().Str("ticket_id", payload.TicketID).Int("status", res.StatusCode).Int("attachments", payload.AttachmentCount).Msg("n8n reply webhook sent")
	return res, nil
}
