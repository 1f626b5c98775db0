package service

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

//go:embed templates/*.tmpl
var emailTemplateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(emailTemplateFS, "templates/*.tmpl"))

const (
	TemplateWarrantyClaim    = "warranty_claim"
	TemplateTechnicalSupport = "technical_support"
	TemplateCustomerService  = "customer_service"
	TemplateDraft            = "draft"
)

type EmailTemplate struct {
	TicketID      string `json:"ticket_id"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	HasDraft      bool   `json:"has_draft"`
	ContentSource string `json:"content_source"`
	TemplateType  string `json:"template_type"`
}

type templateData struct {
	FirstName string
	TicketID  string
}

// ReplySubject threads the reply under the customer's subject with the ticket tag.
func ReplySubject(subject, ticketID string) string {
	if subject == "" {
		subject = "Support Request"
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return fmt.Sprintf("%s [TID: %s]", subject, ticketID)
	}
	return fmt.Sprintf("Re: %s [TID: %s]", subject, ticketID)
}

// RenderEmailTemplate fills the named template for a ticket. Unknown types and
// a draft request without a draft use the generic acknowledgement.
func RenderEmailTemplate(kind string, ticket models.Ticket) (EmailTemplate, error) {
	name := strings.TrimSpace(ticket.Name)
	if name == "" {
		name = "Customer"
	}
	out := EmailTemplate{
		TicketID:      ticket.TicketID,
		Subject:       ReplySubject(ticket.Subject, ticket.TicketID),
		HasDraft:      ticket.Draft != "",
		ContentSource: "template",
		TemplateType:  kind,
	}
	data := templateData{FirstName: FirstName(name), TicketID: ticket.TicketID}

	file := "fallback.tmpl"
	switch kind {
	case TemplateWarrantyClaim:
		file = "warranty_claim.tmpl"
		out.Subject = "Re: Warranty Claim Update - Ticket #" + ticket.TicketID
	case TemplateTechnicalSupport:
		file = "technical_support.tmpl"
	case TemplateCustomerService:
		file = "customer_service.tmpl"
	case TemplateDraft:
		if out.HasDraft {
			out.Body = draftWithReference(ticket.Draft, ticket.TicketID)
			out.ContentSource = "draft"
			return out, nil
		}
	}

	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, file, data); err != nil {
		return EmailTemplate{}, fmt.Errorf("render %s: %w", file, err)
	}
	out.Body = strings.TrimRight(buf.String(), "\n")
	return out, nil
}

func draftWithReference(draft, ticketID string) string {
	if strings.Contains(draft, ticketID) || strings.HasPrefix(draft, "Ref: Ticket") {
		return draft
	}
	return "Ref: Ticket #" + ticketID + "\n\n" + draft
}
