package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

// Adapter drafts a reply an agent can edit before sending.
type Adapter interface {
	DraftReply(ctx context.Context, t models.Ticket) (string, error)
}

const systemPrompt = "You are a support agent for AutoAssistGroup, a UK vehicle warranty and DPF " +
	"cleaning company. Write a short, polite reply to the customer. Do not invent prices, dates or " +
	"claim outcomes. Sign off as \"AutoAssistGroup Support Team\"."

// Prompt renders the ticket as the user message sent to the model.
func Prompt(t models.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket: %s\n", t.TicketID)
	if name := t.CustomerDisplayName(); name != "" {
		fmt.Fprintf(&b, "Customer: %s\n", name)
	}
	if t.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", t.Subject)
	}
	if t.Classification != "" {
		fmt.Fprintf(&b, "Classification: %s\n", t.Classification)
	}
	if t.VehicleRegistration != "" {
		fmt.Fprintf(&b, "Vehicle: %s\n", t.VehicleRegistration)
	}
	if t.HasWarranty {
		b.WriteString("The customer attached a warranty form.\n")
	}
	body := strings.TrimSpace(t.Body)
	if body == "" {
		body = strings.TrimSpace(t.Description)
	}
	fmt.Fprintf(&b, "\n%s", body)
	return b.String()
}
