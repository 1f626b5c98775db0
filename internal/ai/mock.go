package ai

import (
	"context"
	"fmt"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/utils"
)

var mockOpenings = []string{
	"Thank you for getting in touch about %s.",
	"Thanks for your message regarding %s.",
	"We have received your enquiry about %s.",
}

var mockBodies = []string{
	"One of our technicians is reviewing the details and will update you shortly.",
	"We are checking this against your warranty cover and will come back to you within 24 hours.",
	"Could you please confirm your vehicle registration and a convenient time to call you?",
}

// MockAdapter returns a deterministic draft for local runs without an AI endpoint.
type MockAdapter struct{}

func (MockAdapter) DraftReply(_ context.Context, t models.Ticket) (string, error) {
	subject := t.Subject
	if subject == "" {
		subject = "your request"
	}
	opening := fmt.Sprintf(mockOpenings[utils.PickVariant(t.TicketID, 0, len(mockOpenings))], subject)
	body := mockBodies[utils.PickVariant(t.TicketID, 1, len(mockBodies))]
	return fmt.Sprintf("Dear %s,\n\n%s %s\n\nTicket reference: %s\n\nBest regards,\nAutoAssistGroup Support Team",
		service.FirstName(t.CustomerDisplayName()), opening, body, t.TicketID), nil
}
