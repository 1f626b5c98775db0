package notify

import (
	"context"
	"time"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/metrics"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

type referralPayload struct {
	TicketID         string        `json:"ticket_id"`
	TicketData       models.Ticket `json:"ticket_data"`
	AssignmentMethod string        `json:"assignment_method"`
	ReferredBy       string        `json:"referred_by"`
	Timestamp        string        `json:"timestamp"`
}

// ReferToTechDirector notifies n8n of a referral in the background and tracks
// the outcome per ticket. The returned channel closes when the last attempt ends.
func (c *Client) ReferToTechDirector(ctx context.Context, ticket models.Ticket, referredBy string) <-chan struct{} {
	done := make(chan struct{})
	ctx = context.WithoutCancel(ctx)

	started := c.now()
	c.Status.set(ticket.TicketID, WebhookStatus{Status: StatusPending, StartedAt: &started, updatedAt: started})

	payload := referralPayload{
		TicketID:         ticket.TicketID,
		TicketData:       ticket,
		AssignmentMethod: "referral",
		ReferredBy:       referredBy,
		Timestamp:        started.Format(time.RFC3339),
	}

	go func() {
		defer close(done)
		var lastErr error
		for attempt := 1; attempt <= c.retries; attempt++ {
			res, err := c.Post(ctx, payload)
			if err == nil && res.Delivered() {
				at := c.now()
				c.Status.set(ticket.TicketID, WebhookStatus{Status: StatusSuccess, StartedAt: &started, CompletedAt: &at, Attempts: attempt, updatedAt: at})
				metrics.RecordOutboundWebhook("tech_director", nil)
				c.logger.Info().Str("ticket_id", ticket.TicketID).Int("attempt", attempt).Msg("tech director webhook delivered")
				return
			}
			lastErr = err
			c.logger.Warn().Err(err).Str("ticket_id", ticket.TicketID).Int("attempt", attempt).Int("max_attempts", c.retries).Int("status", res.StatusCode).Msg("tech director webhook attempt failed")
			if attempt < c.retries && c.retryDelay > 0 {
				time.Sleep(c.retryDelay)
			}
		}
		at := c.now()
		st := WebhookStatus{Status: StatusFailed, StartedAt: &started, FailedAt: &at, Attempts: c.retries, updatedAt: at}
		if lastErr != nil {
			st.Error = lastErr.Error()
		}
		c.Status.set(ticket.TicketID, st)
		metrics.RecordOutboundWebhook("tech_director", errNotDelivered(lastErr))
	}()
	return done
}

func errNotDelivered(err error) error {
	if err != nil {
		return err
	}
	return ErrServerError
}
