package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/service"
)

func newTestClient(url string) *Client {
	return New(Options{URL: url, Timeout: 2 * time.Second, Retries: 3, Logger: zerolog.Nop()})
}

func TestPostDeliveredAndPreview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, strings.Repeat("x", 800))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Post(context.Background(), map[string]any{"a": 1})
	require.NoError(t, err)
	assert.True(t, res.Delivered())
	assert.Len(t, res.Body, bodyPreviewLimit)
}

func TestPostServerErrorIsNotDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Post(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.False(t, res.Delivered())
}

func TestPostWithoutURL(t *testing.T) {
	_, err := newTestClient("").Post(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoWebhook)
}

func TestPostTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Options{URL: srv.URL, Timeout: 50 * time.Millisecond, Logger: zerolog.Nop()})
	_, err := c.Post(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestSendReplyPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	ticket := models.Ticket{
		TicketID:       "EAB1234",
		Email:          "jane@example.com",
		Name:           "Jane",
		Subject:        "DPF light",
		Source:         "n8n_email",
		VHCLink:        "https://vhc.example/1",
		ConversationID: "thread-9",
	}
	payload := BuildReplyPayload(ticket, ReplyInput{
		ReplyID:     "r1",
		Message:     "Hi Jane\nSee @VHC_Link",
		UserID:      "m1",
		Attachments: []service.ResolvedAttachment{{Filename: "a.pdf", Data: "QUJD", Size: 3}},
	}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	res, err := newTestClient(srv.URL).SendReply(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, res.Delivered())

	assert.Equal(t, "Hi Jane\nSee Vehicle Health Check: https://vhc.example/1", got["replyMessage"])
	assert.Contains(t, got["html_message"], "<br>\nSee <a href=\"https://vhc.example/1\"")
	assert.Equal(t, "thread-9", got["threadId"])
	assert.Equal(t, true, got["is_email_ticket"])
	assert.Equal(t, float64(1), got["attachment_count"])
	assert.Equal(t, "n8n_email", got["ticketSource"])
	assert.Equal(t, "Hi Jane\nSee @VHC_Link", got["draft"])
}

func TestBuildReplyPayloadFromTemplate(t *testing.T) {
	p := BuildReplyPayload(models.Ticket{TicketID: "E1"}, ReplyInput{Message: "Body", Subject: "Custom", FromTemplate: true}, time.Now())
	assert.Equal(t, "email template", p.TicketSource)
	assert.Equal(t, "Custom", p.Subject)
	assert.Equal(t, models.DefaultPriority, p.Priority)
	assert.NotNil(t, p.Attachments)
	assert.False(t, p.HasAttachments)
}

func TestReferToTechDirectorRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	done := c.ReferToTechDirector(context.Background(), models.Ticket{TicketID: "E1"}, "Admin")
	_, ok := c.Status.Get("E1")
	require.True(t, ok)
	<-done

	st, _ := c.Status.Get("E1")
	assert.Equal(t, StatusSuccess, st.Status)
	assert.Equal(t, 3, st.Attempts)
	assert.NotNil(t, st.CompletedAt)
}

func TestReferToTechDirectorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	<-c.ReferToTechDirector(context.Background(), models.Ticket{TicketID: "E2"}, "Admin")

	st, ok := c.Status.Get("E2")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, st.Status)
	assert.NotNil(t, st.FailedAt)
	assert.Equal(t, 1, c.Status.Pending())
}

func TestStatusTrackerPurge(t *testing.T) {
	tr := NewStatusTracker()
	old := time.Now().Add(-48 * time.Hour)
	tr.set("done", WebhookStatus{Status: StatusSuccess, updatedAt: old})
	tr.set("waiting", WebhookStatus{Status: StatusPending, updatedAt: old})
	tr.set("fresh", WebhookStatus{Status: StatusFailed, updatedAt: time.Now()})

	assert.Equal(t, 1, tr.PurgeOlderThan(time.Now().Add(-24*time.Hour)))
	_, ok := tr.Get("done")
	assert.False(t, ok)
	assert.Equal(t, 2, tr.Clear())
	assert.Equal(t, 0, tr.Pending())
}
