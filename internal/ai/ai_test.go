package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

func sampleTicket() models.Ticket {
	return models.Ticket{
		TicketID:       "EAB1234",
		Name:           "Jane Smith",
		Subject:        "DPF light on",
		Classification: "Technical Support",
		Body:           "The DPF warning light came on after the clean.",
	}
}

func TestPromptIncludesTicketDetails(t *testing.T) {
	p := Prompt(sampleTicket())
	for _, want := range []string{"Ticket: EAB1234", "Customer: Jane Smith", "Subject: DPF light on", "DPF warning light"} {
		assert.Contains(t, p, want)
	}
}

func TestMockAdapterIsDeterministic(t *testing.T) {
	m := MockAdapter{}
	a, err := m.DraftReply(context.Background(), sampleTicket())
	require.NoError(t, err)
	b, _ := m.DraftReply(context.Background(), sampleTicket())
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "Dear Jane,"))
	assert.Contains(t, a, "Ticket reference: EAB1234")
}

func TestHTTPAdapterCachesPrompt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		assert.Len(t, req.Messages, 2)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Hello Jane "}}]}`))
	}))
	defer srv.Close()

	a := NewHTTPAdapter(srv.URL+"/v1/", "gpt-test", "secret")
	got, err := a.DraftReply(context.Background(), sampleTicket())
	require.NoError(t, err)
	assert.Equal(t, "Hello Jane", got)

	_, err = a.DraftReply(context.Background(), sampleTicket())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	now := time.Now()
	a.now = func() time.Time { return now.Add(2 * promptCacheTTL) }
	_, err = a.DraftReply(context.Background(), sampleTicket())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPAdapterRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPAdapter(srv.URL, "m", "").DraftReply(context.Background(), sampleTicket())
	var rl RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 12*time.Second, rl.RetryAfter)
}

func TestHTTPAdapterRequiresConfig(t *testing.T) {
	_, err := NewHTTPAdapter("", "", "").DraftReply(context.Background(), sampleTicket())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHTTPAdapterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPAdapter(srv.URL, "m", "").DraftReply(context.Background(), sampleTicket())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
