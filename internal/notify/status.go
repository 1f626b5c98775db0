package notify

import (
	"sync"
	"time"
)

const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type WebhookStatus struct {
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	Attempts    int        `json:"attempts,omitempty"`
	Error       string     `json:"error,omitempty"`
	updatedAt   time.Time
}

// StatusTracker keeps the last async webhook outcome per ticket in memory.
type StatusTracker struct {
	mu      sync.Mutex
	entries map[string]WebhookStatus
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{entries: make(map[string]WebhookStatus)}
}

func (t *StatusTracker) set(ticketID string, s WebhookStatus) {
	t.mu.Lock()
	t.entries[ticketID] = s
	t.mu.Unlock()
}

func (t *StatusTracker) Get(ticketID string) (WebhookStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.entries[ticketID]
	return s, ok
}

// Pending counts tracked entries, matching what the health endpoint reports.
func (t *StatusTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Clear drops every entry and returns how many there were.
func (t *StatusTracker) Clear() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.entries)
	t.entries = make(map[string]WebhookStatus)
	return n
}

// PurgeOlderThan drops finished entries last updated before cutoff.
func (t *StatusTracker) PurgeOlderThan(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, s := range t.entries {
		if s.Status != StatusPending && s.updatedAt.Before(cutoff) {
			delete(t.entries, id)
			n++
		}
	}
	return n
}
