package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeStore struct {
	purged   int
	migrated int
	err      error
}

func (f *fakeStore) PurgeCache() int {
	f.purged++
	return 1
}

func (f *fakeStore) MigrateUnreadFlags(context.Context) (int64, error) {
	f.migrated++
	return 2, f.err
}

type fakeStatuses struct{ cutoff time.Time }

func (f *fakeStatuses) PurgeOlderThan(cutoff time.Time) int {
	f.cutoff = cutoff
	return 0
}

func TestSchedulerRegistersJobs(t *testing.T) {
	s, err := New(&fakeStore{}, &fakeStore{}, &fakeStatuses{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := len(s.cron.Entries()); got != 3 {
		t.Fatalf("expected 3 jobs, got %d", got)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestJobBodies(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	statuses := &fakeStatuses{}
	s, err := New(store, store, statuses, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	now := time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.purgeCache()
	s.migrateUnread()
	s.purgeWebhookStatuses()

	if store.purged != 1 || store.migrated != 1 {
		t.Fatalf("jobs not run: %+v", store)
	}
	if !statuses.cutoff.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("unexpected cutoff %v", statuses.cutoff)
	}
}

func TestNilDependenciesAreSkipped(t *testing.T) {
	s, err := New(nil, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.purgeCache()
	s.migrateUnread()
	s.purgeWebhookStatuses()
}
