// Package jobs runs the periodic housekeeping tasks.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const webhookStatusRetention = 24 * time.Hour

type CachePurger interface {
	PurgeCache() int
}

type UnreadMigrator interface {
	MigrateUnreadFlags(ctx context.Context) (int64, error)
}

type StatusPurger interface {
	PurgeOlderThan(cutoff time.Time) int
}

type Scheduler struct {
	cron     *cron.Cron
	cache    CachePurger
	unread   UnreadMigrator
	statuses StatusPurger
	logger   zerolog.Logger
	now      func() time.Time
}

func New(cache CachePurger, unread UnreadMigrator, statuses StatusPurger, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		cache:    cache,
		unread:   unread,
		statuses: statuses,
		logger:   logger.With().Str("component", "jobs").Logger(),
		now:      time.Now,
	}
	specs := []struct {
		spec string
		fn   func()
	}{
		{"@hourly", s.purgeWebhookStatuses},
		{"*/5 * * * *", s.purgeCache},
		{"0 3 * * *", s.migrateUnread},
	}
	for _, j := range specs {
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeWebhookStatuses() {
	if s.statuses == nil {
		return
	}
	if n := s.statuses.PurgeOlderThan(s.now().Add(-webhookStatusRetention)); n > 0 {
		s.logger.Info().Int("purged", n).Msg("purged webhook statuses")
	}
}

func (s *Scheduler) purgeCache() {
	if s.cache == nil {
		return
	}
	if n := s.cache.PurgeCache(); n > 0 {
		s.logger.Debug().Int("purged", n).Msg("purged expired cache entries")
	}
}

func (s *Scheduler) migrateUnread() {
	if s.unread == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	n, err := s.unread.MigrateUnreadFlags(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("unread flag migration failed")
		return
	}
	s.logger.Info().Int64("updated", n).Msg("unread flag migration done")
}
