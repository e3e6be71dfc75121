package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
)

// RegistryLister is the read path the synchronizer reconciles against.
// Results come back in id-ascending order; afterID pages past a previous
// call's last id.
type RegistryLister interface {
	ListChecks(ctx context.Context, enabled *bool, afterID domain.CheckID, limit int) ([]domain.Healthcheck, error)
}

// Synchronizer keeps the executor's slot set consistent with the registry's
// enabled checks, one reconcile pass per interval. A registry outage keeps
// the last-known-good schedule running untouched.
type Synchronizer struct {
	log       *zap.Logger
	registry  RegistryLister
	exec      *Executor
	interval  time.Duration
	listLimit int
}

func NewSynchronizer(log *zap.Logger, registry RegistryLister, exec *Executor, interval time.Duration, listLimit int) *Synchronizer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if listLimit <= 0 {
		listLimit = 1000
	}
	return &Synchronizer{
		log:       log,
		registry:  registry,
		exec:      exec,
		interval:  interval,
		listLimit: listLimit,
	}
}

// Run does an immediate pass, then reconciles each tick until ctx is
// cancelled.
func (s *Synchronizer) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.syncOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("synchronizer_stopped")
			return
		case <-t.C:
			s.syncOnce(ctx)
		}
	}
}

// listEnabled pages through the registry until an empty page, so the
// snapshot is complete even when the server caps page sizes below
// listLimit. A partial snapshot must never reach the diff: it would read
// as deletions and tear down healthy slots.
func (s *Synchronizer) listEnabled(ctx context.Context) ([]domain.Healthcheck, error) {
	enabled := true
	var (
		out   []domain.Healthcheck
		after domain.CheckID
	)
	for {
		page, err := s.registry.ListChecks(ctx, &enabled, after, s.listLimit)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return out, nil
		}
		out = append(out, page...)
		last := page[len(page)-1].ID
		if last <= after {
			// cursor not advancing; bail with what we have
			return out, nil
		}
		after = last
	}
}

func (s *Synchronizer) syncOnce(ctx context.Context) {
	checks, err := s.listEnabled(ctx)
	if err != nil {
		// keep the existing schedule; retry next cycle
		s.log.Warn("sync_list_error", zap.Error(err))
		return
	}

	desired := make(map[domain.CheckID]domain.Healthcheck, len(checks))
	for _, c := range checks {
		desired[c.ID] = c
	}
	running := s.exec.Running()

	started, stopped, replaced := 0, 0, 0
	for id, want := range desired {
		cur, ok := running[id]
		if !ok {
			s.exec.StartSlot(want)
			started++
			continue
		}
		// stop-then-restart on parameter change; a live timer is never
		// mutated in place
		if cur.Interval != want.Interval || cur.Endpoint != want.Endpoint {
			s.exec.StartSlot(want)
			replaced++
		}
	}
	for id := range running {
		if _, ok := desired[id]; !ok {
			s.exec.StopSlot(id)
			stopped++
		}
	}

	if started+stopped+replaced > 0 {
		s.log.Info("schedule_reconciled",
			zap.Int("started", started),
			zap.Int("stopped", stopped),
			zap.Int("replaced", replaced),
			zap.Int("scheduled", len(desired)),
		)
	}
}
