package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/repo"
)

var _ repo.CheckStore = (*Store)(nil)
var _ repo.ResultStore = (*Store)(nil)

// DefaultListLimit caps List/ListByCheck when the caller gives no limit.
const DefaultListLimit = 50

// Store is an in-memory adapter for dev and tests. Ids are monotonic and
// never reused after deletion, matching the postgres adapter.
type Store struct {
	mu           sync.RWMutex
	checks       map[domain.CheckID]*domain.Healthcheck
	results      map[domain.CheckID][]*domain.HealthcheckResult
	nextCheckID  domain.CheckID
	nextResultID int64
}

func New() *Store {
	return &Store{
		checks:      make(map[domain.CheckID]*domain.Healthcheck),
		results:     make(map[domain.CheckID][]*domain.HealthcheckResult),
		nextCheckID: 1,
	}
}

func (m *Store) Get(ctx context.Context, id domain.CheckID) (*domain.Healthcheck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.checks[id]
	if !ok {
		return nil, fmt.Errorf("get check %d: %w", id, domain.ErrNotFound)
	}
	cp := *h
	return &cp, nil
}

func (m *Store) List(ctx context.Context, f repo.ListFilter) ([]*domain.Healthcheck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Healthcheck, 0, len(m.checks))
	for _, h := range m.checks {
		if h.ID <= f.AfterID {
			continue
		}
		if f.Enabled != nil && h.Enabled != *f.Enabled {
			continue
		}
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) Create(ctx context.Context, h *domain.Healthcheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = m.nextCheckID
	m.nextCheckID++
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	cp := *h
	m.checks[h.ID] = &cp
	return nil
}

func (m *Store) Update(ctx context.Context, id domain.CheckID, p repo.CheckPatch) (*domain.Healthcheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.checks[id]
	if !ok {
		return nil, fmt.Errorf("update check %d: %w", id, domain.ErrNotFound)
	}
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Endpoint != nil {
		h.Endpoint = *p.Endpoint
	}
	if p.Interval != nil {
		h.Interval = *p.Interval
	}
	cp := *h
	return &cp, nil
}

func (m *Store) SetEnabled(ctx context.Context, id domain.CheckID, enabled bool) (*domain.Healthcheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.checks[id]
	if !ok {
		return nil, fmt.Errorf("set enabled on check %d: %w", id, domain.ErrNotFound)
	}
	h.Enabled = enabled
	cp := *h
	return &cp, nil
}

func (m *Store) Delete(ctx context.Context, id domain.CheckID) (*domain.Healthcheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.checks[id]
	if !ok {
		return nil, fmt.Errorf("delete check %d: %w", id, domain.ErrNotFound)
	}
	delete(m.checks, id)
	// results stay: history survives deletion
	cp := *h
	return &cp, nil
}

func (m *Store) Append(ctx context.Context, r *domain.HealthcheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextResultID++
	r.ID = m.nextResultID
	cp := *r
	m.results[r.CheckID] = append(m.results[r.CheckID], &cp)
	return nil
}

func (m *Store) ListByCheck(ctx context.Context, id domain.CheckID, limit int) ([]*domain.HealthcheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rs := m.results[id]
	out := make([]*domain.HealthcheckResult, 0, len(rs))
	for _, r := range rs {
		cp := *r
		out = append(out, &cp)
	}
	// arrival order is not start order under redelivery; sort like the
	// postgres adapter does
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) SummarizeByCheck(ctx context.Context, id domain.CheckID, res domain.SummaryResolution, windows int) ([]*domain.HealthcheckSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if windows <= 0 {
		windows = repo.DefaultSummaryWindows
	}

	buckets := make(map[time.Time]*domain.HealthcheckSummary)
	for _, r := range m.results[id] {
		w := res.Truncate(r.StartTime)
		b, ok := buckets[w]
		if !ok {
			b = &domain.HealthcheckSummary{TimeWindow: w}
			buckets[w] = b
		}
		if r.Pass {
			b.Pass++
		} else {
			b.Fail++
		}
	}

	out := make([]*domain.HealthcheckSummary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeWindow.After(out[j].TimeWindow) })
	if len(out) > windows {
		out = out[:windows]
	}
	return out, nil
}
