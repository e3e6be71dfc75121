package repo

import (
	"context"

	"github.com/hamed0406/healthwatch/internal/domain"
)

// CheckPatch carries a partial update; nil fields are left unchanged.
// Enabled is deliberately absent: toggling goes through SetEnabled so it
// cannot race with a partial field edit.
type CheckPatch struct {
	Name     *string
	Endpoint *string
	Interval *int
}

// ListFilter narrows List. Limit <= 0 means the store's default cap.
// AfterID is a pagination cursor: only checks with a strictly greater id
// are returned, so a caller can walk the full set in id order across
// size-capped pages.
type ListFilter struct {
	Enabled *bool
	AfterID domain.CheckID
	Limit   int
}

// DefaultSummaryWindows bounds SummarizeByCheck when the caller gives no
// window count.
const DefaultSummaryWindows = 60

// Ports (interfaces) — swap in any DB adapter later.
type CheckStore interface {
	// Get returns domain.ErrNotFound for unknown ids.
	Get(ctx context.Context, id domain.CheckID) (*domain.Healthcheck, error)
	// List returns matching checks ordered by id ascending.
	List(ctx context.Context, f ListFilter) ([]*domain.Healthcheck, error)
	// Create assigns a fresh monotonic id and sets it on h.
	Create(ctx context.Context, h *domain.Healthcheck) error
	Update(ctx context.Context, id domain.CheckID, p CheckPatch) (*domain.Healthcheck, error)
	SetEnabled(ctx context.Context, id domain.CheckID, enabled bool) (*domain.Healthcheck, error)
	// Delete removes the check and returns its last known state.
	// Result history is left in place.
	Delete(ctx context.Context, id domain.CheckID) (*domain.Healthcheck, error)
}

type ResultStore interface {
	// Append assigns a fresh id and sets it on r.
	Append(ctx context.Context, r *domain.HealthcheckResult) error
	// ListByCheck returns up to limit results ordered by start time, most
	// recent first. An unknown or deleted check id yields an empty slice,
	// not an error.
	ListByCheck(ctx context.Context, id domain.CheckID, limit int) ([]*domain.HealthcheckResult, error)
	// SummarizeByCheck buckets a check's results into resolution-sized
	// windows and returns pass/fail counts for the newest windows, most
	// recent first. windows <= 0 means DefaultSummaryWindows.
	SummarizeByCheck(ctx context.Context, id domain.CheckID, res domain.SummaryResolution, windows int) ([]*domain.HealthcheckSummary, error)
}
