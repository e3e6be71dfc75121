package domain

import "time"

type CheckID int64

// Healthcheck is a monitored HTTP endpoint. The ID is assigned by the store
// on creation, is immutable, and is never reused after deletion so result
// history stays unambiguous.
type Healthcheck struct {
	ID        CheckID   `json:"id"`
	Name      string    `json:"name,omitempty"`
	Endpoint  string    `json:"endpoint"`
	Interval  int       `json:"interval"` // seconds between probe starts
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// IntervalDuration returns the probe cadence as a duration.
func (h *Healthcheck) IntervalDuration() time.Duration {
	return time.Duration(h.Interval) * time.Second
}
