package domain

import "time"

// HealthcheckResult is one completed probe outcome. The ID is assigned by
// the store on ingestion (never by the agent), which makes redelivery under
// at-least-once retry safe. Results are immutable once written.
type HealthcheckResult struct {
	ID        int64     `json:"id"`
	CheckID   CheckID   `json:"check_id"`
	StartTime time.Time `json:"start_time"`
	ElapsedMS float64   `json:"elapsed_ms"`
	Pass      bool      `json:"pass"`
	Message   string    `json:"message,omitempty"`
}
