package domain

import (
	"fmt"
	"time"
)

// SummaryResolution is the bucket width for result summaries.
type SummaryResolution string

const (
	ResolutionSecond SummaryResolution = "second"
	ResolutionMinute SummaryResolution = "minute"
	ResolutionHour   SummaryResolution = "hour"
	ResolutionDay    SummaryResolution = "day"
)

// ParseSummaryResolution validates a query value. Empty defaults to minute.
func ParseSummaryResolution(raw string) (SummaryResolution, error) {
	switch SummaryResolution(raw) {
	case "":
		return ResolutionMinute, nil
	case ResolutionSecond, ResolutionMinute, ResolutionHour, ResolutionDay:
		return SummaryResolution(raw), nil
	}
	return "", fmt.Errorf("%w: resolution %q, want second, minute, hour or day", ErrInvalidArgument, raw)
}

// Truncate rounds t down to the start of its window.
func (r SummaryResolution) Truncate(t time.Time) time.Time {
	switch r {
	case ResolutionSecond:
		return t.Truncate(time.Second)
	case ResolutionMinute:
		return t.Truncate(time.Minute)
	case ResolutionHour:
		return t.Truncate(time.Hour)
	case ResolutionDay:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
	return t
}

// HealthcheckSummary is the pass/fail tally of one time window.
type HealthcheckSummary struct {
	TimeWindow time.Time `json:"time_window"`
	Pass       int64     `json:"pass"`
	Fail       int64     `json:"fail"`
}
