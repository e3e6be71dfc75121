package probe

import "context"

// CheckResult is the unified result of a single probe.
//
// StatusCode is the HTTP status when a response arrived; 0 for transport
// errors and timeouts. Message carries the status text or error string and
// is what ends up in the recorded result on failure.
type CheckResult struct {
	Success    bool
	StatusCode int
	LatencyMS  float64
	Message    string
}

// Checker performs a single probe against a target URL.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}
