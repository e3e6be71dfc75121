package domain

import (
	"fmt"
	"net/url"
)

// ValidateEndpoint checks that raw is an absolute http(s) URL with a host.
func ValidateEndpoint(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: endpoint is empty", ErrInvalidArgument)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: endpoint %q: %v", ErrInvalidArgument, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: endpoint %q: scheme must be http or https", ErrInvalidArgument, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: endpoint %q: missing host", ErrInvalidArgument, raw)
	}
	return nil
}

// Validate enforces the field constraints shared by create and update.
func (h *Healthcheck) Validate() error {
	if err := ValidateEndpoint(h.Endpoint); err != nil {
		return err
	}
	if h.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidArgument, h.Interval)
	}
	return nil
}
