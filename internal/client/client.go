// Package client is the typed HTTP client for the registry API, used by the
// scheduling agent and the checkctl CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/healthwatch/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Ping verifies the registry is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) GetCheck(ctx context.Context, id domain.CheckID) (*domain.Healthcheck, error) {
	var h domain.Healthcheck
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/checks/%d", id), nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ListChecks lists checks ordered by id, optionally filtered by enabled
// state. afterID > 0 is a pagination cursor (only ids beyond it come back);
// limit <= 0 leaves the page size to the server. The server caps the page
// size, so callers that need the full set must page with afterID until an
// empty page.
func (c *Client) ListChecks(ctx context.Context, enabled *bool, afterID domain.CheckID, limit int) ([]domain.Healthcheck, error) {
	q := url.Values{}
	if enabled != nil {
		q.Set("enabled", strconv.FormatBool(*enabled))
	}
	if afterID > 0 {
		q.Set("after_id", strconv.FormatInt(int64(afterID), 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/checks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var hs []domain.Healthcheck
	if err := c.do(ctx, http.MethodGet, path, nil, &hs); err != nil {
		return nil, err
	}
	return hs, nil
}

func (c *Client) ListResults(ctx context.Context, id domain.CheckID, limit int) ([]domain.HealthcheckResult, error) {
	path := fmt.Sprintf("/api/checks/%d/results", id)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var rs []domain.HealthcheckResult
	if err := c.do(ctx, http.MethodGet, path, nil, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// SummarizeResults fetches pass/fail counts per time window, newest first.
func (c *Client) SummarizeResults(ctx context.Context, id domain.CheckID, res domain.SummaryResolution) ([]domain.HealthcheckSummary, error) {
	path := fmt.Sprintf("/api/checks/%d/summary", id)
	if res != "" {
		path += "?resolution=" + string(res)
	}
	var sums []domain.HealthcheckSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &sums); err != nil {
		return nil, err
	}
	return sums, nil
}

type CreateCheckRequest struct {
	Name     string `json:"name,omitempty"`
	Endpoint string `json:"endpoint"`
	Interval int    `json:"interval"`
	Enabled  bool   `json:"enabled"`
}

func (c *Client) CreateCheck(ctx context.Context, req CreateCheckRequest) (*domain.Healthcheck, error) {
	var h domain.Healthcheck
	if err := c.do(ctx, http.MethodPost, "/api/checks", req, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

type UpdateCheckRequest struct {
	Name     *string `json:"name,omitempty"`
	Endpoint *string `json:"endpoint,omitempty"`
	Interval *int    `json:"interval,omitempty"`
}

func (c *Client) UpdateCheck(ctx context.Context, id domain.CheckID, req UpdateCheckRequest) (*domain.Healthcheck, error) {
	var h domain.Healthcheck
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/checks/%d", id), req, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) DeleteCheck(ctx context.Context, id domain.CheckID) (*domain.Healthcheck, error) {
	var h domain.Healthcheck
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/checks/%d", id), nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) EnableCheck(ctx context.Context, id domain.CheckID) (*domain.Healthcheck, error) {
	var h domain.Healthcheck
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/checks/%d/enable", id), nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// DisableCheck returns no record by contract.
func (c *Client) DisableCheck(ctx context.Context, id domain.CheckID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/checks/%d/disable", id), nil, nil)
}

// SubmitResult delivers one probe outcome. The registry assigns the result
// id, so retrying a failed submission cannot collide.
func (c *Client) SubmitResult(ctx context.Context, r *domain.HealthcheckResult) (*domain.HealthcheckResult, error) {
	var stored domain.HealthcheckResult
	if err := c.do(ctx, http.MethodPost, "/api/results", r, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// do runs one request and decodes into out when out is non-nil. 404 and 400
// map onto the domain sentinels; everything else (transport, 5xx) surfaces
// as a plain, retryable error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	msg := errorMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %s: %w", method, path, msg, domain.ErrNotFound)
	case http.StatusBadRequest:
		return fmt.Errorf("%s %s: %s: %w", method, path, msg, domain.ErrInvalidArgument)
	default:
		return fmt.Errorf("%s %s: registry returned %d: %s", method, path, resp.StatusCode, msg)
	}
}

func errorMessage(r io.Reader) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&e); err != nil || e.Error == "" {
		return "unknown error"
	}
	return e.Error
}
