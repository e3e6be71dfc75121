package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/repo/memory"
)

// ---- test helpers ----

func setupAPI(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()
	srv := NewServer(zap.NewNop(), store, store, 50)
	ts := httptest.NewServer(srv.Router(nil, 0, 0))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func createCheck(t *testing.T, base, endpoint string, interval int, enabled bool) domain.Healthcheck {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, base+"/api/checks", map[string]any{
		"endpoint": endpoint,
		"interval": interval,
		"enabled":  enabled,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create %s: status %d body %s", endpoint, resp.StatusCode, body)
	}
	var h domain.Healthcheck
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("decode check: %v", err)
	}
	return h
}

// ---- tests ----

func TestCreateThenGet(t *testing.T) {
	ts := setupAPI(t)

	h := createCheck(t, ts.URL, "https://example.com/healthz", 5, true)
	if h.ID == 0 {
		t.Fatalf("expected assigned id, got %+v", h)
	}

	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/checks/%d", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d", resp.StatusCode)
	}
	var got domain.Healthcheck
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != h.ID || got.Endpoint != h.Endpoint || got.Interval != h.Interval || got.Enabled != h.Enabled {
		t.Fatalf("mismatch: created=%+v got=%+v", h, got)
	}
}

func TestCreate_InvalidArguments(t *testing.T) {
	ts := setupAPI(t)

	cases := []map[string]any{
		{"endpoint": "", "interval": 5, "enabled": true},
		{"endpoint": "https://example.com", "interval": 0, "enabled": true},
		{"endpoint": "ftp://example.com", "interval": 5, "enabled": true},
	}
	for _, c := range cases {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/checks", c)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("payload %v: want 400, got %d", c, resp.StatusCode)
		}
	}

	// nothing persisted
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/checks", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	var hs []domain.Healthcheck
	if err := json.Unmarshal(body, &hs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hs) != 0 {
		t.Fatalf("invalid create persisted something: %+v", hs)
	}
}

func TestGet_UnknownIs404(t *testing.T) {
	ts := setupAPI(t)
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/checks/99", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
}

func TestEnableDisable_TogglesListing(t *testing.T) {
	ts := setupAPI(t)
	h := createCheck(t, ts.URL, "https://example.com", 5, true)

	listEnabled := func() []domain.Healthcheck {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/checks?enabled=true", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list: status %d", resp.StatusCode)
		}
		var hs []domain.Healthcheck
		if err := json.Unmarshal(body, &hs); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return hs
	}

	if hs := listEnabled(); len(hs) != 1 {
		t.Fatalf("want 1 enabled, got %+v", hs)
	}

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/checks/%d/disable", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("disable: want 204, got %d", resp.StatusCode)
	}
	if len(body) != 0 {
		t.Fatalf("disable must return an empty body, got %s", body)
	}
	if hs := listEnabled(); len(hs) != 0 {
		t.Fatalf("disabled check still listed: %+v", hs)
	}

	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/checks/%d/enable", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enable: want 200, got %d", resp.StatusCode)
	}
	var enabled domain.Healthcheck
	if err := json.Unmarshal(body, &enabled); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !enabled.Enabled {
		t.Fatalf("enable did not flip: %+v", enabled)
	}
	if hs := listEnabled(); len(hs) != 1 {
		t.Fatalf("enabled check missing: %+v", hs)
	}
}

func TestUpdate_PartialNeverTouchesEnabled(t *testing.T) {
	ts := setupAPI(t)
	h := createCheck(t, ts.URL, "https://example.com", 5, true)

	resp, body := doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/checks/%d", ts.URL, h.ID), map[string]any{
		"interval": 60,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d body %s", resp.StatusCode, body)
	}
	var got domain.Healthcheck
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Interval != 60 || got.Endpoint != h.Endpoint || !got.Enabled {
		t.Fatalf("partial update wrong: %+v", got)
	}

	resp, _ = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/checks/%d", ts.URL, h.ID), map[string]any{
		"interval": -1,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad interval: want 400, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPatch, ts.URL+"/api/checks/99", map[string]any{"interval": 5})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown id: want 404, got %d", resp.StatusCode)
	}
}

func TestResultIngestionAndListing(t *testing.T) {
	ts := setupAPI(t)
	h := createCheck(t, ts.URL, "https://example.com", 5, true)

	submit := func(pass bool, msg string, at time.Time) domain.HealthcheckResult {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/results", map[string]any{
			"check_id":   h.ID,
			"start_time": at.Format(time.RFC3339Nano),
			"elapsed_ms": 12.5,
			"pass":       pass,
			"message":    msg,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("submit: status %d body %s", resp.StatusCode, body)
		}
		var r domain.HealthcheckResult
		if err := json.Unmarshal(body, &r); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return r
	}

	base := time.Now().UTC().Truncate(time.Second)
	r1 := submit(true, "200 OK", base)
	r2 := submit(false, "500 Internal Server Error", base.Add(5*time.Second))
	if r1.ID == 0 || r2.ID == 0 || r1.ID == r2.ID {
		t.Fatalf("ids must be assigned and distinct: %d %d", r1.ID, r2.ID)
	}

	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/checks/%d/results", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list results: status %d", resp.StatusCode)
	}
	var rs []domain.HealthcheckResult
	if err := json.Unmarshal(body, &rs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("want 2 results, got %d", len(rs))
	}
	// most-recent-first
	if !rs[0].StartTime.After(rs[1].StartTime) {
		t.Fatalf("results not newest-first: %+v", rs)
	}
	if rs[0].Pass || rs[0].Message == "" {
		t.Fatalf("failed probe must keep pass=false and a message: %+v", rs[0])
	}
}

func TestListResults_UnknownVsEmpty(t *testing.T) {
	ts := setupAPI(t)
	h := createCheck(t, ts.URL, "https://example.com", 5, true)

	// known check, no results yet: empty list, not 404
	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/checks/%d/results", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("empty history: want 200, got %d", resp.StatusCode)
	}
	var rs []domain.HealthcheckResult
	if err := json.Unmarshal(body, &rs); err != nil || len(rs) != 0 {
		t.Fatalf("want empty list, got %s (err %v)", body, err)
	}

	// unknown check: 404
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/checks/99/results", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown check: want 404, got %d", resp.StatusCode)
	}
}

func TestDelete_ReturnsRecordAndKeepsHistory(t *testing.T) {
	ts := setupAPI(t)
	h := createCheck(t, ts.URL, "https://example.com", 5, true)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/results", map[string]any{
		"check_id":   h.ID,
		"start_time": time.Now().UTC().Format(time.RFC3339Nano),
		"elapsed_ms": 3.0,
		"pass":       true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: status %d body %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/checks/%d", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	var last domain.Healthcheck
	if err := json.Unmarshal(body, &last); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if last.ID != h.ID || last.Endpoint != h.Endpoint {
		t.Fatalf("delete must echo the last known record: %+v", last)
	}

	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/checks/%d", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: want 404, got %d", resp.StatusCode)
	}

	// history survives deletion
	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/checks/%d/results", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results after delete: want 200, got %d", resp.StatusCode)
	}
	var rs []domain.HealthcheckResult
	if err := json.Unmarshal(body, &rs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rs) != 1 {
		t.Fatalf("history lost on delete: %+v", rs)
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/checks/%d", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("double delete: want 404, got %d", resp.StatusCode)
	}
}

func TestListChecks_AfterIDPagination(t *testing.T) {
	store := memory.New()
	srv := NewServer(zap.NewNop(), store, store, 2)
	ts := httptest.NewServer(srv.Router(nil, 0, 0))
	defer ts.Close()

	for i := 0; i < 5; i++ {
		createCheck(t, ts.URL, fmt.Sprintf("https://svc-%d.example.com", i), 5, true)
	}

	var all []domain.Healthcheck
	after := int64(0)
	for {
		resp, body := doJSON(t, http.MethodGet,
			fmt.Sprintf("%s/api/checks?limit=100&after_id=%d", ts.URL, after), nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list after %d: status %d", after, resp.StatusCode)
		}
		var page []domain.Healthcheck
		if err := json.Unmarshal(body, &page); err != nil {
			t.Fatalf("decode page: %v", err)
		}
		if len(page) == 0 {
			break
		}
		if len(page) > 2 {
			t.Fatalf("page exceeds server cap: %d", len(page))
		}
		for _, h := range page {
			if int64(h.ID) <= after {
				t.Fatalf("cursor not honored: after=%d got id %d", after, h.ID)
			}
		}
		all = append(all, page...)
		after = int64(page[len(page)-1].ID)
	}
	if len(all) != 5 {
		t.Fatalf("pages do not cover the full set: want 5, got %d", len(all))
	}

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/checks?after_id=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad cursor: want 400, got %d", resp.StatusCode)
	}
}

func TestSummarizeResults(t *testing.T) {
	ts := setupAPI(t)
	h := createCheck(t, ts.URL, "https://example.com", 5, true)

	window := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	submit := func(start time.Time, pass bool) {
		t.Helper()
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/results", map[string]any{
			"check_id":   h.ID,
			"start_time": start.Format(time.RFC3339Nano),
			"elapsed_ms": 4.2,
			"pass":       pass,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("submit: status %d body %s", resp.StatusCode, body)
		}
	}
	// two windows a minute apart: 2 pass / 1 fail, then 1 fail
	submit(window.Add(1*time.Second), true)
	submit(window.Add(2*time.Second), true)
	submit(window.Add(3*time.Second), false)
	submit(window.Add(61*time.Second), false)

	resp, body := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/checks/%d/summary?resolution=minute", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d body %s", resp.StatusCode, body)
	}
	var sums []domain.HealthcheckSummary
	if err := json.Unmarshal(body, &sums); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("want 2 windows, got %+v", sums)
	}
	// newest first
	if !sums[0].TimeWindow.Equal(window.Add(time.Minute)) || sums[0].Pass != 0 || sums[0].Fail != 1 {
		t.Fatalf("newest window wrong: %+v", sums[0])
	}
	if !sums[1].TimeWindow.Equal(window) || sums[1].Pass != 2 || sums[1].Fail != 1 {
		t.Fatalf("older window wrong: %+v", sums[1])
	}
}

func TestSummarizeResults_Errors(t *testing.T) {
	ts := setupAPI(t)
	h := createCheck(t, ts.URL, "https://example.com", 5, true)

	// known check without history is an empty summary, not a 404
	resp, body := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/checks/%d/summary", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("empty summary: status %d", resp.StatusCode)
	}
	var sums []domain.HealthcheckSummary
	if err := json.Unmarshal(body, &sums); err != nil || len(sums) != 0 {
		t.Fatalf("want empty list, got %s (err %v)", body, err)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/checks/9999/summary", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown check: want 404, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/checks/%d/summary?resolution=fortnight", ts.URL, h.ID), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad resolution: want 400, got %d", resp.StatusCode)
	}
}

func TestListLimit_Capped(t *testing.T) {
	store := memory.New()
	srv := NewServer(zap.NewNop(), store, store, 3)
	ts := httptest.NewServer(srv.Router(nil, 0, 0))
	defer ts.Close()

	for i := 0; i < 5; i++ {
		createCheck(t, ts.URL, fmt.Sprintf("https://example.com/%d", i), 5, true)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/checks?limit=100", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	var hs []domain.Healthcheck
	if err := json.Unmarshal(body, &hs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hs) != 3 {
		t.Fatalf("limit not capped to server maximum: got %d", len(hs))
	}
}
