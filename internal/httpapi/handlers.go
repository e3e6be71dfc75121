package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/repo"
)

func idParam(r *http.Request) (domain.CheckID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return domain.CheckID(id), true
}

func (s *Server) limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.ListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > s.ListLimit {
		return s.ListLimit
	}
	return n
}

func (s *Server) handleGetCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid id")
		return
	}
	h, err := s.Checks.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	f := repo.ListFilter{Limit: s.limitParam(r)}
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid enabled filter")
			return
		}
		f.Enabled = &v
	}
	if raw := r.URL.Query().Get("after_id"); raw != "" {
		after, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || after < 0 {
			writeErrorMsg(w, http.StatusBadRequest, "invalid after_id cursor")
			return
		}
		f.AfterID = domain.CheckID(after)
	}
	hs, err := s.Checks.List(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if hs == nil {
		hs = []*domain.Healthcheck{}
	}
	writeJSON(w, http.StatusOK, hs)
}

// handleListResults distinguishes "no results yet" from "unknown check":
// a check that never existed and has no history is a 404, while results of
// a deleted check stay queryable.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid id")
		return
	}
	rs, err := s.Results.ListByCheck(r.Context(), id, s.limitParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(rs) == 0 {
		if _, err := s.Checks.Get(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if rs == nil {
		rs = []*domain.HealthcheckResult{}
	}
	writeJSON(w, http.StatusOK, rs)
}

// handleSummarizeResults buckets a check's history into fixed windows and
// returns pass/fail counts, newest window first. Same not-found semantics
// as the raw result listing.
func (s *Server) handleSummarizeResults(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid id")
		return
	}
	res, err := domain.ParseSummaryResolution(r.URL.Query().Get("resolution"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	sums, err := s.Results.SummarizeByCheck(r.Context(), id, res, repo.DefaultSummaryWindows)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(sums) == 0 {
		if _, err := s.Checks.Get(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if sums == nil {
		sums = []*domain.HealthcheckSummary{}
	}
	writeJSON(w, http.StatusOK, sums)
}

type createPayload struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Interval int    `json:"interval"`
	Enabled  bool   `json:"enabled"`
}

func (s *Server) handleCreateCheck(w http.ResponseWriter, r *http.Request) {
	var p createPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad payload")
		return
	}

	h := &domain.Healthcheck{
		Name:     p.Name,
		Endpoint: normalizeHTTPURL(p.Endpoint),
		Interval: p.Interval,
		Enabled:  p.Enabled,
	}
	if err := h.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Checks.Create(r.Context(), h); err != nil {
		s.writeError(w, err)
		return
	}

	s.Logger.Info("check_created",
		zap.Int64("id", int64(h.ID)),
		zap.String("endpoint", h.Endpoint),
		zap.Int("interval", h.Interval),
		zap.Bool("enabled", h.Enabled),
	)
	writeJSON(w, http.StatusCreated, h)
}

type updatePayload struct {
	Name     *string `json:"name"`
	Endpoint *string `json:"endpoint"`
	Interval *int    `json:"interval"`
}

func (s *Server) handleUpdateCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid id")
		return
	}
	var p updatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad payload")
		return
	}

	if p.Endpoint != nil {
		norm := normalizeHTTPURL(*p.Endpoint)
		if err := domain.ValidateEndpoint(norm); err != nil {
			s.writeError(w, err)
			return
		}
		p.Endpoint = &norm
	}
	if p.Interval != nil && *p.Interval <= 0 {
		writeErrorMsg(w, http.StatusBadRequest, "interval must be positive")
		return
	}

	h, err := s.Checks.Update(r.Context(), id, repo.CheckPatch{
		Name:     p.Name,
		Endpoint: p.Endpoint,
		Interval: p.Interval,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Logger.Info("check_updated", zap.Int64("id", int64(id)))
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid id")
		return
	}
	h, err := s.Checks.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Logger.Info("check_deleted", zap.Int64("id", int64(id)))
	// last known record, for audit
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleEnableCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid id")
		return
	}
	h, err := s.Checks.SetEnabled(r.Context(), id, true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Logger.Info("check_enabled", zap.Int64("id", int64(id)))
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDisableCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := s.Checks.SetEnabled(r.Context(), id, false); err != nil {
		s.writeError(w, err)
		return
	}
	s.Logger.Info("check_disabled", zap.Int64("id", int64(id)))
	// empty acknowledgement by contract; callers must not expect the record
	w.WriteHeader(http.StatusNoContent)
}

type submitResultPayload struct {
	CheckID   domain.CheckID `json:"check_id"`
	StartTime time.Time      `json:"start_time"`
	ElapsedMS float64        `json:"elapsed_ms"`
	Pass      bool           `json:"pass"`
	Message   string         `json:"message"`
}

// handleSubmitResult is the ingestion path for agent-produced results. It
// accepts results for checks that were deleted mid-flight: completed work
// is recorded regardless.
func (s *Server) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	var p submitResultPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad payload")
		return
	}
	if p.CheckID <= 0 {
		writeErrorMsg(w, http.StatusBadRequest, "check_id is required")
		return
	}
	if p.StartTime.IsZero() {
		writeErrorMsg(w, http.StatusBadRequest, "start_time is required")
		return
	}

	res := &domain.HealthcheckResult{
		CheckID:   p.CheckID,
		StartTime: p.StartTime.UTC(),
		ElapsedMS: p.ElapsedMS,
		Pass:      p.Pass,
		Message:   p.Message,
	}
	if err := s.Results.Append(r.Context(), res); err != nil {
		s.writeError(w, err)
		return
	}

	s.Logger.Debug("result_recorded",
		zap.Int64("check_id", int64(p.CheckID)),
		zap.Bool("pass", p.Pass),
	)
	writeJSON(w, http.StatusCreated, res)
}
