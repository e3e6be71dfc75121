package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
	apimw "github.com/hamed0406/healthwatch/internal/httpapi/middleware"
	"github.com/hamed0406/healthwatch/internal/repo"
)

// Server is the registry façade over the stores. It validates mutations and
// enforces the id invariants; it never schedules anything itself.
type Server struct {
	Logger  *zap.Logger
	Checks  repo.CheckStore
	Results repo.ResultStore

	// ListLimit caps list responses when the caller gives no limit.
	ListLimit int
}

func NewServer(l *zap.Logger, cs repo.CheckStore, rs repo.ResultStore, listLimit int) *Server {
	if listLimit <= 0 {
		listLimit = 50
	}
	return &Server{Logger: l, Checks: cs, Results: rs, ListLimit: listLimit}
}

// Router builds the RPC surface. reqPerMin <= 0 disables rate limiting.
func (s *Server) Router(allowedOrigins []string, reqPerMin, burst int) http.Handler {
	r := chi.NewRouter()

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))
	} else {
		r.Use(cors.AllowAll().Handler)
	}
	r.Use(apimw.RateLimit(reqPerMin, burst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/checks", s.handleListChecks)
		r.Post("/checks", s.handleCreateCheck)
		r.Get("/checks/{id}", s.handleGetCheck)
		r.Patch("/checks/{id}", s.handleUpdateCheck)
		r.Delete("/checks/{id}", s.handleDeleteCheck)
		r.Post("/checks/{id}/enable", s.handleEnableCheck)
		r.Post("/checks/{id}/disable", s.handleDisableCheck)
		r.Get("/checks/{id}/results", s.handleListResults)
		r.Get("/checks/{id}/summary", s.handleSummarizeResults)
		r.Post("/results", s.handleSubmitResult)
	})

	return r
}

// ---- response helpers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps the domain taxonomy onto HTTP statuses. Validation and
// not-found failures go back verbatim; everything else is a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	default:
		s.Logger.Error("store_error", zap.Error(err))
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}

// normalizeHTTPURL lowercases the host and strips default ports and a bare
// trailing slash so equivalent endpoints compare equal in the schedule diff.
func normalizeHTTPURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		// validation rejects these later; don't mangle them here
		return raw
	}
	host := strings.ToLower(u.Host)
	if u.Scheme == "http" {
		host = strings.TrimSuffix(host, ":80")
	}
	if u.Scheme == "https" {
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	out := u.String()
	if u.Path == "/" && u.RawQuery == "" {
		out = strings.TrimSuffix(out, "/")
	}
	return out
}
