// Package http is the debug/admin HTTP surface: read-only
// FT.INFO/FT._LIST/FT.TAGVALS/FT.SYNDUMP-equivalent endpoints over a
// command.Manager, plus health and Prometheus metrics. The wire command
// family itself (FT.SEARCH/FT.AGGREGATE/FT.CREATE/...) stays
// transport-agnostic — nothing here parses or dispatches a mutating
// command; this is an observability window, not the command entrypoint.
package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/command"
	"github.com/kailas-cloud/ftsearch/internal/metrics"
)

// Server wires a command.Manager into a chi router.
type Server struct {
	mgr    *command.Manager
	logger *zap.Logger
}

// NewServer creates the debug/admin HTTP surface over mgr.
func NewServer(mgr *command.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{mgr: mgr, logger: logger}
}

// Router builds the chi.Router, optionally behind BearerAuthMiddleware
// when apiKeys is non-empty.
func (s *Server) Router(apiKeys []string) chi.Router {
	metrics.Register()

	r := chi.NewRouter()
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/indexes", s.handleList)
	r.Get("/indexes/{name}", s.handleInfo)
	r.Get("/indexes/{name}/tagvals/{field}", s.handleTagVals)
	r.Get("/indexes/{name}/syndump", s.handleSynDump)
	r.Get("/indexes/{name}/dicts/{dict}", s.handleDictDump)
	r.Get("/indexes/{name}/explain", s.handleExplain)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"indexes": s.mgr.List()})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info, err := s.mgr.Info(name)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleTagVals(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	field := chi.URLParam(r, "field")
	vals, err := s.mgr.TagVals(name, field)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"values": vals})
}

func (s *Server) handleSynDump(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	dump, err := s.mgr.SynDump(name)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dump)
}

func (s *Server) handleDictDump(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	dict := chi.URLParam(r, "dict")
	terms, err := s.mgr.DictDump(name, dict)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"terms": terms})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	q := r.URL.Query().Get("query")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}
	out, err := s.mgr.Explain(name, q)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"plan": out})
}

func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, command.ErrUnknownIndex):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, command.ErrSyntax):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Warn("http transport: command error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
