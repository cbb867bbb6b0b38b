// Package server is the thin HTTP request layer: it parses query parameters,
// dispatches to the pipeline and writes the per-identifier results.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/korolevd/textifier/internal/label"
	"github.com/korolevd/textifier/internal/model"
	"github.com/korolevd/textifier/internal/normalize"
	"github.com/korolevd/textifier/internal/pipeline"
)

// Server handles textify requests over HTTP.
type Server struct {
	pipe     *pipeline.Pipeline
	store    *label.Store
	defaults model.DefaultsConfig
	log      *log.Logger
	sweepCh  chan struct{}
}

// New creates a server. store may be nil (no background label sweeping).
func New(pipe *pipeline.Pipeline, store *label.Store, defaults model.DefaultsConfig, logger *log.Logger) *Server {
	return &Server{
		pipe:     pipe,
		store:    store,
		defaults: defaults,
		log:      logger,
		sweepCh:  make(chan struct{}, 1),
	}
}

// Router mounts the API routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleTextify)
	r.Get("/healthz", s.handleHealth)
	return r
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("listening", "addr", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// handleTextify serves GET /?id=Q42,Q2&format=text&lang=en&pid=P31 plus the
// external_ids, references, all_ranks and fallback_lang switches.
func (s *Server) handleTextify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ids := splitList(q.Get("id"))
	if len(ids) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("ID is missing"))
		return
	}

	format, err := pipeline.ParseFormat(q.Get("format"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}

	lang := q.Get("lang")
	if lang == "" {
		lang = s.defaults.Lang
	}
	fallback := q.Get("fallback_lang")
	if fallback == "" {
		fallback = s.defaults.FallbackLang
	}

	req := pipeline.Request{
		IDs:          ids,
		Format:       format,
		Lang:         lang,
		FallbackLang: fallback,
		Options: normalize.Options{
			IncludeExternalIDs: boolParam(q.Get("external_ids"), true),
			IncludeReferences:  boolParam(q.Get("references"), false),
			AllRanks:           boolParam(q.Get("all_ranks"), false),
			PropertyFilter:     splitList(q.Get("pid")),
		},
	}

	result, err := s.pipe.Textify(r.Context(), req)
	if err != nil {
		s.log.Error("textify failed", "ids", ids, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	if len(ids) == 1 && result[ids[0]] == nil {
		writeJSON(w, http.StatusNotFound, errorBody("ID not found"))
		return
	}

	writeJSON(w, http.StatusOK, result)
	s.sweepLabels()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sweepLabels expires and evicts stale label rows in the background, at most
// one sweep in flight.
func (s *Server) sweepLabels() {
	if s.store == nil {
		return
	}
	select {
	case s.sweepCh <- struct{}{}:
	default:
		return
	}
	go func() {
		defer func() { <-s.sweepCh }()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		removed, err := s.store.Sweep(ctx)
		if err != nil {
			s.log.Warn("label sweep failed", "err", err)
			return
		}
		if removed > 0 {
			s.log.Debug("label sweep", "removed", removed)
		}
	}()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolParam(s string, def bool) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return def
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("json encode failed", "err", err)
	}
}

type errResponse struct {
	Detail string `json:"detail"`
}

func errorBody(msg string) errResponse {
	return errResponse{Detail: msg}
}
