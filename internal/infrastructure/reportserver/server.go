package reportserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
)

const shutdownTimeout = 5 * time.Second

// Renderer turns a stored report into Markdown.
type Renderer interface {
	Render(report *entity.RunReport) ([]byte, error)
}

// Server exposes stored runs read-only:
//
//	GET /runs           summaries, newest first (?limit=N)
//	GET /runs/{id}      full report as JSON
//	GET /runs/{id}.md   report rendered as Markdown
type Server struct {
	runs     output.RunStore
	renderer Renderer
	logger   output.LoggerPort
	router   chi.Router
}

func New(runs output.RunStore, renderer Renderer, logger output.LoggerPort) *Server {
	s := &Server{
		runs:     runs,
		renderer: renderer,
		logger:   logger.Named("reportserver"),
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(httplog.NewLogger("browser-commander", httplog.Options{JSON: true})))
	r.Use(middleware.Recoverer)

	r.Get("/runs", s.listRuns)
	r.Get("/runs/{id}", s.getRun)
	s.router = r

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("report server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("report server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	markdown := strings.HasSuffix(id, ".md")
	id = strings.TrimSuffix(id, ".md")

	report, err := s.runs.GetRun(r.Context(), id)
	if errors.Is(err, entity.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("get run failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get run failed")
		return
	}

	if !markdown {
		writeJSON(w, http.StatusOK, report)
		return
	}

	md, err := s.renderer.Render(report)
	if err != nil {
		s.logger.Error("render run failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(md)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
