// Package http provides the registry's HTTP surfaces: a Fetcher for listing
// pages and a chi server with the search UI and JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/prgi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout is the time given for outstanding requests to finish
// before the server shuts down.
const ShutdownTimeout = 5 * time.Second

// Server serves the search UI and the JSON API over HTTP.
type Server struct {
	server *http.Server
	router *chi.Mux

	// Addr is the bind address, e.g. ":8080".
	Addr string

	// Services used by the handlers.
	RecordService prgi.RecordService

	// Exporters by format name ("csv", "json").
	Exporters map[string]prgi.Exporter

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	Logger *slog.Logger
}

// NewServer returns a new Server with routes registered. Fields must be set
// before the server handles requests.
func NewServer() *Server {
	s := &Server{
		router: chi.NewRouter(),
		Logger: slog.New(slog.DiscardHandler),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/metrics", s.handleMetrics)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/records", s.handleFindRecords)
		r.Get("/records/export", s.handleExportRecords)
		r.Get("/stats", s.handleStats)
		r.Get("/values/{field}", s.handleDistinctValues)
	})

	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on Addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server.Addr = s.Addr

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Logger.Info("listening", "addr", s.Addr)
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.MetricsHandler == nil {
		http.NotFound(w, r)
		return
	}
	s.MetricsHandler.ServeHTTP(w, r)
}

// errorStatus maps application error codes to HTTP status codes.
var errorStatus = map[string]int{
	prgi.ECONFLICT:    http.StatusConflict,
	prgi.EINVALID:     http.StatusBadRequest,
	prgi.ENOTFOUND:    http.StatusNotFound,
	prgi.EUNAVAILABLE: http.StatusServiceUnavailable,
	prgi.EINTERNAL:    http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := errorStatus[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// Error writes err as a JSON error response. Internal errors are logged.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	code, message := prgi.ErrorCode(err), prgi.ErrorMessage(err)
	if code == prgi.EINTERNAL || code == prgi.EUNAVAILABLE {
		s.Logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	}
	writeJSON(w, ErrorStatusCode(code), &errorResponse{Error: message})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
