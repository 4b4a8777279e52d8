package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
	"github.com/JakeFAU/particle-harvester/internal/metrics"
	"github.com/JakeFAU/particle-harvester/internal/pipeline"
)

// maxRequestBody bounds POST /v1/requests payloads.
const maxRequestBody = 1 << 20

// Pipeline is the subset of *pipeline.Pipeline the server drives.
type Pipeline interface {
	// Submit enqueues req and reports the ID the pipeline assigned it.
	Submit(req crawler.WorkRequest) (string, error)
	Stats() crawler.Stats
	Draining() bool
}

// CategoryLister reports the routable categories.
type CategoryLister interface {
	Categories() []string
}

// Options tunes optional server behavior.
type Options struct {
	// APIKey, when set, guards the /v1 routes.
	APIKey string
	// RequestTimeout bounds handler execution; zero means 60s.
	RequestTimeout time.Duration
}

// Server wires HTTP handlers to the pipeline.
type Server struct {
	router     chi.Router
	pipeline   Pipeline
	categories CategoryLister
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(p Pipeline, categories CategoryLister, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	metrics.Init()
	s := &Server{
		pipeline:   p,
		categories: categories,
		logger:     logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(opts.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if opts.APIKey != "" {
			r.Use(apiKeyMiddleware(opts.APIKey))
		}
		r.Get("/stats", s.stats)
		r.Get("/categories", s.listCategories)
		r.Post("/requests", s.submitRequest)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.pipeline.Draining() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.pipeline.Stats())
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"categories": s.categories.Categories()})
}

type submitPayload struct {
	Method      string              `json:"method"`
	Category    string              `json:"category"`
	URL         string              `json:"url"`
	Body        json.RawMessage     `json:"body"`
	Header      map[string][]string `json:"header"`
	Passthrough map[string]string   `json:"passthrough"`
}

func (s *Server) submitRequest(w http.ResponseWriter, r *http.Request) {
	var in submitPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !s.routable(in.Category) {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("no parser registered for category %q", in.Category))
		return
	}
	req := in.toWorkRequest()
	id, err := s.pipeline.Submit(req)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrDraining):
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, crawler.ErrInvalidRequest):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "category": req.Category, "id": id})
}

func (s *Server) routable(category string) bool {
	for _, c := range s.categories.Categories() {
		if c == category {
			return true
		}
	}
	return false
}

func (in submitPayload) toWorkRequest() crawler.WorkRequest {
	req := crawler.WorkRequest{
		Method:   crawler.Method(strings.TrimSpace(in.Method)),
		Category: strings.TrimSpace(in.Category),
		URL:      strings.TrimSpace(in.URL),
	}
	if len(in.Body) > 0 && string(in.Body) != "null" {
		req.Body = append([]byte(nil), in.Body...)
	}
	if len(in.Header) > 0 {
		req.Header = http.Header{}
		for k, values := range in.Header {
			for _, v := range values {
				req.Header.Add(k, v)
			}
		}
	}
	if len(in.Passthrough) > 0 {
		req.Passthrough = crawler.Passthrough(in.Passthrough).Clone()
	}
	return req
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("http_request_id", requestID(r.Context())),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "unauthorized"}, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, payload, s.logger)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}
