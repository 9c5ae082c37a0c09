// Package server exposes lookups, call ingest, and the event stream over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/ringstreak/internal/call"
	"github.com/sells-group/ringstreak/internal/model"
)

// SecretHeader carries the shared secret on protected routes.
const SecretHeader = "X-Ringstreak-Secret"

// Lookup resolves a phone number.
type Lookup interface {
	Resolve(ctx context.Context, raw string) (*model.LookupResponse, error)
}

// CallHandler handles a call notification.
type CallHandler interface {
	Handle(ctx context.Context, req call.Request) (*model.CallEvent, error)
}

// Config holds HTTP-level settings.
type Config struct {
	SharedSecret string
	CORSOrigins  []string
}

// Server wires the HTTP routes.
type Server struct {
	cfg    Config
	lookup Lookup
	calls  CallHandler
	events http.Handler
	health func() map[string]string
}

// New creates a Server. health may be nil.
func New(cfg Config, lookup Lookup, calls CallHandler, events http.Handler, health func() map[string]string) *Server {
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &Server{cfg: cfg, lookup: lookup, calls: calls, events: events, health: health}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", SecretHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/events", s.events.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSecret)
		r.Get("/lookup", s.handleLookup)
		r.Post("/ingest/call", s.handleIngestCall)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.health != nil {
		body["breakers"] = s.health()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("phone")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	resp, err := s.lookup.Resolve(r.Context(), raw)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		zap.L().Error("lookup failed", zap.String("query", raw), zap.Error(err))
		writeError(w, http.StatusBadGateway, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIngestCall(w http.ResponseWriter, r *http.Request) {
	var req call.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.From == "" && req.To == "" {
		writeError(w, http.StatusBadRequest, "from or to is required")
		return
	}

	ev, err := s.calls.Handle(r.Context(), req)
	switch {
	case errors.Is(err, call.ErrDuplicate):
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "duplicate": true})
	case err != nil:
		if r.Context().Err() != nil {
			return
		}
		zap.L().Error("call ingest failed", zap.String("call_id", req.CallID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "lookup failed")
	default:
		writeJSON(w, http.StatusOK, ev)
	}
}

// requireSecret rejects requests without the shared secret, when one is set.
func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.SharedSecret != "" {
			got := r.Header.Get(SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.SharedSecret)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
