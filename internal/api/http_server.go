package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/metrics"
	"backoffice/internal/models"
	"backoffice/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const maxBookingsLimit = 100

// Store is what the ops server reads and writes.
type Store interface {
	Pinger
	ListRecentBookings(ctx context.Context, limit int) ([]*models.Booking, error)
	AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error
}

// HTTPServer is the ops endpoint: health, metrics, the messaging webhook and a read-only bookings API.
type HTTPServer struct {
	store       Store
	redis       *redis.Client
	verifyToken string
	auth        *HTTPAuth
	server      *http.Server
	log         zerolog.Logger
}

// NewHTTPServer builds the router. redisClient may be nil.
func NewHTTPServer(cfg config.APIConfig, store Store, redisClient *redis.Client, logger *zerolog.Logger) *HTTPServer {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "http").Logger()
	}

	s := &HTTPServer{
		store:       store,
		redis:       redisClient,
		verifyToken: cfg.VerifyToken,
		auth:        NewHTTPAuth(cfg),
		log:         log,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", apiKeyHeader},
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/webhook", s.handleWebhookVerify)
	r.Post("/webhook", s.handleWebhookMessage)

	if s.auth.Enabled() {
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Get("/bookings", s.handleBookings)
		})
	}
	return r
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP ops server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	code := http.StatusOK
	resp := map[string]string{"status": "ok", "database": "ok", "redis": "disabled"}

	if err := s.store.Ping(ctx); err != nil {
		code = http.StatusServiceUnavailable
		resp["status"] = "unavailable"
		resp["database"] = err.Error()
	}
	if s.redis != nil {
		// Redis errors are reported but do not fail the probe.
		resp["redis"] = "ok"
		if err := repository.Ping(ctx, s.redis); err != nil {
			resp["redis"] = err.Error()
		}
	}
	writeJSON(w, code, resp)
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	limit := models.RecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxBookingsLimit)
	}

	bookings, err := s.store.ListRecentBookings(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list bookings")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.IncHTTP(route)

		s.log.Debug().
			Str("request_id", uuid.NewString()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", remoteHost(r)).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
