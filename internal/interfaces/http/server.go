package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/garprun/garprun/internal/persistence"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Server exposes completed screening runs over a read-only JSON API,
// Prometheus metrics, and a websocket progress stream.
type Server struct {
	router  *mux.Router
	server  *http.Server
	runs    persistence.RunsRepo
	metrics *MetricsRegistry
	hub     *Hub
	started time.Time
}

// NewServer wires the router. The runs repo may be nil when no database
// is configured; run endpoints then answer 503.
func NewServer(listen string, runs persistence.RunsRepo, metrics *MetricsRegistry, hub *Hub) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		runs:    runs,
		metrics: metrics,
		hub:     hub,
		started: time.Now(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	s.router.Handle("/ws/progress", s.hub).Methods("GET")

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/api/v1/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/api/v1/runs/{id}", s.handleGetRun).Methods("GET")

	s.router.NotFoundHandler = jsonContentTypeMiddleware(http.HandlerFunc(s.handleNotFound))
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until Shutdown or a listener error.
func (s *Server) Start() error {
	log.Info().Str("listen", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		requestID, _ := r.Context().Value(requestIDKey).(string)
		log.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures the status code for request logging.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
