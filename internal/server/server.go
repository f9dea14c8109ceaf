package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sozercan/insight-gateway/apimodels"
	"github.com/sozercan/insight-gateway/internal/analyzer"
	"github.com/sozercan/insight-gateway/internal/auth"
	"github.com/sozercan/insight-gateway/internal/config"
	"github.com/sozercan/insight-gateway/internal/logger"
	"github.com/sozercan/insight-gateway/internal/metrics"
)

// Generator produces aggregated insights for a request.
type Generator interface {
	Generate(ctx context.Context, req apimodels.GenerateRequest) *analyzer.Insights
}

type Server struct {
	cfg       config.ServerConfig
	router    *chi.Mux
	server    *http.Server
	generator Generator
	gate      *auth.Gate
	logger    logger.Logger
}

func New(cfg config.Config, generator Generator, validator auth.Validator, log logger.Logger) *Server {
	s := &Server{
		cfg:       cfg.Server,
		router:    chi.NewRouter(),
		generator: generator,
		logger:    log.With(map[string]interface{}{"component": "http"}),
	}
	s.gate = auth.NewGate(validator, cfg.Auth.BypassPaths, log)

	s.setupRoutes(cfg.CORS)

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes(corsCfg config.CORSConfig) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoverer)
	s.router.Use(cors.Handler(corsOptions(corsCfg.AllowedOrigins)))
	s.router.Use(s.gate.Middleware)

	s.router.Get("/", s.handleRoot)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/user", s.handleUser)
	s.router.Get("/user/", s.handleUser)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
	})
}

// corsOptions allows credentialed requests. A "*" origin list echoes the
// request origin instead of answering "*".
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if slices.Contains(origins, "*") {
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	}
	return opts
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Capture the status code for logs and metrics
		rw := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(rw, r)

		if rw.status == 0 {
			rw.status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()

		s.logger.Info("HTTP request completed", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.status,
			"duration":    time.Since(start).String(),
			"remote_addr": r.RemoteAddr,
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}

// recoverer converts a panic anywhere below it into the generic JSON 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("panic while serving request", map[string]interface{}{
				"path":       r.URL.Path,
				"panic":      fmt.Sprint(rec),
				"request_id": middleware.GetReqID(r.Context()),
			})
			writeInternalError(w)
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Run() error {
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("Starting server", map[string]interface{}{"address": s.server.Addr})
		serverErrors <- s.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		s.logger.Info("Starting shutdown", map[string]interface{}{"signal": sig.String()})

		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	return nil
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
