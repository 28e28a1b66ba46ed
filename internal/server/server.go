// Package server provides the HTTP API for Vaani.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/config"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/embedding"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/extract"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/indexer"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/llm"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/metrics"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/retrieval"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/storage"
	"github.com/riyaaaa19/Bajaj-Vaani/internal/watcher"
	"go.uber.org/zap"
)

// WatchService reports folder watching progress for the status endpoint.
type WatchService interface {
	Stats() watcher.Stats
}

// Dependencies are the collaborators the HTTP handlers use. Ledger, Answerer, Metrics and
// Watch may be nil.
type Dependencies struct {
	Engine    *retrieval.Engine
	Indexer   *indexer.Indexer
	Ledger    storage.DocumentStore
	Embedder  embedding.Embedder
	Answerer  *llm.Answerer
	Extractor *extract.Extractor
	Fetcher   *extract.Fetcher
	Metrics   *metrics.Metrics
	Watch     WatchService
}

// Server is the HTTP server for the Vaani API.
type Server struct {
	Dependencies
	config *config.Config
	logger *zap.Logger
	pool   *ants.Pool
	server *http.Server
}

// NewServer creates a server. The question pool is sized by cfg.Workers.
func NewServer(cfg *config.Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.NewExtractor()
	}
	if deps.Fetcher == nil {
		deps.Fetcher = extract.NewFetcher(cfg.FetchTimeout(), cfg.MaxUploadBytes)
	}
	if deps.Answerer == nil {
		deps.Answerer = llm.NewAnswerer(nil)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = indexer.DefaultWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create question pool: %w", err)
	}
	return &Server{Dependencies: deps, config: cfg, logger: logger, pool: pool}, nil
}

// Router returns the HTTP handler with every route and middleware installed.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/documents", s.handleListDocuments)
		r.Post("/clauses", s.handleIngestClauses)
		r.Post("/query", s.handleQuery)
		r.Post("/ask", s.handleAsk)
		r.Post("/run", s.handleRun)
		r.Post("/compare", s.handleCompare)
		r.Post("/rebuild", s.handleRebuild)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server and releases the question pool.
func (s *Server) Stop(ctx context.Context) error {
	defer s.pool.Release()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestID tags every request with an X-Request-ID, reusing the caller's when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
