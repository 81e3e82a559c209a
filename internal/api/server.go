package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/dgallion1/mdast/internal/cache"
	"github.com/dgallion1/mdast/internal/config"
	"github.com/dgallion1/mdast/internal/emitter"
	"github.com/dgallion1/mdast/internal/metrics"
	"github.com/dgallion1/mdast/internal/parser"
	"github.com/dgallion1/mdast/internal/pipeline"
	"github.com/dgallion1/mdast/internal/session"
	"github.com/dgallion1/mdast/internal/stats"
)

// Server is the HTTP API server for mdast.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	sessions     *session.Store
	cache        *cache.Cache
	stats        *stats.ParseStats
	validate     *validator.Validate
	log          *slog.Logger
	cfg          config.Config

	mu      sync.Mutex
	parsers map[emitter.Options]*parser.MarkdownParser
}

// NewServer creates and configures the HTTP server. The cache may be nil.
func NewServer(orch *pipeline.Orchestrator, sessions *session.Store, c *cache.Cache, st *stats.ParseStats, log *slog.Logger, cfg config.Config) *Server {
	if st == nil {
		st = stats.New(time.Hour)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		orchestrator: orch,
		sessions:     sessions,
		cache:        c,
		stats:        st,
		validate:     validator.New(),
		log:          log,
		cfg:          cfg,
		parsers:      make(map[emitter.Options]*parser.MarkdownParser),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		if s.cfg.RateLimit > 0 {
			r.Use(RateLimit(rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)))
		}

		r.Post("/api/parse", s.handleParse)
		r.Post("/api/outline", s.handleOutline)
		r.Post("/api/parse/batch", s.handleBatchParse)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/result", s.handleJobResult)

		r.Route("/api/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Post("/{sessionID}/chunks", s.handleAppendChunk)
			r.Get("/{sessionID}/tree", s.handleSessionTree)
			r.Delete("/{sessionID}", s.handleDeleteSession)
		})

		r.Get("/api/stats/parse", s.handleParseStats)
	})

	s.router = r
}

// parserFor returns the shared parser for opts, building it on first use.
func (s *Server) parserFor(opts emitter.Options) *parser.MarkdownParser {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parsers[opts]
	if !ok {
		p = parser.NewMarkdownParser(opts, s.log)
		s.parsers[opts] = p
	}
	return p
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
