// Package api serves the moderation proxy and the read-only feed endpoints.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/feed"
	"solana-token-feed/internal/observability"
	"solana-token-feed/internal/storage"
)

// StateSource reports the stream connection state.
type StateSource interface {
	State() domain.ConnectionState
}

// Options configures a Server. Feed is required; the rest are optional and
// disable their endpoints when nil.
type Options struct {
	Feed           *feed.Feed
	State          StateSource
	Decisions      storage.DecisionStore
	Moderator      Moderator
	AllowedOrigins []string
	// ProxyRPS and ProxyBurst bound /api/moderate per client IP.
	ProxyRPS   float64
	ProxyBurst int
	Logger     *log.Logger
	Now        func() time.Time
}

// Server holds the HTTP handlers.
type Server struct {
	feed      *feed.Feed
	state     StateSource
	decisions storage.DecisionStore
	moderator Moderator
	origins   []string
	limiter   *ipLimiter
	logger    *log.Logger
	now       func() time.Time
	startedAt time.Time
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	s := &Server{
		feed:      opts.Feed,
		state:     opts.State,
		decisions: opts.Decisions,
		moderator: opts.Moderator,
		origins:   opts.AllowedOrigins,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if s.feed == nil {
		s.feed = feed.New(feed.DefaultCapacity)
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	rps, burst := opts.ProxyRPS, opts.ProxyBurst
	if rps <= 0 {
		rps = DefaultProxyRPS
	}
	if burst <= 0 {
		burst = DefaultProxyBurst
	}
	s.limiter = newIPLimiter(rps, burst)
	s.startedAt = s.now()
	return s
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.logRequests)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors(s.origins))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(s.limiter.limit).Post("/moderate", s.handleModerate)
		r.Get("/feed", s.handleFeed)
		r.Get("/status", s.handleStatus)
		r.Get("/decisions/stats", s.handleDecisionStats)
		r.Get("/decisions/{mint}", s.handleDecisions)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// logRequests logs one line per request with status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Printf("[api] %s %s %d %s id=%s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), chimiddleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
