// Package web implements status server of the queue consumer
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/cue/app/daemon"
	"github.com/umputun/cue/app/store"
)

// Queue defines the part of queue.Invoker exposed by the server
type Queue interface {
	Queue() string
	Len(ctx context.Context) (int, error)
	Flush(ctx context.Context) error
	History() []string
}

// StatsProvider returns consumer counters, implemented by daemon.Consumer
type StatsProvider interface {
	Stats() daemon.Stats
}

// Peeker lists pending records without removing them, implemented by all store backends
type Peeker interface {
	Peek(ctx context.Context, queue string, limit int) ([]store.Record, error)
}

// Config for the server
type Config struct {
	Version      string
	PasswordHash string  // bcrypt hash for basic auth of mutating endpoints, auth disabled if empty
	FlushLimit   float64 // max flush requests per second per ip, 1 if not set
	Queue        Queue
	Stats        StatsProvider
	Peeker       Peeker   // optional
	TypeIDs      []string // registered command types

	// Host returns host stats for status endpoint, SystemHost if not set
	Host func(ctx context.Context) (HostStats, error)
}

// Server represents the status server
type Server struct {
	Config
	started time.Time
}

// New makes status server
func New(cfg Config) (*Server, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if cfg.Stats == nil {
		return nil, fmt.Errorf("stats provider is required")
	}
	if cfg.FlushLimit <= 0 {
		cfg.FlushLimit = 1
	}
	if cfg.Host == nil {
		cfg.Host = SystemHost
	}
	return &Server{Config: cfg, started: time.Now()}, nil
}

// Run starts the server and blocks until context canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting status server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("status server failed: %w", err)
	}
	return nil
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("cue", "umputun", s.Version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(64*1024),
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	flushLimiter := tollbooth.NewLimiter(s.FlushLimit, nil)
	flushLimiter.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.HandleFunc("GET /status", s.handleStatus)
		api.HandleFunc("GET /history", s.handleHistory)
		api.HandleFunc("GET /pending", s.handlePending)
		api.With(tollbooth.HTTPMiddleware(flushLimiter), s.authMiddleware).HandleFunc("POST /flush", s.handleFlush)
	})

	return router
}
