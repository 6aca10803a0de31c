// Package server is a thin HTTP+WebSocket adapter over CodeGraph's core
// components. It exists only so the core's Go interfaces are demonstrably
// callable over the wire (spec.md §6); the frontend/RPC shape itself is
// out of scope (spec.md §1), the way the teacher's pkg/mcp exposes
// pkg/nornicdb.DB as MCP tool calls without that package being the
// deliverable.
//
// Lifecycle:
//  1. Create with New()
//  2. Start with Start()
//  3. Handle requests automatically
//  4. Stop with Stop() for graceful shutdown
//
// Example:
//
//	srv, err := server.New(deps, server.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer srv.Stop(context.Background())
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charlenopires/codegraph/pkg/feedback"
	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/reasoner"
	"github.com/charlenopires/codegraph/pkg/retrieval"
	"github.com/charlenopires/codegraph/pkg/translator"
	"github.com/charlenopires/codegraph/pkg/vectorstore"
)

// Retriever is the subset of retrieval.Retriever's surface the adapter
// depends on, satisfied by both *retrieval.Retriever directly and by
// *retrieval.CachingRetriever, so cmd/codegraph can opt into query
// caching without this package knowing about it.
type Retriever interface {
	Retrieve(ctx context.Context, plan *translator.QueryPlan, limit int, includeReasoning bool) (retrieval.Result, error)
}

// Config controls the HTTP listener. No authentication surface is
// configured here: spec.md §1 explicitly lists authentication as out of
// scope for the core.
type Config struct {
	Address        string
	Port           int
	TLSCertFile    string
	TLSKeyFile     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
}

// DefaultConfig returns CodeGraph's default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:        "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxRequestSize: 10 * 1024 * 1024,
		CORSOrigins:    []string{"*"},
	}
}

// Deps bundles the core components the adapter dispatches to. New rejects
// a nil GraphRepo; Reasoner may be nil, in which case statements are not
// asserted. Any other nil dependency makes the routes that need it answer
// 500 through the recovery middleware.
type Deps struct {
	GraphRepo  graph.Repository
	VectorRepo vectorstore.Repository
	Translator *translator.Translator
	Retriever  Retriever
	Feedback   *feedback.Propagator
	// Reasoner receives upsert_statements' validated statements via
	// Assert, so the symbolic channel's reasoning session has entity
	// facts to derive judgements from beyond a single query's own
	// statements.
	Reasoner *reasoner.Client
}

// ErrServerClosed is returned by Start if the server was already stopped.
var ErrServerClosed = fmt.Errorf("server already closed")

// Server is CodeGraph's HTTP+WebSocket adapter. Safe for concurrent use.
type Server struct {
	config *Config
	deps   Deps

	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener
	started    time.Time
	closed     atomic.Bool

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// New creates a Server. config defaults to DefaultConfig() if nil.
func New(deps Deps, config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if deps.GraphRepo == nil {
		return nil, fmt.Errorf("server requires a graph repository")
	}

	return &Server{
		config: config,
		deps:   deps,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Start binds the configured address/port and begins serving in the
// background. It returns once the listener is bound, not once the server
// stops.
func (s *Server) Start() error {
	if s.closed.Load() {
		return ErrServerClosed
	}

	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.started = time.Now()

	s.httpServer = &http.Server{
		Handler:      s.wrapWithMiddleware(s.buildRouter()),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	go func() {
		var serveErr error
		if s.config.TLSCertFile != "" && s.config.TLSKeyFile != "" {
			serveErr = s.httpServer.ServeTLS(listener, s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			serveErr = s.httpServer.Serve(listener)
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			fmt.Printf("codegraph server error: %v\n", serveErr)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight requests
// to complete or ctx to expire, whichever comes first.
func (s *Server) Stop(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the server's bound listen address, or "" if not started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Stats is a snapshot of request metrics since Start.
type Stats struct {
	Uptime       time.Duration `json:"uptime"`
	RequestCount int64         `json:"request_count"`
	ErrorCount   int64         `json:"error_count"`
}

// Stats returns current server runtime statistics.
func (s *Server) Stats() Stats {
	return Stats{
		Uptime:       time.Since(s.started),
		RequestCount: s.requestCount.Load(),
		ErrorCount:   s.errorCount.Load(),
	}
}
