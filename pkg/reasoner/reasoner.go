// Package reasoner implements ReasonerClient: a session with an external
// non-axiomatic reasoner addressed over an unreliable datagram transport,
// with a circuit breaker and an internal rule-based substitute for when
// the external process is unavailable.
package reasoner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charlenopires/codegraph/pkg/statement"
)

// Config configures a Client. New replaces zero values of the inference
// and circuit-breaker fields with the defaults named in spec.md §6's
// configuration surface.
type Config struct {
	Enabled                 bool
	Host                    string
	Port                    int
	InferenceCycles         int
	InferenceTimeout        time.Duration
	CircuitBreakerThreshold int
	CircuitResetAfter       time.Duration
}

// DefaultConfig returns the defaults spec.md names for the reasoner surface.
func DefaultConfig() Config {
	return Config{
		Enabled:                 true,
		Host:                    "127.0.0.1",
		Port:                    9050,
		InferenceCycles:         100,
		InferenceTimeout:        200 * time.Millisecond,
		CircuitBreakerThreshold: 5,
		CircuitResetAfter:       30 * time.Second,
	}
}

// QueryResult is what a Query call returns, scoped to one tagged session.
type QueryResult struct {
	DerivedStatements []*statement.Statement
	BestAnswer        *statement.Statement
	DerivedTruths     map[string]derivedTruth // keyed by leaf term
	Degraded          bool                     // true if the external reasoner did not answer
}

type derivedTruth struct {
	F, C float64
}

// Transport sends a session's framed judgements/question to the external
// reasoner and collects tagged derivations within a deadline. Production
// code uses UDPTransport; tests substitute a fake.
type Transport interface {
	// Exchange sends frames (already tagged) and returns every tagged
	// inbound line received before ctx is done. It never returns an error
	// for a plain timeout — that is signalled by an empty, nil-error result.
	Exchange(ctx context.Context, frames []string, tag string) ([]string, error)
	Close() error
}

// circuitState is the internal state of the breaker.
type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
)

// Client owns the lifetime of the external reasoner session. It is safe
// for concurrent use: multiple queries may be in flight, each under its
// own session tag.
type Client struct {
	cfg       Config
	transport Transport
	fallback  *offlineReasoner

	mu                  sync.Mutex
	state               circuitState
	consecutiveFailures int
	openedAt            time.Time
	knowledge           []*statement.Statement
}

// New creates a Client. transport may be nil when cfg.Enabled is false;
// in that case every Query call uses the offline substitute.
func New(cfg Config, transport Transport) *Client {
	d := DefaultConfig()
	if cfg.InferenceCycles <= 0 {
		cfg.InferenceCycles = d.InferenceCycles
	}
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = d.InferenceTimeout
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = d.CircuitBreakerThreshold
	}
	if cfg.CircuitResetAfter <= 0 {
		cfg.CircuitResetAfter = d.CircuitResetAfter
	}
	return &Client{
		cfg:       cfg,
		transport: transport,
		fallback:  newOfflineReasoner(),
	}
}

// Assert adds statements to the client's process-wide knowledge base.
// Every subsequent Query call submits them as judgements alongside that
// call's own transient statements, so entity facts ingested out of band
// (e.g. via upsert_statements) are available for the reasoner to derive
// judgements from, not just the query's own statements.
func (c *Client) Assert(statements []*statement.Statement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.knowledge = append(c.knowledge, statements...)
}

func (c *Client) snapshotKnowledge() []*statement.Statement {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*statement.Statement, len(c.knowledge))
	copy(out, c.knowledge)
	return out
}

// Query runs one reasoning session: it submits the asserted knowledge
// base plus statements as judgements, sends the focal goal/question,
// requests cfg.InferenceCycles, and waits up to cfg.InferenceTimeout for
// tagged derivations. On any failure (circuit open, transport timeout, no
// transport) it falls back to the internal rule-based substitute; the
// reasoner is never authoritative enough to fail the caller's request.
func (c *Client) Query(ctx context.Context, statements []*statement.Statement, focal *statement.Statement) (QueryResult, error) {
	statements = append(c.snapshotKnowledge(), statements...)

	if !c.cfg.Enabled || c.transport == nil || c.circuitOpen() {
		return c.fallback.query(statements, focal), nil
	}

	tag := uuid.NewString()
	frames := encodeSession(statements, focal, c.cfg.InferenceCycles, tag)

	timeoutCtx, cancel := context.WithTimeout(ctx, c.cfg.InferenceTimeout)
	defer cancel()

	lines, err := c.transport.Exchange(timeoutCtx, frames, tag)
	if err != nil {
		c.recordFailure()
		result := c.fallback.query(statements, focal)
		result.Degraded = true
		return result, nil
	}
	if len(lines) == 0 {
		c.recordFailure()
		result := c.fallback.query(statements, focal)
		result.Degraded = true
		return result, nil
	}

	c.recordSuccess()
	return decodeSession(lines, tag)
}

func (c *Client) circuitOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != circuitOpen {
		return false
	}
	if time.Since(c.openedAt) >= c.cfg.CircuitResetAfter {
		c.state = circuitClosed
		c.consecutiveFailures = 0
		return false
	}
	return true
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= c.cfg.CircuitBreakerThreshold {
		c.state = circuitOpen
		c.openedAt = time.Now()
	}
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
	c.state = circuitClosed
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	if c.transport == nil {
		return nil
	}
	return c.transport.Close()
}
