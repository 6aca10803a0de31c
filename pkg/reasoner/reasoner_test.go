package reasoner

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlenopires/codegraph/pkg/statement"
)

// fakeTransport echoes every frame's tag back with a fixed set of
// derivation bodies, simulating a cooperative reasoner process.
type fakeTransport struct {
	derivations []string // bodies only, tag is added per-call
	timeout     bool
	closed      bool
}

func (f *fakeTransport) Exchange(ctx context.Context, frames []string, tag string) ([]string, error) {
	if f.timeout {
		<-ctx.Done()
		return nil, nil
	}
	lines := make([]string, 0, len(f.derivations))
	for _, d := range f.derivations {
		lines = append(lines, frame(tag, d))
	}
	return lines, nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func mustParse(t *testing.T, src string) *statement.Statement {
	t.Helper()
	s, err := statement.Parse(src)
	require.NoError(t, err)
	return s
}

func TestQueryUsesTransportDerivations(t *testing.T) {
	transport := &fakeTransport{derivations: []string{"<widget --> Interactive> {0.8 0.75}"}}
	cfg := DefaultConfig()
	cfg.InferenceTimeout = 50 * time.Millisecond
	client := New(cfg, transport)

	result, err := client.Query(context.Background(), []*statement.Statement{mustParse(t, "<button --> Interactive> {0.9 0.8}")}, nil)
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	require.Contains(t, result.DerivedTruths, "Interactive")
	assert.InDelta(t, 0.8, result.DerivedTruths["Interactive"].F, 1e-9)
}

func TestQueryIgnoresUntaggedDerivations(t *testing.T) {
	transport := &taggedFilterTransport{}
	cfg := DefaultConfig()
	cfg.InferenceTimeout = 50 * time.Millisecond
	client := New(cfg, transport)

	result, err := client.Query(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.DerivedStatements)
}

// taggedFilterTransport returns only a deliberately mistagged line to
// prove decodeSession drops it.
type taggedFilterTransport struct{}

func (taggedFilterTransport) Exchange(ctx context.Context, frames []string, tag string) ([]string, error) {
	return []string{
		fmt.Sprintf("@wrong-tag:<a --> b> {0.9 0.8}"),
	}, nil
}
func (taggedFilterTransport) Close() error { return nil }

func TestQueryFallsBackOnTimeout(t *testing.T) {
	transport := &fakeTransport{timeout: true}
	cfg := DefaultConfig()
	cfg.InferenceTimeout = 20 * time.Millisecond
	client := New(cfg, transport)

	result, err := client.Query(context.Background(), []*statement.Statement{
		mustParse(t, "<button --> Interactive> {0.9 0.8}"),
		mustParse(t, "<Interactive --> Accessible> {0.8 0.8}"),
	}, nil)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	transport := &fakeTransport{timeout: true}
	cfg := DefaultConfig()
	cfg.InferenceTimeout = 5 * time.Millisecond
	cfg.CircuitBreakerThreshold = 2
	cfg.CircuitResetAfter = time.Hour
	client := New(cfg, transport)

	for i := 0; i < 2; i++ {
		_, err := client.Query(context.Background(), nil, nil)
		require.NoError(t, err)
	}

	assert.True(t, client.circuitOpen())
}

func TestDisabledClientAlwaysUsesOffline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	client := New(cfg, nil)

	result, err := client.Query(context.Background(), []*statement.Statement{
		mustParse(t, "<button --> Interactive> {0.9 0.8}"),
	}, nil)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
}

func TestOfflineReasonerChainsInheritanceByDeduction(t *testing.T) {
	o := newOfflineReasoner()
	result := o.query([]*statement.Statement{
		mustParse(t, "<button --> Interactive> {0.9 0.9}"),
		mustParse(t, "<Interactive --> Accessible> {0.8 0.9}"),
	}, nil)

	require.Contains(t, result.DerivedTruths, "Accessible")
}

func TestOfflineReasonerMirrorsSimilarity(t *testing.T) {
	o := newOfflineReasoner()
	result := o.query([]*statement.Statement{
		mustParse(t, "<card <-> tile> {0.7 0.6}"),
	}, nil)

	var found bool
	for _, d := range result.DerivedStatements {
		if d.Shape == statement.ShapeSimilarity && d.Subject.Atom == "tile" && d.Predicate.Atom == "card" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEncodeSessionTagsEveryFrame(t *testing.T) {
	frames := encodeSession([]*statement.Statement{mustParse(t, "<a --> b> {0.5 0.5}")}, mustParse(t, "<a --> b>?"), 50, "sess-1")
	for _, f := range frames {
		assert.True(t, strings.HasPrefix(f, "@sess-1:"))
	}
	assert.Contains(t, frames[len(frames)-1], "CYCLES 50")
}

func TestParseCycles(t *testing.T) {
	n, ok := parseCycles("CYCLES 42")
	require.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = parseCycles("not a cycle request")
	assert.False(t, ok)
}
