package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlenopires/codegraph/pkg/cgerr"
	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/statement"
	"github.com/charlenopires/codegraph/pkg/telemetry"
	"github.com/charlenopires/codegraph/pkg/translator"
)

// FusionWeights are the three channel coefficients. They are configured
// once at service start and held fixed within a request; a request may
// renormalise them when a channel is unhealthy.
type FusionWeights struct {
	Vector   float64
	Graph    float64
	Symbolic float64
}

// DefaultFusionWeights returns spec.md §4.5's fixed weights.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Vector: 0.4, Graph: 0.3, Symbolic: 0.3}
}

func (w FusionWeights) sum() float64 { return w.Vector + w.Graph + w.Symbolic }

// Config configures a Retriever.
type Config struct {
	Weights           FusionWeights
	PerChannelTimeout time.Duration
	DefaultLimit      int
}

// DefaultConfig returns the defaults named in spec.md §6.
func DefaultConfig() Config {
	return Config{
		Weights:           DefaultFusionWeights(),
		PerChannelTimeout: 500 * time.Millisecond,
		DefaultLimit:      10,
	}
}

// Retriever is HybridRetriever: it fans the QueryPlan out to every
// Channel concurrently, fuses their scores, and returns a ranked result.
type Retriever struct {
	cfg      Config
	repo     graph.Repository
	channels []Channel
}

// New creates a Retriever over the given channels. Channels are scored in
// the order given but run concurrently; Health is consulted to decide
// whether a channel's weight participates in fusion. repo is consulted
// once per candidate, after fusion, to populate CandidateScore.Truth from
// the entity's stored confidence (spec.md §3's tie-break); a lookup
// failure (e.g. a candidate id the graph no longer holds) leaves Truth at
// its zero value rather than failing the request.
func New(cfg Config, repo graph.Repository, channels ...Channel) *Retriever {
	return &Retriever{cfg: cfg, repo: repo, channels: channels}
}

type channelOutcome struct {
	reason  Reason
	scores  []channelScore
	healthy bool
}

// Retrieve runs the three channels concurrently, each bounded by
// cfg.PerChannelTimeout, fuses their scores, and truncates to limit. If
// limit is non-positive, cfg.DefaultLimit is used. Returns
// cgerr.ErrRetrievalUnavailable only when every channel is unhealthy.
func (r *Retriever) Retrieve(ctx context.Context, plan *translator.QueryPlan, limit int, includeReasoning bool) (Result, error) {
	ctx, span := telemetry.StartQuerySpan(ctx, plan.NLText)
	start := time.Now()

	if limit <= 0 {
		limit = r.cfg.DefaultLimit
	}

	outcomes := r.runChannels(ctx, plan, limit)

	weights, anyHealthy := r.effectiveWeights(outcomes)
	if !anyHealthy {
		err := fmt.Errorf("%w: every retrieval channel is unhealthy", cgerr.ErrRetrievalUnavailable)
		telemetry.RecordQueryResult(ctx, span, float64(time.Since(start).Milliseconds()), true, 0, err)
		return Result{}, err
	}

	fused, degraded := fuse(outcomes, weights)
	r.populateTruth(ctx, fused)
	sortCandidates(fused)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	result := Result{Elements: fused, Degraded: degraded, NarseseQueries: statementStrings(plan.Statements)}
	if includeReasoning {
		result.ReasoningExplanation = explain(plan, outcomes)
	}
	telemetry.RecordQueryResult(ctx, span, float64(time.Since(start).Milliseconds()), degraded, len(fused), nil)
	return result, nil
}

func (r *Retriever) runChannels(ctx context.Context, plan *translator.QueryPlan, limit int) []channelOutcome {
	outcomes := make([]channelOutcome, len(r.channels))
	var wg sync.WaitGroup

	for i, ch := range r.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()

			if !ch.Health(ctx) {
				outcomes[i] = channelOutcome{reason: ch.Name(), healthy: false}
				return
			}

			timeoutCtx, cancel := context.WithTimeout(ctx, r.cfg.PerChannelTimeout)
			defer cancel()

			scores, err := ch.Score(timeoutCtx, plan, limit)
			if err != nil {
				outcomes[i] = channelOutcome{reason: ch.Name(), healthy: false}
				return
			}
			outcomes[i] = channelOutcome{reason: ch.Name(), scores: scores, healthy: true}
		}(i, ch)
	}

	wg.Wait()
	return outcomes
}

// effectiveWeights keeps the configured weight only for channels that are
// present and healthy (absent or unhealthy channels weigh 0) and
// renormalises those to sum to 1, per spec.md §4.5's failure semantics.
func (r *Retriever) effectiveWeights(outcomes []channelOutcome) (FusionWeights, bool) {
	var w FusionWeights
	var anyHealthy bool

	for _, o := range outcomes {
		if !o.healthy {
			continue
		}
		anyHealthy = true
		switch o.reason {
		case ReasonVector:
			w.Vector = r.cfg.Weights.Vector
		case ReasonGraph:
			w.Graph = r.cfg.Weights.Graph
		case ReasonSymbolic:
			w.Symbolic = r.cfg.Weights.Symbolic
		}
	}

	if !anyHealthy {
		return FusionWeights{}, false
	}
	if sum := w.sum(); sum > 0 {
		w.Vector /= sum
		w.Graph /= sum
		w.Symbolic /= sum
	}
	return w, true
}

func fuse(outcomes []channelOutcome, weights FusionWeights) ([]CandidateScore, bool) {
	byID := make(map[graph.EntityID]*CandidateScore)
	degraded := false

	ensure := func(id graph.EntityID) *CandidateScore {
		if c, ok := byID[id]; ok {
			return c
		}
		c := &CandidateScore{EntityID: id}
		byID[id] = c
		return c
	}

	for _, o := range outcomes {
		if !o.healthy {
			degraded = true
			continue
		}
		for _, s := range o.scores {
			c := ensure(s.id)
			switch o.reason {
			case ReasonVector:
				c.VectorScore = s.score
			case ReasonGraph:
				c.GraphScore = s.score
			case ReasonSymbolic:
				c.NarsScore = s.score
			}
			if s.reason != "" {
				c.MatchReasons = append(c.MatchReasons, s.reason)
			}
		}
	}

	out := make([]CandidateScore, 0, len(byID))
	for _, c := range byID {
		c.FusedScore = weights.Vector*c.VectorScore + weights.Graph*c.GraphScore + weights.Symbolic*c.NarsScore
		out = append(out, *c)
	}
	return out, degraded
}

// populateTruth fills in each candidate's Truth from the graph entity it
// names, so sortCandidates' confidence tie-break has something real to
// compare. Entities the repository can no longer find (stale vector/graph
// index entries) are left at Truth's zero value rather than failing the
// whole query.
func (r *Retriever) populateTruth(ctx context.Context, cs []CandidateScore) {
	if r.repo == nil {
		return
	}
	for i := range cs {
		e, err := r.repo.Get(ctx, cs[i].EntityID)
		if err != nil {
			continue
		}
		cs[i].Truth = e.Truth
	}
}

func sortCandidates(cs []CandidateScore) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].FusedScore != cs[j].FusedScore {
			return cs[i].FusedScore > cs[j].FusedScore
		}
		if cs[i].Truth.C != cs[j].Truth.C {
			return cs[i].Truth.C > cs[j].Truth.C
		}
		return cs[i].EntityID < cs[j].EntityID
	})
}

func statementStrings(statements []*statement.Statement) []string {
	out := make([]string, 0, len(statements))
	for _, s := range statements {
		out = append(out, statement.Print(s))
	}
	return out
}

func explain(plan *translator.QueryPlan, outcomes []channelOutcome) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("fired %d input statement(s)", len(plan.Statements)))
	for _, o := range outcomes {
		if !o.healthy {
			b.WriteString(fmt.Sprintf("; %s channel unhealthy", o.reason))
			continue
		}
		b.WriteString(fmt.Sprintf("; %s channel returned %d candidate(s)", o.reason, len(o.scores)))
	}
	return b.String()
}
