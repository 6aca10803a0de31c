package feedback

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charlenopires/codegraph/pkg/cgerr"
	"github.com/charlenopires/codegraph/pkg/graph"
	"github.com/charlenopires/codegraph/pkg/telemetry"
	"github.com/charlenopires/codegraph/pkg/truth"
)

// Clock abstracts time.Now for deterministic tests, following the
// teacher's preference for injecting time rather than freezing it globally.
type Clock func() time.Time

// Propagator is FeedbackPropagator (spec.md §4.6): it applies a direct
// confidence update to the target entity, then spreads an attenuated copy
// of that update along typed relations up to a bounded depth.
//
// Updates to a single entity are serialised via a per-entity lock; updates
// to disjoint entities proceed concurrently.
type Propagator struct {
	cfg     Config
	repo    graph.Repository
	audit   AuditLog
	clock   Clock
	sleep   func(time.Duration)
	entLock sync.Map // graph.EntityID -> *sync.Mutex
}

// New creates a Propagator over repo, recording revision traces to audit.
func New(cfg Config, repo graph.Repository, audit AuditLog) *Propagator {
	return &Propagator{
		cfg:   cfg,
		repo:  repo,
		audit: audit,
		clock: time.Now,
		sleep: time.Sleep,
	}
}

func (p *Propagator) lockFor(id graph.EntityID) *sync.Mutex {
	m, _ := p.entLock.LoadOrStore(id, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// Submit processes one feedback event: direct update on ev.ElementID, then
// BFS propagation to neighbours. It makes up to cfg.MaxRetries attempts at
// the direct update, with exponential backoff between them, when the store
// rejects the write, and returns cgerr.ErrFeedbackPermanent once they are
// exhausted (the event is then considered dead-lettered). Propagation runs
// once, after the direct update succeeds.
// Propagation failures to neighbours never abort the direct update.
func (p *Propagator) Submit(ctx context.Context, ev Event) (Update, error) {
	if _, err := p.repo.Get(ctx, ev.ElementID); err != nil {
		return Update{}, fmt.Errorf("%w: %s", cgerr.ErrEntityNotFound, ev.ElementID)
	}

	var update Update
	var err error
	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		update, err = p.applyDirect(ctx, ev)
		if err == nil {
			break
		}
		if attempt == p.cfg.MaxRetries {
			return Update{}, fmt.Errorf("%w: %s after %d attempts: %v", cgerr.ErrFeedbackPermanent, ev.ID, attempt, err)
		}
		p.sleep(backoff(attempt))
	}
	if err != nil {
		return Update{}, err
	}

	p.propagate(ctx, ev)
	telemetry.RecordFeedbackSubmitted(ctx, string(ev.Kind))
	return update, nil
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
}

func (p *Propagator) applyDirect(ctx context.Context, ev Event) (Update, error) {
	lock := p.lockFor(ev.ElementID)
	lock.Lock()
	defer lock.Unlock()

	e, err := p.repo.Get(ctx, ev.ElementID)
	if err != nil {
		return Update{}, fmt.Errorf("%w: %v", cgerr.ErrFeedbackTransient, err)
	}

	pre := e.Truth
	evidence := p.cfg.evidenceFor(ev.Kind)
	post, err := truth.Revision(pre, evidence)
	if err != nil {
		return Update{}, fmt.Errorf("%w: %v", cgerr.ErrFeedbackTransient, err)
	}

	e.Truth = post
	e.UpdatedAt = p.now()
	if err := p.repo.Upsert(ctx, e); err != nil {
		return Update{}, fmt.Errorf("%w: %v", cgerr.ErrFeedbackTransient, err)
	}

	p.appendAudit(ctx, AuditRecord{
		EntityID: ev.ElementID, PreTruth: pre, PostTruth: post,
		EventID: ev.ID, Depth: 0, At: p.now(),
	})

	return Update{
		ElementID:     ev.ElementID,
		OldConfidence: pre.C,
		NewConfidence: post.C,
		Delta:         post.C - pre.C,
	}, nil
}

// propagate performs a breadth-first traversal from ev.ElementID to depth
// cfg.MaxDepth along SIMILAR_TO and CAN_REPLACE edges, revising each
// visited neighbour's truth with an attenuated copy of the direct evidence.
// Never visits the same neighbour twice; CAN_REPLACE is never introduced
// by this traversal, it is only followed.
func (p *Propagator) propagate(ctx context.Context, ev Event) {
	if p.cfg.MaxDepth <= 0 {
		return
	}

	neighbours, err := p.repo.Neighbours(ctx, ev.ElementID,
		[]graph.RelationType{graph.RelSimilarTo, graph.RelCanReplace}, p.cfg.MaxDepth)
	if err != nil {
		return
	}

	evidence := p.cfg.evidenceFor(ev.Kind)
	visited := make(map[graph.EntityID]bool)

	for _, n := range neighbours {
		if visited[n.Entity.ID] {
			continue
		}
		visited[n.Entity.ID] = true
		p.applyAttenuated(ctx, ev, n, evidence)
	}
}

func (p *Propagator) applyAttenuated(ctx context.Context, ev Event, n graph.Neighbour, evidence truth.Value) {
	alpha := p.cfg.attenuationFor(n.Relation.Type)
	if alpha == 0 {
		return
	}

	lock := p.lockFor(n.Entity.ID)
	lock.Lock()
	defer lock.Unlock()

	e, err := p.repo.Get(ctx, n.Entity.ID)
	if err != nil {
		return
	}

	signal := truth.Value{
		F: evidence.F,
		C: evidence.C * math.Pow(alpha, float64(n.Depth)) * n.Relation.Weight,
	}
	if signal.C <= 0 {
		return
	}

	pre := e.Truth
	post, err := truth.Revision(pre, signal)
	if err != nil {
		return
	}

	e.Truth = post
	e.UpdatedAt = p.now()
	if err := p.repo.Upsert(ctx, e); err != nil {
		return
	}

	p.appendAudit(ctx, AuditRecord{
		EntityID: n.Entity.ID, PreTruth: pre, PostTruth: post,
		EventID: ev.ID, Depth: n.Depth, At: p.now(),
	})
}

func (p *Propagator) appendAudit(ctx context.Context, rec AuditRecord) {
	if p.audit == nil {
		return
	}
	_ = p.audit.Append(ctx, rec)
}

func (p *Propagator) now() time.Time {
	if p.clock != nil {
		return p.clock()
	}
	return time.Now()
}
