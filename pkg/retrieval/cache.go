package retrieval

import (
	"context"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/charlenopires/codegraph/pkg/translator"
)

// CachingRetriever wraps a Retriever with a bounded LRU cache keyed on the
// query plan's text, constraints, and requested shape, so repeated
// identical queries within a short window skip re-running every channel.
// Results that include a reasoning explanation are not cached, since that
// explanation narrates the specific run's channel outcomes rather than a
// property of the query alone.
type CachingRetriever struct {
	inner *Retriever
	cache *lru.Cache[string, Result]
}

// NewCaching wraps retriever with an LRU cache of the given size. size<=0
// disables caching and Retrieve simply delegates.
func NewCaching(inner *Retriever, size int) (*CachingRetriever, error) {
	cr := &CachingRetriever{inner: inner}
	if size <= 0 {
		return cr, nil
	}
	cache, err := lru.New[string, Result](size)
	if err != nil {
		return nil, err
	}
	cr.cache = cache
	return cr, nil
}

// Retrieve serves from cache when possible; include_reasoning requests
// always bypass the cache, and their results are not stored in it.
func (c *CachingRetriever) Retrieve(ctx context.Context, plan *translator.QueryPlan, limit int, includeReasoning bool) (Result, error) {
	if c.cache == nil {
		return c.inner.Retrieve(ctx, plan, limit, includeReasoning)
	}

	key := cacheKey(plan, limit)
	if !includeReasoning {
		if cached, ok := c.cache.Get(key); ok {
			return cached, nil
		}
	}

	result, err := c.inner.Retrieve(ctx, plan, limit, includeReasoning)
	if err != nil {
		return result, err
	}

	if !includeReasoning {
		c.cache.Add(key, result)
	}
	return result, nil
}

func cacheKey(plan *translator.QueryPlan, limit int) string {
	var b strings.Builder
	b.WriteString(plan.NLText)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(limit))
	if plan.Constraints.Category != nil {
		b.WriteByte('|')
		b.WriteString(string(*plan.Constraints.Category))
	}
	if plan.Constraints.DesignSystem != nil {
		b.WriteByte('|')
		b.WriteString(string(*plan.Constraints.DesignSystem))
	}
	for _, tag := range plan.Constraints.Tags {
		b.WriteByte('|')
		b.WriteString(tag)
	}
	return b.String()
}
