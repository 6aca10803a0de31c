package translator

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Embedder turns text into a dense vector. Production deployments wire an
// external embedding model behind this narrow interface, the same shape
// the teacher uses for its pluggable embedding providers
// (embed.AppleEmbedder, embed.LocalGGUFEmbedder): a single Embed method,
// no shared base type.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// OfflineEmbedder is the deterministic fallback: a hashed bag-of-words
// embedding. It never errors and requires no external process, so it is
// always available as the translator's last resort.
type OfflineEmbedder struct {
	dim int
}

// NewOfflineEmbedder creates an OfflineEmbedder fixed to dim dimensions.
func NewOfflineEmbedder(dim int) *OfflineEmbedder {
	return &OfflineEmbedder{dim: dim}
}

func (e *OfflineEmbedder) Dimension() int { return e.dim }

// Embed hashes each token into one of e.dim buckets and accumulates a
// count per bucket, then L2-normalises. Two texts sharing tokens
// land closer together under cosine similarity; it is not a semantic
// embedding, but it is stable, fast, and dependency-free.
func (e *OfflineEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, tok := range tokenise(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		bucket := int(h.Sum32()) % e.dim
		if bucket < 0 {
			bucket += e.dim
		}
		vec[bucket]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	inv := float32(1.0 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec, nil
}

func tokenise(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
