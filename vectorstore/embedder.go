package vectorstore

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// Embedder turns text into a fixed-dimension embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// HashingEmbedder is a deterministic, dependency-free embedder using the
// hashing trick over lowercase tokens. It is no substitute for a learned
// embedding model but gives stable, meaningful cosine overlap for tests and
// local runs.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates an embedder with the given dimension
// (default 256).
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashingEmbedder{dim: dim}
}

// Dimension returns the embedding dimension.
func (e *HashingEmbedder) Dimension() int { return e.dim }

// Embed maps each token into a signed bucket and L2-normalizes the result.
func (e *HashingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dim)
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(e.dim))
		sign := 1.0
		if (sum>>32)&1 == 1 {
			sign = -1.0
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// CosineSimilarity computes the cosine of two vectors, zero when lengths
// differ or either vector is all zeros.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
