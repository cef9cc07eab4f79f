package vectorstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/faqflow/retrieval"
	"github.com/BaSui01/faqflow/types"
)

// Document is one indexed text chunk. An empty ID gets a generated chunk id.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type indexed struct {
	doc       Document
	embedding []float64
}

// Index implements retrieval.VectorAdapter over in-memory documents.
type Index struct {
	embedder Embedder
	logger   *zap.Logger

	mu   sync.RWMutex
	docs []indexed
}

// NewIndex creates an empty index. A nil embedder selects the hashing
// embedder.
func NewIndex(embedder Embedder, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	if embedder == nil {
		embedder = NewHashingEmbedder(0)
	}
	return &Index{
		embedder: embedder,
		logger:   logger.With(zap.String("component", "vector_index")),
	}
}

// Add embeds and indexes documents.
func (ix *Index) Add(ctx context.Context, docs ...Document) error {
	prepared := make([]indexed, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = "chunk-" + uuid.NewString()
		}
		embedding, err := ix.embedder.Embed(ctx, doc.Content)
		if err != nil {
			return types.NewError(types.ErrAdapterUnavailable, "embedding failed").
				WithSource(types.SourceVector).WithCause(err)
		}
		prepared = append(prepared, indexed{doc: doc, embedding: embedding})
	}

	ix.mu.Lock()
	ix.docs = append(ix.docs, prepared...)
	ix.mu.Unlock()

	ix.logger.Debug("documents indexed", zap.Int("count", len(docs)))
	return nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search embeds the query and returns the topK most similar chunks as
// vector candidates. Scores are cosine similarity mapped from [-1,1] to
// [0,1]; chunks with no token overlap score at the 0.5 midpoint and below
// once negative buckets collide, so callers should treat low scores as
// noise.
func (ix *Index) Search(ctx context.Context, queryText string, filters retrieval.Filters, topK int) ([]types.CandidateRecord, error) {
	if topK <= 0 {
		topK = 10
	}

	queryEmbedding, err := ix.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, types.NewError(types.ErrAdapterUnavailable, "query embedding failed").
			WithSource(types.SourceVector).WithCause(err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	candidates := make([]types.CandidateRecord, 0, len(ix.docs))
	for _, entry := range ix.docs {
		if !matchesFilters(entry.doc, filters) {
			continue
		}
		cos := CosineSimilarity(queryEmbedding, entry.embedding)
		candidates = append(candidates, types.CandidateRecord{
			Source:     types.SourceVector,
			Content:    entry.doc.Content,
			Score:      types.ClampScore((cos + 1) / 2),
			Provenance: entry.doc.ID,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Provenance < candidates[j].Provenance
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// matchesFilters keeps documents whose metadata contains every filter pair,
// except the "entity" filter which the vector source does not interpret.
func matchesFilters(doc Document, filters retrieval.Filters) bool {
	for k, v := range filters {
		if k == "entity" {
			continue
		}
		if doc.Metadata[k] != v {
			return false
		}
	}
	return true
}
