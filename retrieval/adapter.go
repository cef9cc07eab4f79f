package retrieval

import (
	"context"

	"github.com/BaSui01/faqflow/types"
)

// Filters narrows an adapter search. Adapters ignore keys they do not
// understand.
type Filters map[string]string

// GraphAdapter queries the knowledge graph. Implementations are stateless
// request/response clients, safe for concurrent use. Connection loss is
// reported as ADAPTER_UNAVAILABLE, deadline overruns as ADAPTER_TIMEOUT.
type GraphAdapter interface {
	// Search finds entities and facts matching the query text.
	Search(ctx context.Context, queryText string, filters Filters, topK int) ([]types.CandidateRecord, error)
	// Related walks typed relations out from an entity up to maxDepth hops.
	// An empty relationTypes slice matches every relation type.
	Related(ctx context.Context, entityID string, relationTypes []string, maxDepth int) ([]types.CandidateRecord, error)
}

// VectorAdapter performs embedding similarity search. Relevance scores are
// cosine similarity normalized to [0,1].
type VectorAdapter interface {
	Search(ctx context.Context, queryText string, filters Filters, topK int) ([]types.CandidateRecord, error)
}
