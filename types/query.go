package types

import (
	"strings"

	"github.com/google/uuid"
)

// Query is a user question as issued by the caller. A Query is immutable
// once constructed; decomposition produces SubQuestions referring back to it
// by ID rather than mutating it.
type Query struct {
	ID      string         `json:"id"`
	Text    string         `json:"text"`
	Context map[string]any `json:"context,omitempty"`
}

// NewQuery creates a Query with a fresh ID. Returns an error for empty or
// whitespace-only text.
func NewQuery(text string, ctx map[string]any) (*Query, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewError(ErrInvalidQuery, "query text is empty")
	}
	return &Query{
		ID:      uuid.NewString(),
		Text:    text,
		Context: ctx,
	}, nil
}

// SubQuestionKind classifies how a SubQuestion was derived from its parent.
type SubQuestionKind string

const (
	KindOriginal     SubQuestionKind = "original"     // Parent query passed through whole
	KindDefinition   SubQuestionKind = "definition"   // "What is X?"
	KindRelationship SubQuestionKind = "relationship" // "How are X and Y related?"
	KindFragment     SubQuestionKind = "fragment"     // Conjunction split or LLM output
)

// SubQuestion is one prioritized fragment of a Query. Lower priority values
// are evaluated first; ties keep the order the decomposer emitted them in.
// QueryID is a weak reference to the parent Query.
type SubQuestion struct {
	QueryID  string          `json:"query_id"`
	Text     string          `json:"text"`
	Priority int             `json:"priority"`
	Kind     SubQuestionKind `json:"kind"`
	Entities []string        `json:"entities,omitempty"`
}

// Source identifies the knowledge source a candidate or answer came from.
type Source string

const (
	SourceGraph  Source = "graph"
	SourceVector Source = "vector"
	SourceWeb    Source = "web"
)

// ChatRequest is the request shape consumed by the orchestrator.
type ChatRequest struct {
	Query   string         `json:"query"`
	Context map[string]any `json:"context,omitempty"`
}

// ChatResponse is the response shape produced for the caller. On internal
// failure Status is "error", Sources is empty and Error carries the
// technical detail for logs while Response stays non-technical.
type ChatResponse struct {
	Response   string   `json:"response"`
	Sources    []string `json:"sources"`
	Status     string   `json:"status"`
	Confidence float64  `json:"confidence"`
	QueryID    string   `json:"query_id,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Feedback is a user's verdict on an answer. It is accepted at the boundary
// and forwarded to the external learning pipeline unchanged; the core never
// interprets Corrections.
type Feedback struct {
	QueryID        string         `json:"query_id"`
	Helpful        bool           `json:"helpful"`
	Corrections    map[string]any `json:"corrections,omitempty"`
	AdditionalInfo string         `json:"additional_info,omitempty"`
}

// Validate checks the minimal acceptance contract for feedback intake.
func (f *Feedback) Validate() error {
	if strings.TrimSpace(f.QueryID) == "" {
		return NewError(ErrInvalidQuery, "feedback requires a query_id")
	}
	return nil
}
