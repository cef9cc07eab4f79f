package types

import "strings"

// AnswerStatus is the outcome classification of a SynthesizedAnswer.
type AnswerStatus string

const (
	StatusSuccess AnswerStatus = "success" // Overall confidence >= success threshold
	StatusPartial AnswerStatus = "partial" // Something was found, confidence low
	StatusError   AnswerStatus = "error"   // Every contributing call failed outright
)

// CandidateRecord is one retrieved fact or entity. Records are produced by a
// single adapter call and never mutated afterwards. Provenance is the entity
// ID or vector chunk ID the record traces back to; records without
// provenance are rejected at ingestion because they cannot be cited.
type CandidateRecord struct {
	Source     Source  `json:"source"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	Provenance string  `json:"provenance"`
}

// NewCandidateRecord builds a validated record. The score is clamped into
// [0,1]; an empty provenance is an error.
func NewCandidateRecord(source Source, content, provenance string, score float64) (CandidateRecord, error) {
	if strings.TrimSpace(provenance) == "" {
		return CandidateRecord{}, NewError(ErrOrphanCandidate, "candidate has no provenance id")
	}
	return CandidateRecord{
		Source:     source,
		Content:    content,
		Score:      ClampScore(score),
		Provenance: provenance,
	}, nil
}

// RetrievalResult aggregates the candidates retrieved for one SubQuestion.
// Confidence is always in [0,1] and is zero exactly when Candidates is empty.
// SourceErrors records per-source failures that were degraded to zero
// candidates instead of aborting retrieval.
type RetrievalResult struct {
	SubQuestion  SubQuestion       `json:"sub_question"`
	Candidates   []CandidateRecord `json:"candidates"`
	Confidence   float64           `json:"confidence"`
	Rewritten    string            `json:"rewritten,omitempty"`
	SourceErrors map[Source]string `json:"source_errors,omitempty"`
}

// Empty reports whether retrieval produced no candidates at all. This is a
// legitimate "no knowledge" outcome, not an error.
func (r *RetrievalResult) Empty() bool {
	return len(r.Candidates) == 0
}

// Failed reports whether both knowledge sources failed outright, as opposed
// to answering with nothing.
func (r *RetrievalResult) Failed() bool {
	return r.Empty() && len(r.SourceErrors) >= 2
}

// ResearchResult aggregates candidates produced by external web research.
type ResearchResult struct {
	QueryID    string            `json:"query_id"`
	Candidates []CandidateRecord `json:"candidates"`
	URLs       []string          `json:"urls,omitempty"`
	Confidence float64           `json:"confidence"`
}

// SynthesizedAnswer is the final per-query object handed to rendering.
// Sources preserves first-seen order across contributing results. Answer is
// a draft assembled from top candidates; final prose belongs to the
// rendering boundary.
type SynthesizedAnswer struct {
	QueryID    string       `json:"query_id"`
	Answer     string       `json:"answer"`
	Sources    []Source     `json:"sources"`
	Confidence float64      `json:"confidence"`
	Status     AnswerStatus `json:"status"`
}

// ClampScore forces a score into [0,1]. NaN clamps to zero.
func ClampScore(s float64) float64 {
	if s != s || s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
