package retrieval

import (
	"testing"

	"github.com/BaSui01/faqflow/types"
)

func TestMerge_DedupesByProvenanceKeepingMaxScore(t *testing.T) {
	t.Parallel()

	graph := []types.CandidateRecord{
		{Source: types.SourceGraph, Content: "a", Score: 0.5, Provenance: "diabetes"},
		{Source: types.SourceGraph, Content: "b", Score: 0.8, Provenance: "insulin"},
	}
	vector := []types.CandidateRecord{
		{Source: types.SourceVector, Content: "a'", Score: 0.9, Provenance: "diabetes"},
		{Source: types.SourceVector, Content: "c", Score: 0.4, Provenance: "chunk-1"},
	}

	merged := Merge(graph, vector)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged candidates, got %d", len(merged))
	}
	if merged[0].Provenance != "diabetes" || merged[0].Score != 0.9 {
		t.Fatalf("duplicate should keep max score: %+v", merged[0])
	}
	if merged[0].Source != types.SourceVector {
		t.Fatalf("winning duplicate keeps its own source: %+v", merged[0])
	}
	if merged[1].Provenance != "insulin" || merged[2].Provenance != "chunk-1" {
		t.Fatalf("unexpected order: %+v", merged)
	}
}

func TestMerge_TieBreaksGraphOverVector(t *testing.T) {
	t.Parallel()

	merged := Merge(
		[]types.CandidateRecord{{Source: types.SourceVector, Score: 0.7, Provenance: "v1"}},
		[]types.CandidateRecord{{Source: types.SourceGraph, Score: 0.7, Provenance: "g1"}},
	)
	if merged[0].Source != types.SourceGraph {
		t.Fatalf("graph should precede vector on tied scores: %+v", merged)
	}
}

func TestMerge_DropsOrphanCandidates(t *testing.T) {
	t.Parallel()

	merged := Merge([]types.CandidateRecord{
		{Source: types.SourceGraph, Score: 0.9, Provenance: ""},
		{Source: types.SourceGraph, Score: 0.9, Provenance: "  "},
		{Source: types.SourceGraph, Score: 0.3, Provenance: "kept"},
	})
	if len(merged) != 1 || merged[0].Provenance != "kept" {
		t.Fatalf("orphans must be rejected at ingestion: %+v", merged)
	}
}

func TestConfidence_ReferenceScenario(t *testing.T) {
	t.Parallel()

	// Graph answers with three 0.9 candidates, vector answers nothing:
	// 0.9*0.6 + 0.5*0.4 = 0.74.
	candidates := []types.CandidateRecord{
		{Source: types.SourceGraph, Score: 0.9, Provenance: "increased_thirst"},
		{Source: types.SourceGraph, Score: 0.9, Provenance: "frequent_urination"},
		{Source: types.SourceGraph, Score: 0.9, Provenance: "fatigue"},
	}
	got := Confidence(candidates, 1, 2, DefaultConfidenceWeights())
	if got < 0.7399 || got > 0.7401 {
		t.Fatalf("expected 0.74, got %v", got)
	}
}

func TestConfidence_ZeroIffEmpty(t *testing.T) {
	t.Parallel()

	if got := Confidence(nil, 0, 2, DefaultConfidenceWeights()); got != 0 {
		t.Fatalf("empty candidates must score zero, got %v", got)
	}

	nonEmpty := []types.CandidateRecord{{Source: types.SourceVector, Score: 0.1, Provenance: "c"}}
	if got := Confidence(nonEmpty, 1, 2, DefaultConfidenceWeights()); got <= 0 {
		t.Fatalf("non-empty candidates must score above zero, got %v", got)
	}
}
