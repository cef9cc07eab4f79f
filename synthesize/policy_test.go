package synthesize

import (
	"testing"

	"github.com/BaSui01/faqflow/types"
)

func resultWith(priority int, confidence float64, candidates ...types.CandidateRecord) types.RetrievalResult {
	return types.RetrievalResult{
		SubQuestion: types.SubQuestion{QueryID: "q-1", Text: "sub", Priority: priority},
		Candidates:  candidates,
		Confidence:  confidence,
	}
}

func graphCandidate(provenance string, score float64) types.CandidateRecord {
	return types.CandidateRecord{Source: types.SourceGraph, Content: "content " + provenance, Score: score, Provenance: provenance}
}

func TestPolicyHighConfidenceDoesNotEscalate(t *testing.T) {
	p := NewThresholdPolicy(0.5)
	results := []types.RetrievalResult{
		resultWith(0, 0.74, graphCandidate("a", 0.9)),
		resultWith(1, 0.6, graphCandidate("b", 0.7)),
	}
	if p.ShouldEscalate(results) {
		t.Fatal("mean confidence 0.67 should not escalate at threshold 0.5")
	}
}

func TestPolicyLowMeanConfidenceEscalates(t *testing.T) {
	p := NewThresholdPolicy(0.5)
	results := []types.RetrievalResult{
		resultWith(0, 0.3, graphCandidate("a", 0.3)),
		resultWith(1, 0.4, graphCandidate("b", 0.4)),
	}
	if !p.ShouldEscalate(results) {
		t.Fatal("mean confidence 0.35 should escalate")
	}
}

func TestPolicyEmptyResultEscalates(t *testing.T) {
	p := NewThresholdPolicy(0.5)
	results := []types.RetrievalResult{
		resultWith(0, 0.9, graphCandidate("a", 0.95)),
		resultWith(1, 0),
	}
	if !p.ShouldEscalate(results) {
		t.Fatal("a zero-candidate sub-question should escalate regardless of mean")
	}
}

func TestPolicyNoResultsEscalates(t *testing.T) {
	if !NewThresholdPolicy(0.5).ShouldEscalate(nil) {
		t.Fatal("no results at all should escalate")
	}
}

func TestPolicyIsDeterministic(t *testing.T) {
	p := NewThresholdPolicy(0.5)
	results := []types.RetrievalResult{
		resultWith(0, 0.49, graphCandidate("a", 0.5)),
	}
	first := p.ShouldEscalate(results)
	for i := 0; i < 10; i++ {
		if p.ShouldEscalate(results) != first {
			t.Fatalf("decision flipped on call %d", i)
		}
	}
}

func TestPolicyDefaultThreshold(t *testing.T) {
	p := NewThresholdPolicy(0)
	if p.Threshold != 0.5 {
		t.Fatalf("threshold = %f, want default 0.5", p.Threshold)
	}
}
