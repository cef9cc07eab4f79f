package synthesize

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/BaSui01/faqflow/types"
)

func resultsFromConfidences(confidences []float64) []types.RetrievalResult {
	results := make([]types.RetrievalResult, len(confidences))
	for i, c := range confidences {
		results[i] = resultWith(i, c,
			graphCandidate(fmt.Sprintf("entity_%d", i), c))
	}
	return results
}

func TestSynthesisProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	confidenceSlices := gen.SliceOf(gen.Float64Range(0, 1))

	properties.Property("confidence never exceeds max contributing", prop.ForAll(
		func(confidences []float64) bool {
			s := NewStandardSynthesizer(DefaultConfig(), nil)
			answer, err := s.Synthesize(context.Background(), "q-prop", resultsFromConfidences(confidences), nil)
			if err != nil {
				return len(confidences) == 0 && answer != nil
			}
			var max float64
			for _, c := range confidences {
				if c > max {
					max = c
				}
			}
			return answer.Confidence <= max+1e-9 && answer.Confidence >= 0
		},
		confidenceSlices,
	))

	properties.Property("escalation decision is pure", prop.ForAll(
		func(confidences []float64) bool {
			p := NewThresholdPolicy(0.5)
			results := resultsFromConfidences(confidences)
			first := p.ShouldEscalate(results)
			for i := 0; i < 3; i++ {
				if p.ShouldEscalate(results) != first {
					return false
				}
			}
			return true
		},
		confidenceSlices,
	))

	properties.Property("status is always a known value", prop.ForAll(
		func(confidences []float64) bool {
			s := NewStandardSynthesizer(DefaultConfig(), nil)
			answer, _ := s.Synthesize(context.Background(), "q-prop", resultsFromConfidences(confidences), nil)
			switch answer.Status {
			case types.StatusSuccess, types.StatusPartial, types.StatusError:
				return true
			}
			return false
		},
		confidenceSlices,
	))

	properties.TestingRun(t)
}
