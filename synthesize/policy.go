package synthesize

import "github.com/BaSui01/faqflow/types"

// EscalationPolicy decides whether to fall back to external research.
// Implementations must be pure: no side effects, same input same decision.
type EscalationPolicy interface {
	ShouldEscalate(results []types.RetrievalResult) bool
}

// ThresholdPolicy escalates when the mean confidence across all results
// falls below Threshold, or when any SubQuestion produced zero candidates.
type ThresholdPolicy struct {
	Threshold float64
}

// NewThresholdPolicy uses the given threshold, or 0.5 when non-positive.
func NewThresholdPolicy(threshold float64) ThresholdPolicy {
	if threshold <= 0 {
		threshold = 0.5
	}
	return ThresholdPolicy{Threshold: threshold}
}

func (p ThresholdPolicy) ShouldEscalate(results []types.RetrievalResult) bool {
	if len(results) == 0 {
		return true
	}
	var sum float64
	for i := range results {
		if results[i].Empty() {
			return true
		}
		sum += results[i].Confidence
	}
	return sum/float64(len(results)) < p.Threshold
}
