package retrieval

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/BaSui01/faqflow/types"
)

func genCandidate() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(types.SourceGraph, types.SourceVector, types.SourceWeb),
		gen.Float64Range(0, 1),
		gen.OneConstOf("diabetes", "insulin", "chunk-1", "chunk-2", "fatigue", "thirst"),
	).Map(func(values []interface{}) types.CandidateRecord {
		return types.CandidateRecord{
			Source:     values[0].(types.Source),
			Score:      values[1].(float64),
			Provenance: values[2].(string),
			Content:    "fact",
		}
	})
}

func genCandidates() gopter.Gen {
	return gen.SliceOf(genCandidate())
}

func TestProperty_MergeIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("merging a merged list with itself changes nothing", prop.ForAll(
		func(candidates []types.CandidateRecord) bool {
			once := Merge(candidates)
			twice := Merge(once, once)
			if len(once) != len(twice) {
				return false
			}
			for i := range once {
				if once[i] != twice[i] {
					return false
				}
			}
			return true
		},
		genCandidates(),
	))

	properties.TestingRun(t)
}

func TestProperty_MergeKeepsMaxDuplicateScore(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("output score >= every duplicate's input score", prop.ForAll(
		func(candidates []types.CandidateRecord) bool {
			merged := Merge(candidates)
			byProvenance := make(map[string]float64, len(merged))
			for _, cand := range merged {
				byProvenance[cand.Provenance] = cand.Score
			}
			for _, cand := range candidates {
				if cand.Provenance == "" {
					continue
				}
				if byProvenance[cand.Provenance] < types.ClampScore(cand.Score) {
					return false
				}
			}
			return true
		},
		genCandidates(),
	))

	properties.TestingRun(t)
}

func TestProperty_ConfidenceBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("confidence is in [0,1] and zero iff candidates empty", prop.ForAll(
		func(candidates []types.CandidateRecord, answered int) bool {
			merged := Merge(candidates)
			sources := answered % 3
			conf := Confidence(merged, sources, 2, DefaultConfidenceWeights())
			if conf < 0 || conf > 1 {
				return false
			}
			if len(merged) == 0 {
				return conf == 0
			}
			// With at least one candidate and one answering source the
			// coverage term alone keeps confidence above zero.
			if sources > 0 && conf == 0 {
				return false
			}
			return true
		},
		genCandidates(),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}
