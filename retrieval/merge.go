package retrieval

import (
	"sort"
	"strings"

	"github.com/BaSui01/faqflow/types"
)

// sourcePrecedence orders tied candidates; graph facts are considered more
// authoritative than vector chunks for structured medical claims, web
// evidence ranks last.
var sourcePrecedence = map[types.Source]int{
	types.SourceGraph:  0,
	types.SourceVector: 1,
	types.SourceWeb:    2,
}

// Merge concatenates candidate lists, drops records without provenance,
// deduplicates by provenance keeping the highest score, and sorts descending
// by score with ties broken by source precedence and then provenance. The
// operation is idempotent: merging a merged list with itself yields the same
// output.
func Merge(lists ...[]types.CandidateRecord) []types.CandidateRecord {
	best := make(map[string]types.CandidateRecord)
	for _, list := range lists {
		for _, cand := range list {
			if strings.TrimSpace(cand.Provenance) == "" {
				continue
			}
			cand.Score = types.ClampScore(cand.Score)
			prev, ok := best[cand.Provenance]
			if !ok || cand.Score > prev.Score ||
				(cand.Score == prev.Score && sourcePrecedence[cand.Source] < sourcePrecedence[prev.Source]) {
				best[cand.Provenance] = cand
			}
		}
	}

	merged := make([]types.CandidateRecord, 0, len(best))
	for _, cand := range best {
		merged = append(merged, cand)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		pi, pj := sourcePrecedence[merged[i].Source], sourcePrecedence[merged[j].Source]
		if pi != pj {
			return pi < pj
		}
		return merged[i].Provenance < merged[j].Provenance
	})

	return merged
}

// ConfidenceWeights is the weighting of the retrieval confidence score.
type ConfidenceWeights struct {
	MaxScore float64 `yaml:"max_score" json:"max_score"`
	Coverage float64 `yaml:"coverage" json:"coverage"`
}

// DefaultConfidenceWeights returns the reference weighting.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{MaxScore: 0.6, Coverage: 0.4}
}

// Confidence computes the retrieval confidence for merged candidates.
// sourcesAnswered is the number of distinct sources that returned at least
// one candidate, out of totalSources queried. Zero candidates means zero
// confidence regardless of weights.
func Confidence(candidates []types.CandidateRecord, sourcesAnswered, totalSources int, w ConfidenceWeights) float64 {
	if len(candidates) == 0 || totalSources == 0 {
		return 0
	}

	maxScore := 0.0
	for _, cand := range candidates {
		if cand.Score > maxScore {
			maxScore = cand.Score
		}
	}
	coverage := float64(sourcesAnswered) / float64(totalSources)

	return types.ClampScore(maxScore*w.MaxScore + coverage*w.Coverage)
}
