package synthesize

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/faqflow/types"
)

// Synthesizer merges all contributing results for one query into a single
// answer. Research results are optional and always rank after retrieval.
type Synthesizer interface {
	Synthesize(ctx context.Context, queryID string, results []types.RetrievalResult, research *types.ResearchResult) (*types.SynthesizedAnswer, error)
}

// Config tunes the synthesizer.
type Config struct {
	// SuccessThreshold is the minimum overall confidence for a "success"
	// status. Anything found below it is "partial".
	SuccessThreshold float64 `yaml:"success_threshold" json:"success_threshold"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{SuccessThreshold: 0.5}
}

// StandardSynthesizer orders results by SubQuestion priority and combines
// their confidences with a rank-decaying weighted average.
type StandardSynthesizer struct {
	config Config
	logger *zap.Logger
}

func NewStandardSynthesizer(config Config, logger *zap.Logger) *StandardSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = DefaultConfig().SuccessThreshold
	}
	return &StandardSynthesizer{
		config: config,
		logger: logger.With(zap.String("component", "synthesizer")),
	}
}

// Synthesize merges results in SubQuestion priority order. The overall
// confidence is the weighted average of per-result confidences with weight
// 1/(rank+1), then capped at the maximum contributing confidence so merging
// can never amplify trust. When every retrieval failed outright and no
// research arrived, it returns a SYNTHESIS_FAILED error alongside an answer
// with status "error".
func (s *StandardSynthesizer) Synthesize(ctx context.Context, queryID string, results []types.RetrievalResult, research *types.ResearchResult) (*types.SynthesizedAnswer, error) {
	_ = ctx

	ordered := make([]types.RetrievalResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SubQuestion.Priority < ordered[j].SubQuestion.Priority
	})

	answer := &types.SynthesizedAnswer{QueryID: queryID}

	var weightedSum, weightSum, maxConfidence float64
	var fragments []string
	found := false
	rank := 0

	contribute := func(confidence float64, candidates []types.CandidateRecord) {
		weight := 1 / float64(rank+1)
		weightedSum += confidence * weight
		weightSum += weight
		rank++
		if confidence > maxConfidence {
			maxConfidence = confidence
		}
		for _, c := range candidates {
			answer.Sources = appendSource(answer.Sources, c.Source)
		}
		if len(candidates) > 0 {
			found = true
			if top := topContent(candidates); top != "" {
				fragments = append(fragments, top)
			}
		}
	}

	for i := range ordered {
		contribute(ordered[i].Confidence, ordered[i].Candidates)
	}
	if research != nil {
		contribute(research.Confidence, research.Candidates)
	}

	if weightSum > 0 {
		answer.Confidence = types.ClampScore(weightedSum / weightSum)
	}
	if answer.Confidence > maxConfidence {
		answer.Confidence = maxConfidence
	}
	answer.Answer = strings.Join(fragments, " ")

	if allFailed(ordered) && (research == nil || len(research.Candidates) == 0) {
		answer.Status = types.StatusError
		answer.Confidence = 0
		return answer, types.NewError(types.ErrSynthesisFailed, "all knowledge sources failed").
			WithRetryable(true)
	}

	switch {
	case found && answer.Confidence >= s.config.SuccessThreshold:
		answer.Status = types.StatusSuccess
	default:
		answer.Status = types.StatusPartial
	}

	s.logger.Debug("synthesis completed",
		zap.String("query_id", queryID),
		zap.Int("results", len(ordered)),
		zap.Float64("confidence", answer.Confidence),
		zap.String("status", string(answer.Status)))
	return answer, nil
}

// allFailed reports whether every retrieval result failed outright, as
// opposed to legitimately finding nothing. Zero results never count as a
// failure.
func allFailed(results []types.RetrievalResult) bool {
	if len(results) == 0 {
		return false
	}
	for i := range results {
		if !results[i].Failed() {
			return false
		}
	}
	return true
}

// appendSource keeps the first-seen order of contributing sources.
func appendSource(sources []types.Source, s types.Source) []types.Source {
	for _, existing := range sources {
		if existing == s {
			return sources
		}
	}
	return append(sources, s)
}

// topContent picks the highest-scoring candidate's content as the draft
// fragment for one result.
func topContent(candidates []types.CandidateRecord) string {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return strings.TrimSpace(best.Content)
}
