package decompose

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/faqflow/capability"
	"github.com/BaSui01/faqflow/types"
)

// Decomposer splits a query into prioritized sub-questions.
type Decomposer interface {
	Decompose(ctx context.Context, query *types.Query) ([]types.SubQuestion, error)
}

// Config configures the standard decomposer.
type Config struct {
	// MaxSubQuestions bounds the number of sub-questions per query.
	MaxSubQuestions int `yaml:"max_sub_questions" json:"max_sub_questions"`
	// UseCapability enables the LLM capability for classification and
	// splitting; rules are used as fallback either way.
	UseCapability bool `yaml:"use_capability" json:"use_capability"`
}

// DefaultConfig returns the default decomposer configuration.
func DefaultConfig() Config {
	return Config{
		MaxSubQuestions: 5,
		UseCapability:   true,
	}
}

// StandardDecomposer implements Decomposer with an optional capability
// provider and deterministic rule fallbacks.
type StandardDecomposer struct {
	config      Config
	interpreter *Interpreter
	provider    capability.Provider
	logger      *zap.Logger
}

// NewStandardDecomposer creates a decomposer. provider may be nil, in which
// case only the rule-based paths run.
func NewStandardDecomposer(config Config, interpreter *Interpreter, provider capability.Provider, logger *zap.Logger) *StandardDecomposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxSubQuestions <= 0 {
		config.MaxSubQuestions = 5
	}
	if interpreter == nil {
		interpreter = NewInterpreter(nil, logger)
	}
	return &StandardDecomposer{
		config:      config,
		interpreter: interpreter,
		provider:    provider,
		logger:      logger.With(zap.String("component", "decomposer")),
	}
}

// Single wraps a query as its own sole sub-question with priority 0. It is
// the degraded form callers fall back to on DECOMPOSITION_FAILED.
func Single(query *types.Query) types.SubQuestion {
	return types.SubQuestion{
		QueryID:  query.ID,
		Text:     query.Text,
		Priority: 0,
		Kind:     types.KindOriginal,
	}
}

// Decompose classifies the query and, when complex, splits it into 2..N
// prioritized sub-questions. Definition questions come first, relationship
// questions second, remaining fragments last; within a class the original
// order is kept. Returns DECOMPOSITION_FAILED only when a complex query
// cannot be split at all.
func (d *StandardDecomposer) Decompose(ctx context.Context, query *types.Query) ([]types.SubQuestion, error) {
	interp := d.interpreter.Interpret(query.Text)

	complex := interp.Complex
	if d.config.UseCapability && d.provider != nil {
		llmComplex, err := capability.Classify(ctx, d.provider, query.Text)
		if err != nil {
			d.logger.Warn("complexity classification failed, using rules", zap.Error(err))
		} else {
			complex = llmComplex
		}
	}

	if !complex {
		single := Single(query)
		single.Entities = interp.Entities
		return []types.SubQuestion{single}, nil
	}

	subs := d.generate(ctx, query, interp)
	if len(subs) < 2 {
		return nil, types.NewError(types.ErrDecompositionFailed,
			"complex query could not be split").WithRetryable(false)
	}
	if len(subs) > d.config.MaxSubQuestions {
		subs = subs[:d.config.MaxSubQuestions]
	}
	for i := range subs {
		subs[i].Priority = i
	}

	d.logger.Info("query decomposed",
		zap.String("query_id", query.ID),
		zap.String("intent", string(interp.Intent)),
		zap.Int("sub_questions", len(subs)))

	return subs, nil
}

// generate builds candidate sub-questions in priority class order:
// definitions, relationships, then free fragments.
func (d *StandardDecomposer) generate(ctx context.Context, query *types.Query, interp Interpretation) []types.SubQuestion {
	var definitions, relationships, fragments []types.SubQuestion

	for _, entity := range interp.Entities {
		definitions = append(definitions, types.SubQuestion{
			QueryID:  query.ID,
			Text:     fmt.Sprintf("What is %s?", entity),
			Kind:     types.KindDefinition,
			Entities: []string{entity},
		})
	}

	if interp.Intent == IntentComparison && len(interp.Entities) >= 2 {
		for i := 0; i < len(interp.Entities); i++ {
			for j := i + 1; j < len(interp.Entities); j++ {
				relationships = append(relationships, types.SubQuestion{
					QueryID:  query.ID,
					Text:     fmt.Sprintf("What is the relationship between %s and %s?", interp.Entities[i], interp.Entities[j]),
					Kind:     types.KindRelationship,
					Entities: []string{interp.Entities[i], interp.Entities[j]},
				})
			}
		}
	}

	for _, text := range d.split(ctx, query.Text) {
		fragments = append(fragments, types.SubQuestion{
			QueryID: query.ID,
			Text:    text,
			Kind:    types.KindFragment,
		})
	}

	out := make([]types.SubQuestion, 0, len(definitions)+len(relationships)+len(fragments))
	out = append(out, definitions...)
	out = append(out, relationships...)
	out = append(out, fragments...)
	return out
}

// split asks the capability for fragments and falls back to conjunction
// splitting on failure.
func (d *StandardDecomposer) split(ctx context.Context, text string) []string {
	if d.config.UseCapability && d.provider != nil {
		fragments, err := capability.Decompose(ctx, d.provider, text, d.config.MaxSubQuestions)
		if err == nil && len(fragments) > 0 {
			return fragments
		}
		if err != nil {
			d.logger.Warn("capability decomposition failed, using rules", zap.Error(err))
		}
	}
	return splitWithRules(text)
}

// splitWithRules splits on conjunctions and keeps parts that still look like
// questions. A query with no split points yields nothing, not itself; the
// caller decides whether the whole query stands in.
func splitWithRules(text string) []string {
	parts := []string{text}
	for _, sep := range []string{" and ", " as well as ", " also "} {
		var next []string
		for _, part := range parts {
			for _, s := range strings.Split(part, sep) {
				if s = strings.TrimSpace(s); s != "" {
					next = append(next, s)
				}
			}
		}
		parts = next
	}

	if len(parts) <= 1 {
		return nil
	}

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if len(strings.Fields(part)) >= 2 {
			out = append(out, part)
		}
	}
	return out
}
