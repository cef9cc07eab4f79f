// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package render turns a SynthesizedAnswer into a presentation-ready
// payload. The text renderer is the degraded baseline every deployment
// carries; richer renderers plug in behind the same interface.
package render

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/faqflow/types"
)

// InteractiveElement names an optional interactive block a renderer may emit.
type InteractiveElement string

const (
	ElementExpandableSections InteractiveElement = "expandable_sections"
	ElementTables             InteractiveElement = "tables"
	ElementDecisionTree       InteractiveElement = "decision_tree"
)

// FormatPreferences is the caller's rendering request.
type FormatPreferences struct {
	IncludeImages       bool                 `json:"include_images"`
	IncludeLinks        bool                 `json:"include_links"`
	InteractiveElements []InteractiveElement `json:"interactive_elements,omitempty"`
}

// Payload is the rendered output handed back to the caller.
type Payload struct {
	Text     string   `json:"text"`
	Sources  []string `json:"sources"`
	Links    []string `json:"links,omitempty"`
	Degraded bool     `json:"degraded,omitempty"`
}

// Renderer formats a synthesized answer. Implementations fail with
// RENDERING_FAILED; callers then degrade to the text renderer.
type Renderer interface {
	Render(ctx context.Context, answer *types.SynthesizedAnswer, prefs FormatPreferences) (*Payload, error)
}

// TextRenderer produces the plain-text degraded form. It never fails on a
// valid answer.
type TextRenderer struct {
	logger *zap.Logger
}

func NewTextRenderer(logger *zap.Logger) *TextRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextRenderer{logger: logger.With(zap.String("component", "text_renderer"))}
}

func (r *TextRenderer) Render(ctx context.Context, answer *types.SynthesizedAnswer, prefs FormatPreferences) (*Payload, error) {
	_ = ctx
	if answer == nil {
		return nil, types.NewError(types.ErrRenderingFailed, "nil answer")
	}

	var b strings.Builder
	text := strings.TrimSpace(answer.Answer)
	if text == "" {
		text = fallbackText(answer.Status)
	}
	b.WriteString(text)

	sources := make([]string, 0, len(answer.Sources))
	for _, s := range answer.Sources {
		sources = append(sources, string(s))
	}
	if len(sources) > 0 {
		b.WriteString(fmt.Sprintf("\n\nSources: %s", strings.Join(sources, ", ")))
	}
	if answer.Status == types.StatusPartial {
		b.WriteString("\n\nNote: this answer may be incomplete.")
	}

	return &Payload{
		Text:    b.String(),
		Sources: sources,
	}, nil
}

func fallbackText(status types.AnswerStatus) string {
	switch status {
	case types.StatusError:
		return "Something went wrong while answering your question. Please try again."
	default:
		return "I could not find reliable information for your question."
	}
}
