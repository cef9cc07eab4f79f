package capability

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/BaSui01/faqflow/types"
)

// Provider generates a completion for a prompt. Implementations are expected
// to be safe for concurrent use.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// numberedLine strips "1." / "2)" style prefixes from model output.
var numberedLine = regexp.MustCompile(`^\d+[\.\)]\s*`)

// Decompose asks the provider to split a complex query into at most max
// independent sub-questions, one per line.
func Decompose(ctx context.Context, p Provider, query string, max int) ([]string, error) {
	if p == nil {
		return nil, types.NewError(types.ErrCapabilityFailed, "no provider configured")
	}

	prompt := fmt.Sprintf(`Break down the following medical question into at most %d simpler, independent sub-questions.
Each sub-question should be self-contained and answerable on its own.
Return only the sub-questions, one per line.

Question: %s

Sub-questions:`, max, query)

	response, err := p.Complete(ctx, prompt)
	if err != nil {
		return nil, types.NewError(types.ErrCapabilityFailed, "decomposition completion failed").WithCause(err)
	}
	return parseLines(response, max), nil
}

// Rewrite asks the provider for a single retrieval-optimized rewrite of a
// query. The first non-empty line of the response wins.
func Rewrite(ctx context.Context, p Provider, query string) (string, error) {
	if p == nil {
		return "", types.NewError(types.ErrCapabilityFailed, "no provider configured")
	}

	prompt := fmt.Sprintf(`Rewrite the following medical question to be more effective for knowledge base retrieval.
Remove filler words, keep clinical terms intact, and keep the core meaning.
Return only the rewritten question.

Question: %s

Rewritten question:`, query)

	response, err := p.Complete(ctx, prompt)
	if err != nil {
		return "", types.NewError(types.ErrCapabilityFailed, "rewrite completion failed").WithCause(err)
	}

	lines := parseLines(response, 1)
	if len(lines) == 0 {
		return "", types.NewError(types.ErrCapabilityFailed, "empty rewrite response")
	}
	return lines[0], nil
}

// Classify asks the provider whether a query is complex enough to need
// decomposition. Any response whose first word is not "complex" counts as
// simple.
func Classify(ctx context.Context, p Provider, query string) (bool, error) {
	if p == nil {
		return false, types.NewError(types.ErrCapabilityFailed, "no provider configured")
	}

	prompt := fmt.Sprintf(`Classify the following medical question as "simple" or "complex".
A question is complex when it asks about several conditions at once, compares
treatments, or chains multiple sub-questions together.
Respond with a single word.

Question: %s

Classification:`, query)

	response, err := p.Complete(ctx, prompt)
	if err != nil {
		return false, types.NewError(types.ErrCapabilityFailed, "classification completion failed").WithCause(err)
	}

	first := strings.ToLower(strings.TrimSpace(response))
	if i := strings.IndexAny(first, " \t\n,."); i >= 0 {
		first = first[:i]
	}
	return first == "complex", nil
}

func parseLines(response string, max int) []string {
	lines := strings.Split(strings.TrimSpace(response), "\n")
	out := make([]string, 0, max)
	for _, line := range lines {
		line = strings.TrimSpace(numberedLine.ReplaceAllString(strings.TrimSpace(line), ""))
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) >= max {
			break
		}
	}
	return out
}
