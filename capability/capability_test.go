package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/BaSui01/faqflow/types"
)

type fakeProvider struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestDecompose_ParsesNumberedLines(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{response: "1. What is diabetes?\n2) What are the symptoms of diabetes?\n\n3. How is diabetes treated?\n4. extra"}
	subs, err := Decompose(context.Background(), p, "tell me everything about diabetes", 3)
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("expected 3 sub-questions, got %d: %v", len(subs), subs)
	}
	if subs[0] != "What is diabetes?" {
		t.Fatalf("unexpected first sub-question: %q", subs[0])
	}
	if subs[2] != "How is diabetes treated?" {
		t.Fatalf("unexpected third sub-question: %q", subs[2])
	}
}

func TestDecompose_ProviderFailure(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{err: errors.New("rate limited")}
	_, err := Decompose(context.Background(), p, "q", 3)
	if !types.IsErrorCode(err, types.ErrCapabilityFailed) {
		t.Fatalf("expected CAPABILITY_FAILED, got %v", err)
	}

	if _, err := Decompose(context.Background(), nil, "q", 3); err == nil {
		t.Fatal("expected error for nil provider")
	}
}

func TestRewrite_TakesFirstLine(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{response: "\"diabetes symptoms\"\nsome trailing explanation"}
	got, err := Rewrite(context.Background(), p, "can you tell me what the symptoms of diabetes are?")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got != "diabetes symptoms" {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		response string
		want     bool
	}{
		{"complex", true},
		{"Complex.", true},
		{"complex, because it compares treatments", true},
		{"simple", false},
		{"SIMPLE\n", false},
		{"unsure", false},
	}
	for _, tc := range cases {
		p := &fakeProvider{response: tc.response}
		got, err := Classify(context.Background(), p, "q")
		if err != nil {
			t.Fatalf("Classify(%q): %v", tc.response, err)
		}
		if got != tc.want {
			t.Fatalf("Classify(%q): expected %v, got %v", tc.response, tc.want, got)
		}
	}
}
