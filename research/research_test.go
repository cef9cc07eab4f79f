package research

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BaSui01/faqflow/types"
)

func TestResearchConvertsHits(t *testing.T) {
	searchFn := func(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
		return []WebResult{
			{URL: "https://example.org/diabetes", Title: "Diabetes", Content: "overview of diabetes", Score: 0.8},
			{URL: "https://example.org/symptoms", Title: "Symptoms", Content: "symptom list", Score: 0.6},
			{URL: "https://example.org/diabetes", Title: "Duplicate", Content: "dup", Score: 0.9},
		}, nil
	}

	wr := New(Config{CacheTTL: -1}, searchFn, nil)
	result, err := wr.Research(context.Background(), "q-1", "diabetes symptoms")
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if result.QueryID != "q-1" {
		t.Fatalf("query id = %q", result.QueryID)
	}
	if len(result.Candidates) != 2 || len(result.URLs) != 2 {
		t.Fatalf("got %d candidates %d urls, want 2 each", len(result.Candidates), len(result.URLs))
	}
	for _, c := range result.Candidates {
		if c.Source != types.SourceWeb {
			t.Fatalf("source = %q, want web", c.Source)
		}
		if c.Provenance == "" {
			t.Fatal("candidate missing provenance")
		}
	}
	if result.Confidence != 0.8 {
		t.Fatalf("confidence = %f, want max hit score 0.8", result.Confidence)
	}
}

func TestResearchNoProvider(t *testing.T) {
	wr := New(DefaultConfig(), nil, nil)
	_, err := wr.Research(context.Background(), "q-1", "anything")
	if !types.IsErrorCode(err, types.ErrResearchUnavailable) {
		t.Fatalf("err = %v, want RESEARCH_UNAVAILABLE", err)
	}
}

func TestResearchProviderFailure(t *testing.T) {
	searchFn := func(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
		return nil, errors.New("search backend down")
	}
	wr := New(Config{CacheTTL: -1}, searchFn, nil)
	_, err := wr.Research(context.Background(), "q-1", "anything")
	if !types.IsErrorCode(err, types.ErrResearchUnavailable) {
		t.Fatalf("err = %v, want RESEARCH_UNAVAILABLE", err)
	}
	if !types.IsRetryable(err) {
		t.Fatal("provider failure should be retryable")
	}
}

func TestResearchTimeout(t *testing.T) {
	searchFn := func(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	wr := New(Config{Timeout: 20 * time.Millisecond, CacheTTL: -1}, searchFn, nil)
	_, err := wr.Research(context.Background(), "q-1", "anything")
	if !types.IsErrorCode(err, types.ErrResearchTimeout) {
		t.Fatalf("err = %v, want RESEARCH_TIMEOUT", err)
	}
}

func TestResearchCanceledIsNotTimeout(t *testing.T) {
	var called atomic.Bool
	searchFn := func(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
		called.Store(true)
		return nil, nil
	}
	wr := New(Config{CacheTTL: -1}, searchFn, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := wr.Research(ctx, "q-1", "anything")
	if !types.IsErrorCode(err, types.ErrResearchUnavailable) {
		t.Fatalf("err = %v, want RESEARCH_UNAVAILABLE", err)
	}
	if types.IsErrorCode(err, types.ErrResearchTimeout) {
		t.Fatal("caller cancellation must not be reported as a timeout")
	}
	if called.Load() {
		t.Fatal("provider must not run after cancellation")
	}
}

func TestResearchCacheSkipsProvider(t *testing.T) {
	var calls atomic.Int64
	searchFn := func(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
		calls.Add(1)
		return []WebResult{{URL: "https://example.org/a", Content: "cached content", Score: 0.7}}, nil
	}

	wr := New(Config{CacheTTL: time.Minute}, searchFn, nil)
	if _, err := wr.Research(context.Background(), "q-1", "Flu Season"); err != nil {
		t.Fatalf("first Research: %v", err)
	}
	second, err := wr.Research(context.Background(), "q-2", "  flu season ")
	if err != nil {
		t.Fatalf("second Research: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("provider called %d times, want 1", got)
	}
	if second.QueryID != "q-2" {
		t.Fatalf("cached result query id = %q, want rebind to q-2", second.QueryID)
	}
}

func TestResearchMaxResultsPassedThrough(t *testing.T) {
	var seen int
	searchFn := func(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
		seen = maxResults
		return nil, nil
	}
	wr := New(Config{MaxResults: 3, CacheTTL: -1}, searchFn, nil)
	result, err := wr.Research(context.Background(), "q-1", "anything")
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if seen != 3 {
		t.Fatalf("maxResults = %d, want 3", seen)
	}
	if len(result.Candidates) != 0 || result.Confidence != 0 {
		t.Fatalf("empty research should carry zero confidence, got %+v", result)
	}
}
