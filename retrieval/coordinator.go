package retrieval

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/faqflow/capability"
	"github.com/BaSui01/faqflow/internal/metrics"
	"github.com/BaSui01/faqflow/types"
)

// Coordinator retrieves candidates for one sub-question across the graph
// and vector adapters.
type Coordinator interface {
	Retrieve(ctx context.Context, sub types.SubQuestion) *types.RetrievalResult
}

// ResultCache is the optional retrieval cache contract; implemented by
// internal/cache on redis. Keys come from cacheKeyFor.
type ResultCache interface {
	Get(ctx context.Context, key string) *types.RetrievalResult
	Set(ctx context.Context, key string, result *types.RetrievalResult)
}

// Config configures the standard coordinator.
type Config struct {
	// TopK bounds candidates requested from each adapter and kept after
	// the merge.
	TopK int `yaml:"top_k" json:"top_k"`

	// AdapterTimeout bounds each individual adapter call.
	AdapterTimeout time.Duration `yaml:"adapter_timeout" json:"adapter_timeout"`

	// RewriteThreshold triggers the single query-rewrite retry when the
	// first-pass confidence lands below it. Zero disables rewriting.
	RewriteThreshold float64 `yaml:"rewrite_threshold" json:"rewrite_threshold"`

	// Weights of the confidence score.
	Weights ConfidenceWeights `yaml:"weights" json:"weights"`
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		TopK:             10,
		AdapterTimeout:   5 * time.Second,
		RewriteThreshold: 0.4,
		Weights:          DefaultConfidenceWeights(),
	}
}

// StandardCoordinator implements Coordinator. Adapter failures never abort a
// retrieval; they are recorded in the result's SourceErrors and degrade that
// source to zero candidates.
type StandardCoordinator struct {
	config   Config
	graph    GraphAdapter
	vector   VectorAdapter
	rewriter capability.Provider
	cache    ResultCache
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// Option configures optional coordinator collaborators.
type Option func(*StandardCoordinator)

// WithRewriter installs the capability used for the low-confidence rewrite
// retry.
func WithRewriter(p capability.Provider) Option {
	return func(c *StandardCoordinator) { c.rewriter = p }
}

// WithCache installs a retrieval result cache.
func WithCache(cache ResultCache) Option {
	return func(c *StandardCoordinator) { c.cache = cache }
}

// WithMetrics installs a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *StandardCoordinator) { c.metrics = m }
}

// NewCoordinator creates a coordinator over the two adapters. Either adapter
// may be nil; a nil adapter simply never contributes candidates.
func NewCoordinator(config Config, graph GraphAdapter, vector VectorAdapter, logger *zap.Logger, opts ...Option) *StandardCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TopK <= 0 {
		config.TopK = 10
	}
	if config.Weights.MaxScore == 0 && config.Weights.Coverage == 0 {
		config.Weights = DefaultConfidenceWeights()
	}

	c := &StandardCoordinator{
		config: config,
		graph:  graph,
		vector: vector,
		logger: logger.With(zap.String("component", "retrieval_coordinator")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sourcePass is the outcome of one adapter call.
type sourcePass struct {
	candidates []types.CandidateRecord
	err        error
}

// Retrieve runs the full retrieval for one sub-question: concurrent
// fan-out, merge, confidence scoring, and at most one rewrite retry.
func (c *StandardCoordinator) Retrieve(ctx context.Context, sub types.SubQuestion) *types.RetrievalResult {
	cacheKey := cacheKeyFor(sub)
	if c.cache != nil {
		if cached := c.cache.Get(ctx, cacheKey); cached != nil {
			c.metrics.RecordCache(true)
			cached.SubQuestion = sub
			return cached
		}
		c.metrics.RecordCache(false)
	}

	result, firstAnswered := c.pass(ctx, sub, sub.Text)

	if c.rewriter != nil && c.config.RewriteThreshold > 0 && result.Confidence < c.config.RewriteThreshold {
		rewritten, err := capability.Rewrite(ctx, c.rewriter, sub.Text)
		if err != nil {
			c.logger.Debug("rewrite unavailable, keeping first pass", zap.Error(err))
		} else if rewritten != "" && rewritten != sub.Text {
			second, secondAnswered := c.pass(ctx, sub, rewritten)
			merged := Merge(result.Candidates, second.Candidates)
			if len(merged) > c.config.TopK {
				merged = merged[:c.config.TopK]
			}
			answered, errs := combinePasses(result, second, firstAnswered, secondAnswered)
			retried := &types.RetrievalResult{
				SubQuestion:  sub,
				Candidates:   merged,
				Confidence:   Confidence(merged, answered, 2, c.config.Weights),
				Rewritten:    rewritten,
				SourceErrors: errs,
			}
			if retried.Confidence > result.Confidence {
				result = retried
			}
		}
	}

	c.logger.Info("retrieval complete",
		zap.String("query_id", sub.QueryID),
		zap.Int("priority", sub.Priority),
		zap.Int("candidates", len(result.Candidates)),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("rewritten", result.Rewritten != ""))

	if c.cache != nil && !result.Failed() {
		c.cache.Set(ctx, cacheKey, result)
	}
	return result
}

// pass performs one concurrent graph+vector retrieval for the given text.
// The returned map records which sources answered with at least one
// candidate before the merge truncates to TopK; coverage is always scored
// from these raw counts, never from the merged output.
func (c *StandardCoordinator) pass(ctx context.Context, sub types.SubQuestion, text string) (*types.RetrievalResult, map[types.Source]bool) {
	var graphPass, vectorPass sourcePass

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		graphPass = c.query(gctx, types.SourceGraph, func(qctx context.Context) ([]types.CandidateRecord, error) {
			if c.graph == nil {
				return nil, nil
			}
			return c.graph.Search(qctx, text, filtersFor(sub), c.config.TopK)
		})
		return nil
	})
	g.Go(func() error {
		vectorPass = c.query(gctx, types.SourceVector, func(qctx context.Context) ([]types.CandidateRecord, error) {
			if c.vector == nil {
				return nil, nil
			}
			return c.vector.Search(qctx, text, filtersFor(sub), c.config.TopK)
		})
		return nil
	})
	_ = g.Wait()

	merged := Merge(graphPass.candidates, vectorPass.candidates)
	if len(merged) > c.config.TopK {
		merged = merged[:c.config.TopK]
	}

	answeredBy := map[types.Source]bool{
		types.SourceGraph:  len(graphPass.candidates) > 0,
		types.SourceVector: len(vectorPass.candidates) > 0,
	}
	answered := 0
	for _, ok := range answeredBy {
		if ok {
			answered++
		}
	}

	errs := make(map[types.Source]string)
	if graphPass.err != nil {
		errs[types.SourceGraph] = graphPass.err.Error()
	}
	if vectorPass.err != nil {
		errs[types.SourceVector] = vectorPass.err.Error()
	}
	if len(errs) == 0 {
		errs = nil
	}

	return &types.RetrievalResult{
		SubQuestion:  sub,
		Candidates:   merged,
		Confidence:   Confidence(merged, answered, 2, c.config.Weights),
		SourceErrors: errs,
	}, answeredBy
}

// query runs one adapter call under the adapter timeout and converts any
// failure into an empty pass.
func (c *StandardCoordinator) query(ctx context.Context, source types.Source, fn func(context.Context) ([]types.CandidateRecord, error)) sourcePass {
	if c.config.AdapterTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.AdapterTimeout)
		defer cancel()
	}

	start := time.Now()
	candidates, err := fn(ctx)
	c.metrics.RecordRetrieval(string(source), time.Since(start), err != nil)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = types.NewError(types.ErrAdapterTimeout, "adapter call timed out").
				WithSource(source).WithCause(err).WithRetryable(true)
		} else if types.GetErrorCode(err) == "" {
			err = types.NewError(types.ErrAdapterUnavailable, "adapter call failed").
				WithSource(source).WithCause(err).WithRetryable(true)
		}
		c.logger.Warn("adapter degraded to zero candidates",
			zap.String("source", string(source)),
			zap.Error(err))
		return sourcePass{err: err}
	}
	return sourcePass{candidates: candidates}
}

// combinePasses merges coverage and error bookkeeping of two passes: a
// source counts as answered if it returned candidates in either pass (per
// the raw pre-truncation flags), and an error is kept only if the source
// failed in both.
func combinePasses(first, second *types.RetrievalResult, firstAnswered, secondAnswered map[types.Source]bool) (int, map[types.Source]string) {
	answered := 0
	errs := make(map[types.Source]string)
	for _, source := range []types.Source{types.SourceGraph, types.SourceVector} {
		if firstAnswered[source] || secondAnswered[source] {
			answered++
			continue
		}
		firstErr, okFirst := first.SourceErrors[source]
		_, okSecond := second.SourceErrors[source]
		if okFirst && okSecond {
			errs[source] = firstErr
		}
	}
	if len(errs) == 0 {
		errs = nil
	}
	return answered, errs
}

// filtersFor exposes sub-question entities to adapters that can use them.
func filtersFor(sub types.SubQuestion) Filters {
	if len(sub.Entities) == 0 {
		return nil
	}
	return Filters{"entity": sub.Entities[0]}
}

// cacheKeyFor builds the cache lookup key. Entities are part of the key
// because filtersFor makes adapter results depend on them; two
// sub-questions with the same text but different entities must not share
// an entry.
func cacheKeyFor(sub types.SubQuestion) string {
	if len(sub.Entities) == 0 {
		return sub.Text
	}
	return sub.Text + "|" + strings.Join(sub.Entities, ",")
}
