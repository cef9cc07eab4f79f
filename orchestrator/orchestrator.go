package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/faqflow/decompose"
	"github.com/BaSui01/faqflow/internal/metrics"
	"github.com/BaSui01/faqflow/render"
	"github.com/BaSui01/faqflow/research"
	"github.com/BaSui01/faqflow/retrieval"
	"github.com/BaSui01/faqflow/synthesize"
	"github.com/BaSui01/faqflow/types"
)

// Config holds the orchestrator's thresholds and timeouts.
type Config struct {
	// EscalationConfidenceThreshold gates the fallback to web research.
	EscalationConfidenceThreshold float64 `yaml:"escalation_confidence_threshold" json:"escalation_confidence_threshold"`

	// RetrievalTimeout bounds the whole retrieval plus research span of one
	// query. On expiry the pipeline synthesizes whatever partial results
	// arrived.
	RetrievalTimeout time.Duration `yaml:"retrieval_timeout" json:"retrieval_timeout"`

	// ResearchTimeout bounds the research call inside the span.
	ResearchTimeout time.Duration `yaml:"research_timeout" json:"research_timeout"`

	// MaxConcurrentRetrievals bounds per-query sub-question fan-out.
	MaxConcurrentRetrievals int `yaml:"max_concurrent_retrievals" json:"max_concurrent_retrievals"`
}

// DefaultConfig returns the standard thresholds and timeouts.
func DefaultConfig() Config {
	return Config{
		EscalationConfidenceThreshold: 0.5,
		RetrievalTimeout:              30 * time.Second,
		ResearchTimeout:               10 * time.Second,
		MaxConcurrentRetrievals:       4,
	}
}

// Orchestrator runs the per-query state machine. It holds no cross-query
// mutable state; one instance serves concurrent queries.
type Orchestrator struct {
	config      Config
	decomposer  decompose.Decomposer
	coordinator retrieval.Coordinator
	policy      synthesize.EscalationPolicy
	synthesizer synthesize.Synthesizer
	researcher  research.Researcher
	renderer    render.Renderer
	metrics     *metrics.Collector
	logger      *zap.Logger
}

// Option configures optional collaborators.
type Option func(*Orchestrator)

// WithResearcher installs the external research fallback.
func WithResearcher(r research.Researcher) Option {
	return func(o *Orchestrator) { o.researcher = r }
}

// WithRenderer installs the rendering boundary. Without one, responses carry
// the raw draft answer.
func WithRenderer(r render.Renderer) Option {
	return func(o *Orchestrator) { o.renderer = r }
}

// WithPolicy replaces the default threshold escalation policy.
func WithPolicy(p synthesize.EscalationPolicy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithMetrics installs a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator over the required pipeline components.
func New(config Config, decomposer decompose.Decomposer, coordinator retrieval.Coordinator, synthesizer synthesize.Synthesizer, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if config.EscalationConfidenceThreshold <= 0 {
		config.EscalationConfidenceThreshold = defaults.EscalationConfidenceThreshold
	}
	if config.RetrievalTimeout <= 0 {
		config.RetrievalTimeout = defaults.RetrievalTimeout
	}
	if config.ResearchTimeout <= 0 {
		config.ResearchTimeout = defaults.ResearchTimeout
	}
	if config.MaxConcurrentRetrievals <= 0 {
		config.MaxConcurrentRetrievals = defaults.MaxConcurrentRetrievals
	}

	o := &Orchestrator{
		config:      config,
		decomposer:  decomposer,
		coordinator: coordinator,
		policy:      synthesize.NewThresholdPolicy(config.EscalationConfidenceThreshold),
		synthesizer: synthesizer,
		logger:      logger.With(zap.String("component", "orchestrator")),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process answers one chat request. It never returns an error; failures
// surface as a ChatResponse with status "error" and the technical detail in
// the Error field.
func (o *Orchestrator) Process(ctx context.Context, req types.ChatRequest) *types.ChatResponse {
	start := time.Now()
	state := StateReceived

	query, err := types.NewQuery(req.Query, req.Context)
	if err != nil {
		o.metrics.RecordQuery("invalid", time.Since(start))
		return errorResponse("", "Your question appears to be empty. Please try again.", err)
	}
	log := o.logger.With(zap.String("query_id", query.ID))

	subs := o.decomposeQuery(ctx, log, query)
	state = o.transition(log, state, StateDecomposed)

	spanCtx := ctx
	if o.config.RetrievalTimeout > 0 {
		var cancel context.CancelFunc
		spanCtx, cancel = context.WithTimeout(ctx, o.config.RetrievalTimeout)
		defer cancel()
	}

	state = o.transition(log, state, StateRetrieving)
	results := o.retrieveAll(spanCtx, subs)

	var researchResult *types.ResearchResult
	if o.policy.ShouldEscalate(results) {
		state = o.transition(log, state, StateEscalating)
		o.metrics.RecordEscalation()
		state = o.transition(log, state, StateResearching)
		researchResult = o.doResearch(spanCtx, log, query)
	}

	state = o.transition(log, state, StateSynthesizing)
	answer, err := o.synthesizer.Synthesize(ctx, query.ID, results, researchResult)
	if err != nil {
		o.transition(log, state, StateFailed)
		o.metrics.RecordQuery("error", time.Since(start))
		log.Error("synthesis failed", zap.Error(err))
		return errorResponse(query.ID,
			"Something went wrong while answering your question. Please try again.", err)
	}

	response := o.renderAnswer(ctx, log, answer)
	state = o.transition(log, state, StateRendered)
	o.transition(log, state, StateDone)

	o.metrics.RecordQuery(string(answer.Status), time.Since(start))
	log.Info("query processed",
		zap.String("status", string(answer.Status)),
		zap.Float64("confidence", answer.Confidence),
		zap.Duration("duration", time.Since(start)))
	return response
}

// decomposeQuery degrades to the whole query as a single sub-question when
// decomposition fails; a failed split never fails the query.
func (o *Orchestrator) decomposeQuery(ctx context.Context, log *zap.Logger, query *types.Query) []types.SubQuestion {
	subs, err := o.decomposer.Decompose(ctx, query)
	if err != nil || len(subs) == 0 {
		if err != nil {
			log.Warn("decomposition failed, using original query", zap.Error(err))
		}
		return []types.SubQuestion{decompose.Single(query)}
	}
	return subs
}

// retrieveAll fans out one coordinator call per sub-question. Results keep
// sub-question order regardless of completion order; a span timeout leaves
// the partial results already gathered in place.
func (o *Orchestrator) retrieveAll(ctx context.Context, subs []types.SubQuestion) []types.RetrievalResult {
	results := make([]types.RetrievalResult, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.MaxConcurrentRetrievals)
	for i, sub := range subs {
		g.Go(func() error {
			results[i] = *o.coordinator.Retrieve(gctx, sub)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// doResearch consults the external researcher under its own timeout. Any
// failure degrades to no research.
func (o *Orchestrator) doResearch(ctx context.Context, log *zap.Logger, query *types.Query) *types.ResearchResult {
	if o.researcher == nil {
		o.metrics.RecordResearch("skipped")
		return nil
	}

	researchCtx := ctx
	if o.config.ResearchTimeout > 0 {
		var cancel context.CancelFunc
		researchCtx, cancel = context.WithTimeout(ctx, o.config.ResearchTimeout)
		defer cancel()
	}

	result, err := o.researcher.Research(researchCtx, query.ID, query.Text)
	if err != nil {
		outcome := "error"
		if types.IsErrorCode(err, types.ErrResearchTimeout) {
			outcome = "timeout"
		}
		o.metrics.RecordResearch(outcome)
		log.Warn("research unavailable, synthesizing without it", zap.Error(err))
		return nil
	}
	o.metrics.RecordResearch("ok")
	return result
}

// renderAnswer hands the answer to the rendering boundary, degrading to
// plain text when rendering fails or no renderer is installed.
func (o *Orchestrator) renderAnswer(ctx context.Context, log *zap.Logger, answer *types.SynthesizedAnswer) *types.ChatResponse {
	renderer := o.renderer
	if renderer == nil {
		renderer = render.NewTextRenderer(nil)
	}

	payload, err := renderer.Render(ctx, answer, render.FormatPreferences{IncludeLinks: true})
	if err != nil {
		log.Warn("rendering failed, degrading to plain text", zap.Error(err))
		payload, err = render.NewTextRenderer(nil).Render(ctx, answer, render.FormatPreferences{})
		if err != nil {
			return errorResponse(answer.QueryID,
				"Something went wrong while formatting the answer.", err)
		}
		payload.Degraded = true
	}

	status := "success"
	if answer.Status == types.StatusError {
		status = "error"
	}
	return &types.ChatResponse{
		Response:   payload.Text,
		Sources:    payload.Sources,
		Status:     status,
		Confidence: answer.Confidence,
		QueryID:    answer.QueryID,
	}
}

// transition logs a state change and returns the new state.
func (o *Orchestrator) transition(log *zap.Logger, from, to State) State {
	log.Debug("state transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return to
}

func errorResponse(queryID, message string, err error) *types.ChatResponse {
	return &types.ChatResponse{
		Response: message,
		Sources:  []string{},
		Status:   "error",
		QueryID:  queryID,
		Error:    err.Error(),
	}
}
