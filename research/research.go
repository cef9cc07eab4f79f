package research

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/faqflow/types"
)

// WebResult is one raw hit from the injected search provider.
type WebResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchFunc performs one web search. It decouples the researcher from any
// specific search provider; callers wrap their provider client in this shape.
type SearchFunc func(ctx context.Context, query string, maxResults int) ([]WebResult, error)

// Researcher is the external fallback consulted when internal knowledge
// sources come back empty or with low confidence.
type Researcher interface {
	Research(ctx context.Context, queryID, queryText string) (*types.ResearchResult, error)
}

// Config tunes the web researcher.
type Config struct {
	MaxResults        int           `yaml:"max_results" json:"max_results"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	CacheTTL          time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int           `yaml:"burst" json:"burst"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxResults:        5,
		Timeout:           10 * time.Second,
		CacheTTL:          30 * time.Minute,
		RequestsPerSecond: 2,
		Burst:             4,
	}
}

// WebResearcher implements Researcher over an injected SearchFunc with
// client-side rate limiting and a TTL result cache.
type WebResearcher struct {
	config   Config
	searchFn SearchFunc
	limiter  *rate.Limiter
	cache    *resultCache
	logger   *zap.Logger
}

// New creates a WebResearcher. searchFn may be nil, in which case every
// Research call fails with RESEARCH_UNAVAILABLE.
func New(config Config, searchFn SearchFunc, logger *zap.Logger) *WebResearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxResults <= 0 {
		config.MaxResults = DefaultConfig().MaxResults
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = DefaultConfig().Burst
	}

	wr := &WebResearcher{
		config:   config,
		searchFn: searchFn,
		limiter:  rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		logger:   logger.With(zap.String("component", "web_researcher")),
	}
	if config.CacheTTL > 0 {
		wr.cache = newResultCache(config.CacheTTL)
	}
	return wr
}

// Research performs one bounded web search and converts the hits into web
// candidates. Timeouts surface as RESEARCH_TIMEOUT and provider failures as
// RESEARCH_UNAVAILABLE; both are retryable and callers degrade to synthesis
// without research.
func (wr *WebResearcher) Research(ctx context.Context, queryID, queryText string) (*types.ResearchResult, error) {
	if wr.searchFn == nil {
		return nil, types.NewError(types.ErrResearchUnavailable, "no search provider configured").
			WithSource(types.SourceWeb)
	}

	if wr.cache != nil {
		if cached, ok := wr.cache.get(queryText); ok {
			wr.logger.Debug("research cache hit", zap.String("query_id", queryID))
			result := *cached
			result.QueryID = queryID
			return &result, nil
		}
	}

	searchCtx, cancel := context.WithTimeout(ctx, wr.config.Timeout)
	defer cancel()

	if err := wr.limiter.Wait(searchCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(searchCtx.Err(), context.DeadlineExceeded) {
			return nil, types.NewError(types.ErrResearchTimeout, "rate limit wait exceeded research timeout").
				WithSource(types.SourceWeb).WithRetryable(true).WithCause(err)
		}
		// Plain cancellation of the caller's context is not a timeout.
		return nil, types.NewError(types.ErrResearchUnavailable, "research canceled while rate limited").
			WithSource(types.SourceWeb).WithCause(err)
	}

	start := time.Now()
	hits, err := wr.searchFn(searchCtx, queryText, wr.config.MaxResults)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(searchCtx.Err(), context.DeadlineExceeded) {
			return nil, types.NewError(types.ErrResearchTimeout, "web search timed out").
				WithSource(types.SourceWeb).WithRetryable(true).WithCause(err)
		}
		return nil, types.NewError(types.ErrResearchUnavailable, "web search failed").
			WithSource(types.SourceWeb).WithRetryable(true).WithCause(err)
	}

	result := wr.convert(queryID, hits)
	wr.logger.Info("research completed",
		zap.String("query_id", queryID),
		zap.Int("hits", len(hits)),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("duration", time.Since(start)))

	if wr.cache != nil && len(result.Candidates) > 0 {
		wr.cache.set(queryText, result)
	}
	return result, nil
}

// convert turns raw hits into deduplicated web candidates. Provenance is a
// short hash of the URL so citations survive even when URLs are long.
func (wr *WebResearcher) convert(queryID string, hits []WebResult) *types.ResearchResult {
	result := &types.ResearchResult{QueryID: queryID}
	seen := make(map[string]bool, len(hits))
	var best float64

	for _, hit := range hits {
		url := strings.TrimSpace(hit.URL)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true

		candidate, err := types.NewCandidateRecord(
			types.SourceWeb, hit.Content, "web_"+urlHash(url), hit.Score)
		if err != nil {
			continue
		}
		result.Candidates = append(result.Candidates, candidate)
		result.URLs = append(result.URLs, url)
		if candidate.Score > best {
			best = candidate.Score
		}
	}
	result.Confidence = best
	return result
}

func urlHash(url string) string {
	h := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", h[:8])
}

type resultCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	result    *types.ResearchResult
	expiresAt time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

func (c *resultCache) get(query string) (*types.ResearchResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(query)]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.result, true
}

func (c *resultCache) set(query string, result *types.ResearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(query)] = &cacheEntry{
		result:    result,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
