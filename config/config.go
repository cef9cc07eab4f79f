package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the full FAQFlow configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" env:"PIPELINE"`
	Redis    RedisConfig    `yaml:"redis" env:"REDIS"`
	Mongo    MongoConfig    `yaml:"mongo" env:"MONGO"`
	Graph    GraphConfig    `yaml:"graph" env:"GRAPH"`
	Research ResearchConfig `yaml:"research" env:"RESEARCH"`
	LLM      LLMConfig      `yaml:"llm" env:"LLM"`
	Log      LogConfig      `yaml:"log" env:"LOG"`
}

// PipelineConfig holds the retrieval pipeline thresholds and timeouts.
type PipelineConfig struct {
	EscalationConfidenceThreshold float64       `yaml:"escalation_confidence_threshold" env:"ESCALATION_CONFIDENCE_THRESHOLD"`
	RewriteConfidenceThreshold    float64       `yaml:"rewrite_confidence_threshold" env:"REWRITE_CONFIDENCE_THRESHOLD"`
	SuccessThreshold              float64       `yaml:"success_threshold" env:"SUCCESS_THRESHOLD"`
	RetrievalTimeout              time.Duration `yaml:"retrieval_timeout" env:"RETRIEVAL_TIMEOUT"`
	ResearchTimeout               time.Duration `yaml:"research_timeout" env:"RESEARCH_TIMEOUT"`
	AdapterTimeout                time.Duration `yaml:"adapter_timeout" env:"ADAPTER_TIMEOUT"`
	TopK                          int           `yaml:"top_k" env:"TOP_K"`
	MaxSubQuestions               int           `yaml:"max_sub_questions" env:"MAX_SUB_QUESTIONS"`
	MaxConcurrentRetrievals       int           `yaml:"max_concurrent_retrievals" env:"MAX_CONCURRENT_RETRIEVALS"`
}

// RedisConfig covers the retrieval cache and the feedback queue.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	PoolSize int           `yaml:"pool_size" env:"POOL_SIZE"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// MongoConfig covers the feedback archive.
type MongoConfig struct {
	Enabled    bool   `yaml:"enabled" env:"ENABLED"`
	URI        string `yaml:"uri" env:"URI"`
	Database   string `yaml:"database" env:"DATABASE"`
	Collection string `yaml:"collection" env:"COLLECTION"`
}

// GraphConfig covers the entity graph store.
type GraphConfig struct {
	// DSN is the sqlite path, or ":memory:" for an ephemeral store.
	DSN string `yaml:"dsn" env:"DSN"`
	// Seed loads the starter medical dataset on startup.
	Seed bool `yaml:"seed" env:"SEED"`
}

// ResearchConfig covers the web research fallback.
type ResearchConfig struct {
	Enabled           bool          `yaml:"enabled" env:"ENABLED"`
	MaxResults        int           `yaml:"max_results" env:"MAX_RESULTS"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	CacheTTL          time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
}

// LLMConfig covers the optional capability provider used for classification,
// decomposition, and query rewriting.
type LLMConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Model   string        `yaml:"model" env:"MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level            string `yaml:"level" env:"LEVEL"`
	Format           string `yaml:"format" env:"FORMAT"`
	EnableCaller     bool   `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool   `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			EscalationConfidenceThreshold: 0.5,
			RewriteConfidenceThreshold:    0.4,
			SuccessThreshold:              0.5,
			RetrievalTimeout:              30 * time.Second,
			ResearchTimeout:               10 * time.Second,
			AdapterTimeout:                5 * time.Second,
			TopK:                          10,
			MaxSubQuestions:               5,
			MaxConcurrentRetrievals:       4,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 15 * time.Minute,
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "faqflow",
			Collection: "feedback",
		},
		Graph: GraphConfig{
			DSN:  "faqflow.db",
			Seed: true,
		},
		Research: ResearchConfig{
			MaxResults:        5,
			Timeout:           10 * time.Second,
			CacheTTL:          30 * time.Minute,
			RequestsPerSecond: 2,
		},
		LLM: LLMConfig{
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the thresholds that silently break retrieval math when
// misconfigured.
func (c *Config) Validate() error {
	var errs []string
	if c.Pipeline.EscalationConfidenceThreshold < 0 || c.Pipeline.EscalationConfidenceThreshold > 1 {
		errs = append(errs, "escalation_confidence_threshold must be in [0,1]")
	}
	if c.Pipeline.RewriteConfidenceThreshold < 0 || c.Pipeline.RewriteConfidenceThreshold > 1 {
		errs = append(errs, "rewrite_confidence_threshold must be in [0,1]")
	}
	if c.Pipeline.SuccessThreshold < 0 || c.Pipeline.SuccessThreshold > 1 {
		errs = append(errs, "success_threshold must be in [0,1]")
	}
	if c.Pipeline.TopK <= 0 {
		errs = append(errs, "top_k must be positive")
	}
	if c.Pipeline.MaxSubQuestions < 1 {
		errs = append(errs, "max_sub_questions must be at least 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
