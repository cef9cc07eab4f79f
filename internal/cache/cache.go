package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/faqflow/types"
)

// Config configures the redis-backed retrieval cache.
type Config struct {
	// Redis address.
	Addr string `yaml:"addr" json:"addr"`

	// Password, empty for none.
	Password string `yaml:"password" json:"password"`

	// Database number.
	DB int `yaml:"db" json:"db"`

	// Entry time-to-live.
	TTL time.Duration `yaml:"ttl" json:"ttl"`

	// Connection pool size.
	PoolSize int `yaml:"pool_size" json:"pool_size"`
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Addr:     "localhost:6379",
		TTL:      5 * time.Minute,
		PoolSize: 10,
	}
}

// RetrievalCache caches RetrievalResults keyed by the coordinator's lookup
// key, which folds the sub-question text and its entity filter together. A cache
// outage is never an error for the caller; lookups just miss.
type RetrievalCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a retrieval cache from config.
func New(config Config, logger *zap.Logger) *RetrievalCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	return &RetrievalCache{
		client: client,
		ttl:    config.TTL,
		logger: logger.With(zap.String("component", "retrieval_cache")),
	}
}

// NewWithClient wraps an existing client; used by tests with miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RetrievalCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrievalCache{client: client, ttl: ttl, logger: logger}
}

// Key derives the redis key for a coordinator lookup key.
func Key(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "faqflow:retrieval:" + hex.EncodeToString(sum[:16])
}

// Get returns the cached result for a lookup key, or nil on miss.
func (c *RetrievalCache) Get(ctx context.Context, key string) *types.RetrievalResult {
	data, err := c.client.Get(ctx, Key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", zap.Error(err))
		}
		return nil
	}

	var result types.RetrievalResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("cache entry corrupt, dropping", zap.Error(err))
		c.client.Del(ctx, Key(key))
		return nil
	}
	return &result
}

// Set stores a result. Failures are logged and swallowed.
func (c *RetrievalCache) Set(ctx context.Context, key string, result *types.RetrievalResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, Key(key), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.Error(err))
	}
}

// Close releases the underlying client.
func (c *RetrievalCache) Close() error {
	return c.client.Close()
}
