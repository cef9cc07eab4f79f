package capability

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/BaSui01/faqflow/types"
)

// OpenAIConfig configures the OpenAI-compatible chat completion provider.
// BaseURL may point at any compatible endpoint.
type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key" json:"api_key"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Model       string        `yaml:"model" json:"model"`
	Temperature float32       `yaml:"temperature" json:"temperature"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:       openai.GPT4oMini,
		Temperature: 0.2,
		Timeout:     30 * time.Second,
	}
}

// OpenAIProvider implements Provider on top of an OpenAI-compatible chat
// completion API.
type OpenAIProvider struct {
	client *openai.Client
	config OpenAIConfig
	logger *zap.Logger
}

// NewOpenAIProvider creates a provider from config.
func NewOpenAIProvider(config OpenAIConfig, logger *zap.Logger) *OpenAIProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger.With(zap.String("component", "openai_provider")),
	}
}

// Complete generates a completion for the given prompt.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Temperature: p.config.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		p.logger.Warn("completion failed", zap.Error(err))
		return "", types.NewError(types.ErrCapabilityFailed, "chat completion failed").
			WithCause(err).
			WithRetryable(true)
	}
	if len(resp.Choices) == 0 {
		return "", types.NewError(types.ErrCapabilityFailed, "chat completion returned no choices")
	}

	p.logger.Debug("completion ok",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt_len", len(prompt)))

	return resp.Choices[0].Message.Content, nil
}
