package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/rmorell/keychat/internal/model/chat"
)

// Provider names accepted on the wire.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

// Provider describes one OpenAI-compatible completion endpoint.
type Provider struct {
	BaseURL string
	Model   string
}

// Config carries the static sampling parameters and the provider
// registry. Sampling is server configuration, never caller input.
type Config struct {
	MaxTokens   int64
	Temperature float64
	Providers   map[string]Provider
}

// DefaultProviders returns the built-in provider registry.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderOpenAI:   {Model: "gpt-4o"},
		ProviderDeepSeek: {BaseURL: "https://api.deepseek.com", Model: "deepseek-chat"},
	}
}

// Service invokes OpenAI-compatible completion APIs with caller-supplied
// credentials. A fresh client is built per request because the key arrives
// with the request, not from server configuration.
type Service struct {
	cfg Config
	log zerolog.Logger
}

// NewService creates the provider adapter.
func NewService(cfg Config, log zerolog.Logger) *Service {
	if cfg.Providers == nil {
		cfg.Providers = DefaultProviders()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	return &Service{cfg: cfg, log: log}
}

func (s *Service) client(apiKey, providerName string) (openai.Client, Provider, error) {
	provider, ok := s.cfg.Providers[providerName]
	if !ok {
		return openai.Client{}, Provider{}, fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Failures surface to the caller verbatim, the adapter never retries.
		option.WithMaxRetries(0),
	}
	if provider.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(provider.BaseURL))
	}
	return openai.NewClient(opts...), provider, nil
}

// Complete sends the full conversation history and returns the first
// completion's text.
func (s *Service) Complete(ctx context.Context, apiKey, providerName string, history []chat.Message) (string, error) {
	client, provider, err := s.client(apiKey, providerName)
	if err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(provider.Model),
		Messages:    messages,
		MaxTokens:   openai.Int(s.cfg.MaxTokens),
		Temperature: openai.Float(s.cfg.Temperature),
	})
	if err != nil {
		return "", classify(err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}

	s.log.Debug().
		Str("provider", providerName).
		Str("model", provider.Model).
		Int("history", len(history)).
		Int("length", len(content)).
		Msg("completion generated")

	return content, nil
}

// TestKey probes the provider with a one-token request to confirm the
// credential is accepted. A nil return means the key is valid.
func (s *Service) TestKey(ctx context.Context, apiKey, providerName string) error {
	client, provider, err := s.client(apiKey, providerName)
	if err != nil {
		return err
	}

	_, err = client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(provider.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello"),
		},
		MaxTokens: openai.Int(1),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}
