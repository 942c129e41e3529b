package llm

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

// OpenAISettings configures the OpenAI-compatible chat engine. BaseURL
// covers Azure OpenAI deployments and self-hosted gateways.
type OpenAISettings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// OpenAIEngine implements Engine on any OpenAI-compatible chat completion
// endpoint.
type OpenAIEngine struct {
	client   *go_openai.Client
	settings OpenAISettings
}

// NewOpenAIEngine builds the engine from settings.
func NewOpenAIEngine(settings OpenAISettings) (*OpenAIEngine, error) {
	if settings.APIKey == "" {
		return nil, errors.New("no API key configured")
	}
	if settings.Model == "" {
		return nil, errors.New("no model configured")
	}
	config := go_openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		config.BaseURL = settings.BaseURL
	}
	return &OpenAIEngine{
		client:   go_openai.NewClientWithConfig(config),
		settings: settings,
	}, nil
}

func (e *OpenAIEngine) Complete(ctx context.Context, system string, user string) (string, error) {
	req := go_openai.ChatCompletionRequest{
		Model:       e.settings.Model,
		Temperature: e.settings.Temperature,
		Messages: []go_openai.ChatCompletionMessage{
			{Role: go_openai.ChatMessageRoleSystem, Content: system},
			{Role: go_openai.ChatMessageRoleUser, Content: user},
		},
	}

	log.Debug().
		Str("model", e.settings.Model).
		Int("system_len", len(system)).
		Int("user_len", len(user)).
		Msg("llm: chat completion request")

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
