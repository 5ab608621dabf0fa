package provider

import (
	"context"
	"fmt"
	"os"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

/*
OpenAISeat is a triad seat backed by the OpenAI API.
*/
type OpenAISeat struct {
	id     string
	model  string
	client *openai.Client
}

type OpenAISeatOption func(*OpenAISeat)

func NewOpenAISeat(id string, options ...OpenAISeatOption) *OpenAISeat {
	seat := &OpenAISeat{
		id:    id,
		model: openai.ChatModelGPT4o,
	}

	for _, option := range options {
		option(seat)
	}

	if seat.client == nil {
		client := openai.NewClient(
			option.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
		)
		seat.client = &client
	}

	return seat
}

func (seat *OpenAISeat) ID() string { return seat.id }

// Ping lists models as a cheap authenticated roundtrip.
func (seat *OpenAISeat) Ping(ctx context.Context) error {
	_, err := seat.client.Models.List(ctx)
	return err
}

func (seat *OpenAISeat) Invoke(
	ctx context.Context, systemPrompt, packedContext, userMessage string,
) (string, error) {
	completion, err := seat.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: seat.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(composePrompt(systemPrompt, packedContext)),
			openai.UserMessage(userMessage),
		},
	})

	if err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion for seat %s", seat.id)
	}

	return completion.Choices[0].Message.Content, nil
}

// WithOpenAIModel overrides the default model. Empty keeps the default.
func WithOpenAIModel(model string) OpenAISeatOption {
	return func(seat *OpenAISeat) {
		if model != "" {
			seat.model = model
		}
	}
}

func WithOpenAIClient(client *openai.Client) OpenAISeatOption {
	return func(seat *OpenAISeat) {
		seat.client = client
	}
}
