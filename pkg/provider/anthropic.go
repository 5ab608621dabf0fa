package provider

import (
	"context"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

/*
AnthropicSeat is a triad seat backed by the Anthropic API.
*/
type AnthropicSeat struct {
	id        string
	model     anthropic.Model
	maxTokens int64
	client    *anthropic.Client
}

type AnthropicSeatOption func(*AnthropicSeat)

func NewAnthropicSeat(id string, options ...AnthropicSeatOption) *AnthropicSeat {
	seat := &AnthropicSeat{
		id:        id,
		model:     anthropic.ModelClaudeSonnet4_20250514,
		maxTokens: 1024,
	}

	for _, option := range options {
		option(seat)
	}

	if seat.client == nil {
		client := anthropic.NewClient(
			option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
		)
		seat.client = &client
	}

	return seat
}

func (seat *AnthropicSeat) ID() string { return seat.id }

// Ping lists models as a cheap authenticated roundtrip.
func (seat *AnthropicSeat) Ping(ctx context.Context) error {
	_, err := seat.client.Models.List(ctx, anthropic.ModelListParams{})
	return err
}

func (seat *AnthropicSeat) Invoke(
	ctx context.Context, systemPrompt, packedContext, userMessage string,
) (string, error) {
	message, err := seat.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     seat.model,
		MaxTokens: seat.maxTokens,
		System: []anthropic.TextBlockParam{{
			Text: composePrompt(systemPrompt, packedContext),
		}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
	})

	if err != nil {
		return "", err
	}

	builder := &strings.Builder{}

	for _, block := range message.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}

	return builder.String(), nil
}

// WithAnthropicModel overrides the default model. Empty keeps the default.
func WithAnthropicModel(model string) AnthropicSeatOption {
	return func(seat *AnthropicSeat) {
		if model != "" {
			seat.model = anthropic.Model(model)
		}
	}
}

func WithAnthropicMaxTokens(maxTokens int64) AnthropicSeatOption {
	return func(seat *AnthropicSeat) {
		seat.maxTokens = maxTokens
	}
}

func WithAnthropicClient(client *anthropic.Client) AnthropicSeatOption {
	return func(seat *AnthropicSeat) {
		seat.client = client
	}
}
