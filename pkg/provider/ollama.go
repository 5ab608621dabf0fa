package provider

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ollama/ollama/api"
)

/*
OllamaSeat is an optional local seat for offline runs, backed by a running
Ollama instance.
*/
type OllamaSeat struct {
	id     string
	model  string
	client *api.Client
}

type OllamaSeatOption func(*OllamaSeat)

func NewOllamaSeat(id string, options ...OllamaSeatOption) *OllamaSeat {
	seat := &OllamaSeat{
		id:    id,
		model: "llama3.2",
	}

	for _, option := range options {
		option(seat)
	}

	if seat.client == nil {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			log.Fatal("failed to create Ollama client", "error", err)
		}
		seat.client = client
	}

	return seat
}

func (seat *OllamaSeat) ID() string { return seat.id }

func (seat *OllamaSeat) Ping(ctx context.Context) error {
	return seat.client.Heartbeat(ctx)
}

func (seat *OllamaSeat) Invoke(
	ctx context.Context, systemPrompt, packedContext, userMessage string,
) (string, error) {
	stream := false
	builder := &strings.Builder{}

	err := seat.client.Chat(ctx, &api.ChatRequest{
		Model:  seat.model,
		Stream: &stream,
		Messages: []api.Message{
			{Role: "system", Content: composePrompt(systemPrompt, packedContext)},
			{Role: "user", Content: userMessage},
		},
	}, func(resp api.ChatResponse) error {
		builder.WriteString(resp.Message.Content)
		return nil
	})

	if err != nil {
		return "", err
	}

	return builder.String(), nil
}

// WithOllamaModel overrides the default model. Empty keeps the default.
func WithOllamaModel(model string) OllamaSeatOption {
	return func(seat *OllamaSeat) {
		if model != "" {
			seat.model = model
		}
	}
}

func WithOllamaClient(client *api.Client) OllamaSeatOption {
	return func(seat *OllamaSeat) {
		seat.client = client
	}
}
