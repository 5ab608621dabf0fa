package provider

import (
	"context"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

/*
GoogleSeat is a triad seat backed by the Gemini API.
*/
type GoogleSeat struct {
	id     string
	model  string
	client *genai.Client
}

type GoogleSeatOption func(*GoogleSeat)

func NewGoogleSeat(id string, options ...GoogleSeatOption) *GoogleSeat {
	seat := &GoogleSeat{
		id:    id,
		model: "gemini-2.0-flash",
	}

	for _, option := range options {
		option(seat)
	}

	if seat.client == nil {
		// Relies on GOOGLE_API_KEY / GEMINI_API_KEY in the environment.
		client, err := genai.NewClient(context.Background(), nil)
		if err != nil {
			log.Fatal("failed to create Google GenAI client", "error", err)
		}
		seat.client = client
	}

	return seat
}

func (seat *GoogleSeat) ID() string { return seat.id }

// Ping fetches the configured model's metadata as a cheap roundtrip.
func (seat *GoogleSeat) Ping(ctx context.Context) error {
	_, err := seat.client.Models.Get(ctx, seat.model, nil)
	return err
}

func (seat *GoogleSeat) Invoke(
	ctx context.Context, systemPrompt, packedContext, userMessage string,
) (string, error) {
	resp, err := seat.client.Models.GenerateContent(
		ctx,
		seat.model,
		genai.Text(userMessage),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(
				composePrompt(systemPrompt, packedContext), genai.RoleUser,
			),
		},
	)

	if err != nil {
		return "", err
	}

	return resp.Text(), nil
}

// WithGoogleModel overrides the default model. Empty keeps the default.
func WithGoogleModel(model string) GoogleSeatOption {
	return func(seat *GoogleSeat) {
		if model != "" {
			seat.model = model
		}
	}
}

func WithGoogleClient(client *genai.Client) GoogleSeatOption {
	return func(seat *GoogleSeat) {
		seat.client = client
	}
}
