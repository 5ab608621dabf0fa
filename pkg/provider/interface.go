package provider

import "context"

/*
Seat is one model endpoint participating in the triad. Ping is the cheap
availability probe the gate fans out before orchestration; Invoke runs the
actual completion over the packed context.
*/
type Seat interface {
	ID() string
	Ping(ctx context.Context) error
	Invoke(ctx context.Context, systemPrompt, packedContext, userMessage string) (string, error)
}

// composePrompt merges the persona system prompt with the packed context the
// orchestrator assembled. Every seat sends the same shape upstream.
func composePrompt(systemPrompt, packedContext string) string {
	if packedContext == "" {
		return systemPrompt
	}
	if systemPrompt == "" {
		return packedContext
	}
	return systemPrompt + "\n\n" + packedContext
}
