// Package llm abstracts the generation backend as an injected capability so
// the routing and tracking logic stays testable with a deterministic stub.
package llm

import "context"

// Message is a single prompt turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one completion call.
type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// Completer produces a completion for a prompt. Implementations block until
// the backend answers; callers own timeouts via ctx or client configuration.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
