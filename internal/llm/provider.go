// Package llm defines the text completion capability used by debate agents
// and judges, plus an OpenAI-compatible HTTP adapter.
package llm

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request carries the messages and generation parameters for one completion call.
type Request struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Seed        *int      `json:"seed,omitempty"`
}

// Provider is the text completion capability. An empty completion is a
// valid result and must be treated like any other answer.
type Provider interface {
	Complete(ctx context.Context, req *Request) (string, error)
}
