// Package agent provides debate participants: a persona identity bound to
// a completion provider, exposing propose, critique, and defend operations.
// Agents hold no state between calls; determinism depends entirely on the
// provider's own seed and temperature handling.
package agent

import (
	"context"
	"fmt"
	"strings"

	"parley/internal/llm"
)

// DefaultStyle is assigned to identities that declare no style tag.
const DefaultStyle = "generalist"

// Identity is the immutable persona configuration of one agent.
type Identity struct {
	ID     string `json:"id" yaml:"id"`
	System string `json:"system" yaml:"system"`
	Style  string `json:"style" yaml:"style"`
}

// Params are the generation parameters forwarded to every provider call.
type Params struct {
	Temperature float64
	MaxTokens   int
	Seed        *int
}

// Agent binds an identity to a completion provider.
type Agent struct {
	identity Identity
	provider llm.Provider
}

// New creates an agent for the given identity and provider.
func New(identity Identity, provider llm.Provider) *Agent {
	if identity.Style == "" {
		identity.Style = DefaultStyle
	}
	return &Agent{identity: identity, provider: provider}
}

// ID returns the agent's identifier.
func (a *Agent) ID() string {
	return a.identity.ID
}

// Identity returns the agent's persona configuration.
func (a *Agent) Identity() Identity {
	return a.identity
}

func (a *Agent) complete(ctx context.Context, userPrompt string, params Params) (string, error) {
	return a.provider.Complete(ctx, &llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: a.identity.System},
			{Role: llm.RoleUser, Content: userPrompt},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
		Seed:        params.Seed,
	})
}

// Propose produces the agent's initial answer to the question.
func (a *Agent) Propose(ctx context.Context, question, constraints string, params Params) (string, error) {
	if constraints == "" {
		constraints = "None"
	}
	prompt := fmt.Sprintf("Question: %s\nConstraints: %s\n\nProduce an initial, high-quality proposal. Use structured reasoning and cite assumptions.",
		question, constraints)
	return a.complete(ctx, prompt, params)
}

// Critique analyzes an opponent's answer for flaws, missing evidence,
// risky assumptions, and constraint violations.
func (a *Agent) Critique(ctx context.Context, opponentAnswer string, params Params) (string, error) {
	prompt := fmt.Sprintf("Opponent's answer:\n%s\n\nCritique this answer: identify flaws, missing evidence, risky assumptions, and constraints violations. Be specific and constructive.",
		opponentAnswer)
	return a.complete(ctx, prompt, params)
}

// Defend revises the agent's own answer in light of the critiques it
// received, in the order they were collected.
func (a *Agent) Defend(ctx context.Context, ownAnswer string, critiques []string, params Params) (string, error) {
	joined := "None"
	if len(critiques) > 0 {
		joined = strings.Join(critiques, "\n- ")
	}
	prompt := fmt.Sprintf("Your previous answer:\n%s\n\nCritiques received:\n- %s\n\nRevise your answer addressing valid points and strengthening the proposal. Keep what holds, fix what doesn't.",
		ownAnswer, joined)
	return a.complete(ctx, prompt, params)
}
