package debate

import (
	"parley/internal/agent"
)

// Session bounds, mirrored by the CLI flag constraints.
const (
	MinRounds = 1
	MaxRounds = 6

	MinTemperature = 0.0
	MaxTemperature = 2.0

	MinMaxTokens = 64
	MaxMaxTokens = 8192
)

// SessionConfig describes one debate run. The agent set and its order are
// fixed on the orchestrator; this carries the per-session inputs.
type SessionConfig struct {
	Question    string  `json:"question"`
	Constraints string  `json:"constraints,omitempty"`
	Rounds      int     `json:"rounds"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Seed        *int    `json:"seed,omitempty"`
}

// Params returns the generation parameters handed to every agent call.
func (c SessionConfig) Params() agent.Params {
	return agent.Params{
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Seed:        c.Seed,
	}
}

// Validate checks the session inputs against the documented bounds.
// It runs before any phase starts; a failure here means no completion
// call was issued.
func (c SessionConfig) Validate() error {
	if c.Question == "" {
		return NewConfigError("question must not be empty")
	}
	if c.Rounds < MinRounds || c.Rounds > MaxRounds {
		return NewConfigError("rounds must be in [%d,%d], got %d", MinRounds, MaxRounds, c.Rounds)
	}
	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return NewConfigError("temperature must be in [%.1f,%.1f], got %g", MinTemperature, MaxTemperature, c.Temperature)
	}
	if c.MaxTokens < MinMaxTokens || c.MaxTokens > MaxMaxTokens {
		return NewConfigError("max tokens must be in [%d,%d], got %d", MinMaxTokens, MaxMaxTokens, c.MaxTokens)
	}
	return nil
}
