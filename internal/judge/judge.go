// Package judge provides the debate judging strategies: a single-model
// rubric judge, a panel of independent model judges, and a deterministic
// heuristic fallback. Strategies are selected by a configuration-keyed
// factory.
package judge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"parley/internal/llm"
	"parley/internal/rubric"
)

// Kind selects a judging strategy.
type Kind string

const (
	KindSingle    Kind = "single"
	KindPanel     Kind = "panel"
	KindHeuristic Kind = "heuristic"
)

// ParseKind validates a judge kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSingle, KindPanel, KindHeuristic:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown judge kind: %q (expected single, panel, or heuristic)", s)
	}
}

// Answer is one agent's final submission. Judges receive answers as an
// ordered slice; ties are broken in favor of the earliest entry.
type Answer struct {
	AgentID string `json:"agent_id"`
	Text    string `json:"text"`
}

// CriterionScore is the scored breakdown for one rubric criterion.
type CriterionScore struct {
	Score  float64 `json:"score"`
	Weight int     `json:"weight"`
	Note   string  `json:"note,omitempty"`
}

// Judgement is the scored verdict for one agent's submission. For rubric
// judges, Total equals the sum of score*weight over the rubric's criteria.
type Judgement struct {
	Total        float64                   `json:"total"`
	PerCriterion map[string]CriterionScore `json:"per_criterion"`
	Verdict      string                    `json:"verdict"`
}

// Judge scores the final answers and picks a winner.
type Judge interface {
	Judge(ctx context.Context, answers []Answer) (winnerID string, details map[string]Judgement, err error)
}

// New builds the judge for the given kind. Single and panel judges
// require a completion provider; requesting one without a provider is a
// configuration error.
func New(kind Kind, provider llm.Provider, r rubric.Rubric, logger *zap.Logger) (Judge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch kind {
	case KindSingle:
		if provider == nil {
			return nil, fmt.Errorf("judge kind %q requires a completion provider", kind)
		}
		return NewModelJudge(provider, r, logger), nil
	case KindPanel:
		if provider == nil {
			return nil, fmt.Errorf("judge kind %q requires a completion provider", kind)
		}
		return NewPanelJudge(provider, r, DefaultPanelSize, logger), nil
	case KindHeuristic:
		return NewHeuristicJudge(), nil
	default:
		return nil, fmt.Errorf("unknown judge kind: %q", kind)
	}
}

// argmax returns the agent id with the strictly highest total; on ties the
// earliest answer wins.
func argmax(answers []Answer, total func(agentID string) float64) string {
	winner := ""
	best := 0.0
	for i, a := range answers {
		t := total(a.AgentID)
		if i == 0 || t > best {
			winner = a.AgentID
			best = t
		}
	}
	return winner
}
