package judge

import (
	"context"

	"go.uber.org/zap"

	"parley/internal/llm"
	"parley/internal/rubric"
)

// DefaultPanelSize is the number of panel members when none is configured.
const DefaultPanelSize = 3

// PanelJudge runs n independent single-model judges over the same
// submissions and sums each agent's total across members. The winner is
// the argmax of the summed totals, but the returned per-agent detail is
// that of the first member only, so the displayed breakdown may not match
// the winning margin. That mismatch is intended behavior.
type PanelJudge struct {
	provider llm.Provider
	rubric   rubric.Rubric
	size     int
	logger   *zap.Logger
}

// NewPanelJudge creates a panel of size independent model judges.
func NewPanelJudge(provider llm.Provider, r rubric.Rubric, size int, logger *zap.Logger) *PanelJudge {
	if size <= 0 {
		size = DefaultPanelSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PanelJudge{provider: provider, rubric: r, size: size, logger: logger}
}

// Size returns the number of panel members.
func (j *PanelJudge) Size() int {
	return j.size
}

// Judge collects every member's judgements, sums totals per agent, and
// returns the first member's detail map alongside the aggregate winner.
func (j *PanelJudge) Judge(ctx context.Context, answers []Answer) (string, map[string]Judgement, error) {
	aggregate := make(map[string]float64, len(answers))
	for _, a := range answers {
		aggregate[a.AgentID] = 0.0
	}

	var first map[string]Judgement
	for member := 0; member < j.size; member++ {
		m := NewModelJudge(j.provider, j.rubric, j.logger)
		_, details, err := m.Judge(ctx, answers)
		if err != nil {
			return "", nil, err
		}
		if member == 0 {
			first = details
		}
		for id, jd := range details {
			aggregate[id] += jd.Total
		}
	}

	winner := argmax(answers, func(id string) float64 { return aggregate[id] })

	j.logger.Debug("panel judging complete",
		zap.Int("members", j.size),
		zap.String("winner", winner))

	return winner, first, nil
}
