package judge

import (
	"context"
	"strings"
)

// HeuristicVerdict is the fixed verdict attached to heuristic judgements.
const HeuristicVerdict = "Heuristic score"

// heuristicKeywords are matched case-insensitively as substrings; each
// distinct match is worth 1.5 points. "mitigat" covers mitigate,
// mitigation, mitigating.
var heuristicKeywords = []string{
	"risk", "mitigat", "trade-off", "constraint",
	"latency", "throughput", "security", "safety",
}

const heuristicLengthLimit = 3000

// HeuristicJudge scores submissions with a pure function of the text:
// structure and keyword signals, penalized for excessive length. It needs
// no completion provider and serves as the fallback strategy.
type HeuristicJudge struct{}

// NewHeuristicJudge creates the deterministic fallback judge.
func NewHeuristicJudge() *HeuristicJudge {
	return &HeuristicJudge{}
}

// Judge scores every answer and returns the argmax winner. It never fails.
func (j *HeuristicJudge) Judge(_ context.Context, answers []Answer) (string, map[string]Judgement, error) {
	details := make(map[string]Judgement, len(answers))
	for _, a := range answers {
		details[a.AgentID] = Judgement{
			Total:        Score(a.Text),
			PerCriterion: map[string]CriterionScore{},
			Verdict:      HeuristicVerdict,
		}
	}

	winner := argmax(answers, func(id string) float64 { return details[id].Total })
	return winner, details, nil
}

// Score computes the heuristic score of one submission:
// +1.0 per bullet line, +1.0 for a heading marker, +1.5 per distinct
// keyword, -2.0 when the text exceeds the length limit.
func Score(text string) float64 {
	score := 0.0

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "- ") {
			score += 1.0
		}
	}

	if strings.Contains(text, "##") {
		score += 1.0
	}

	lower := strings.ToLower(text)
	for _, kw := range heuristicKeywords {
		if strings.Contains(lower, kw) {
			score += 1.5
		}
	}

	if len(text) > heuristicLengthLimit {
		score -= 2.0
	}

	return score
}
