package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"parley/internal/llm"
	"parley/internal/rubric"
)

const (
	judgeSystemPrompt = "You are a strict but fair debate judge."

	// ParseFailedVerdict is the fixed verdict of the degrade-to-zero
	// judgement produced when a judge response cannot be parsed.
	ParseFailedVerdict = "Parsing failed"

	judgeTemperature = 0.0
	judgeMaxTokens   = 600
)

// ModelJudge scores each submission with one completion request carrying
// the rubric instructions, and parses a JSON object out of the response.
type ModelJudge struct {
	provider llm.Provider
	rubric   rubric.Rubric
	logger   *zap.Logger
}

// NewModelJudge creates a single-model rubric judge.
func NewModelJudge(provider llm.Provider, r rubric.Rubric, logger *zap.Logger) *ModelJudge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelJudge{provider: provider, rubric: r, logger: logger}
}

// Judge scores every submission and returns the argmax winner. A response
// that cannot be parsed yields a zero-score judgement, never an error;
// only completion failures propagate.
func (j *ModelJudge) Judge(ctx context.Context, answers []Answer) (string, map[string]Judgement, error) {
	details := make(map[string]Judgement, len(answers))
	for _, a := range answers {
		jd, err := j.scoreOne(ctx, a.AgentID, a.Text)
		if err != nil {
			return "", nil, err
		}
		details[a.AgentID] = jd
	}

	winner := argmax(answers, func(id string) float64 { return details[id].Total })
	return winner, details, nil
}

func (j *ModelJudge) scoreOne(ctx context.Context, agentID, answer string) (Judgement, error) {
	prompt := fmt.Sprintf("%s\n\nSubmission from %s:\n%s\n", j.rubric.Instructions(), agentID, answer)

	resp, err := j.provider.Complete(ctx, &llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: judgeSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		Temperature: judgeTemperature,
		MaxTokens:   judgeMaxTokens,
	})
	if err != nil {
		return Judgement{}, fmt.Errorf("judge completion for %s failed: %w", agentID, err)
	}

	data, ok := extractObject(resp)
	if !ok {
		j.logger.Warn("judge response parse failed",
			zap.String("agent", agentID),
			zap.Int("response_len", len(resp)))
		return Judgement{Total: 0.0, PerCriterion: map[string]CriterionScore{}, Verdict: ParseFailedVerdict}, nil
	}

	// Total sums only over the rubric's declared criteria; extra fields in
	// the parsed object are ignored, absent scores default to 0.
	total := 0.0
	per := make(map[string]CriterionScore, len(j.rubric.Criteria))
	for _, c := range j.rubric.Criteria {
		info, _ := data[c.Name].(map[string]any)
		score := asFloat(info["score"])
		note, _ := info["note"].(string)
		per[c.Name] = CriterionScore{Score: score, Weight: c.Weight, Note: note}
		total += score * float64(c.Weight)
	}

	verdict, _ := data["verdict"].(string)
	return Judgement{Total: total, PerCriterion: per, Verdict: verdict}, nil
}

// extractObject decodes the JSON object delimited by the first opening
// brace and the last closing brace in text.
func extractObject(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, false
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &data); err != nil {
		return nil, false
	}
	return data, true
}

// asFloat converts a decoded JSON value to float64, defaulting to 0.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0.0
	}
}
