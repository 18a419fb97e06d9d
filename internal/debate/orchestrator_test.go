package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/agent"
	"parley/internal/judge"
	"parley/internal/llm"
	"parley/internal/rubric"
	"parley/internal/runlog"
)

// ============================================================================
// Helpers
// ============================================================================

func newAgents(provider llm.Provider, ids ...string) []*agent.Agent {
	out := make([]*agent.Agent, 0, len(ids))
	for _, id := range ids {
		out = append(out, agent.New(agent.Identity{ID: id, System: "You are " + id + "."}, provider))
	}
	return out
}

func validConfig() SessionConfig {
	return SessionConfig{
		Question:    "How should we cache results?",
		Rounds:      1,
		Temperature: 0.2,
		MaxTokens:   800,
	}
}

// classify recognizes the operation behind a recorded request.
func classify(req *llm.Request) string {
	user := req.Messages[len(req.Messages)-1].Content
	switch {
	case strings.HasPrefix(user, "Question: "):
		return "propose"
	case strings.HasPrefix(user, "Opponent's answer:"):
		return "critique"
	case strings.HasPrefix(user, "Your previous answer:"):
		return "defend"
	default:
		return "other"
	}
}

// ============================================================================
// Construction and validation
// ============================================================================

func TestNewRejectsBadAgentSets(t *testing.T) {
	provider := &llm.MockProvider{}
	h := judge.NewHeuristicJudge()

	_, err := New(nil, h, nil, nil)
	assert.Error(t, err)

	_, err = New(newAgents(provider, "A", "A"), h, nil, nil)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "duplicate agent id")

	_, err = New(newAgents(provider, ""), h, nil, nil)
	assert.Error(t, err)

	_, err = New(newAgents(provider, "A"), nil, nil, nil)
	assert.Error(t, err)
}

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SessionConfig)
	}{
		{"empty question", func(c *SessionConfig) { c.Question = "" }},
		{"rounds too low", func(c *SessionConfig) { c.Rounds = 0 }},
		{"rounds too high", func(c *SessionConfig) { c.Rounds = 7 }},
		{"temperature negative", func(c *SessionConfig) { c.Temperature = -0.1 }},
		{"temperature too high", func(c *SessionConfig) { c.Temperature = 2.1 }},
		{"max tokens too low", func(c *SessionConfig) { c.MaxTokens = 63 }},
		{"max tokens too high", func(c *SessionConfig) { c.MaxTokens = 8193 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}

	assert.NoError(t, validConfig().Validate())
}

func TestRunRejectsEmptyQuestionBeforeAnyCall(t *testing.T) {
	provider := &llm.MockProvider{Response: "x"}
	o, err := New(newAgents(provider, "A", "B"), judge.NewHeuristicJudge(), nil, nil)
	require.NoError(t, err)

	cfg := validConfig()
	cfg.Question = ""
	_, err = o.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Zero(t, provider.Calls())
}

// ============================================================================
// Protocol call matrix
// ============================================================================

func TestRunCallMatrix(t *testing.T) {
	cases := []struct {
		agents int
		rounds int
	}{
		{2, 1},
		{2, 3},
		{3, 2},
		{4, 1},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("n%d_r%d", tc.agents, tc.rounds), func(t *testing.T) {
			provider := &llm.MockProvider{Response: "an answer"}
			ids := make([]string, tc.agents)
			for i := range ids {
				ids[i] = fmt.Sprintf("agent-%c", 'a'+i)
			}

			o, err := New(newAgents(provider, ids...), judge.NewHeuristicJudge(), nil, nil)
			require.NoError(t, err)

			cfg := validConfig()
			cfg.Rounds = tc.rounds
			result, err := o.Run(context.Background(), cfg)
			require.NoError(t, err)

			n, r := tc.agents, tc.rounds
			counts := map[string]int{}
			for _, req := range provider.Requests() {
				counts[classify(req)]++
			}
			assert.Equal(t, n, counts["propose"], "propose calls")
			assert.Equal(t, r*n*(n-1), counts["critique"], "critique calls")
			assert.Equal(t, r*n, counts["defend"], "defend calls")
			assert.Zero(t, counts["other"])

			// Exactly one final answer per configured agent, in order.
			require.Len(t, result.Answers, n)
			for i, a := range result.Answers {
				assert.Equal(t, ids[i], a.AgentID)
			}
		})
	}
}

func TestCritiqueRoundExcludesSelfAndKeepsOrder(t *testing.T) {
	provider := &llm.MockProvider{Response: "needs work"}
	o, err := New(newAgents(provider, "A", "B", "C"), judge.NewHeuristicJudge(), nil, nil)
	require.NoError(t, err)

	answers := map[string]string{"A": "a", "B": "b", "C": "c"}
	critiques, err := o.critiqueRound(context.Background(), validConfig(), answers)
	require.NoError(t, err)

	require.Len(t, critiques, 3)
	for target, list := range critiques {
		require.Len(t, list, 2, "target %s", target)
		for _, c := range list {
			assert.False(t, strings.HasPrefix(c, target+": "), "self-critique for %s", target)
		}
	}

	// Per-target lists follow critic configuration order, not completion order.
	assert.True(t, strings.HasPrefix(critiques["A"][0], "B: "))
	assert.True(t, strings.HasPrefix(critiques["A"][1], "C: "))
	assert.True(t, strings.HasPrefix(critiques["B"][0], "A: "))
	assert.True(t, strings.HasPrefix(critiques["B"][1], "C: "))
}

// ============================================================================
// Judging, synthesis, result
// ============================================================================

// scenarioProvider answers with agent-specific text so the heuristic
// judge has something to rank.
func scenarioProvider(text string) *llm.MockProvider {
	return &llm.MockProvider{Response: text}
}

func TestRunHeuristicScenario(t *testing.T) {
	structured := "- one\n- two\n## Heading\nSecurity and safety matter."
	plain := "plain text, no bullets, no headings, nothing relevant."

	a := agent.New(agent.Identity{ID: "A", System: "sys"}, scenarioProvider(structured))
	b := agent.New(agent.Identity{ID: "B", System: "sys"}, scenarioProvider(plain))

	sink := &runlog.MemorySink{}
	o, err := New([]*agent.Agent{a, b}, judge.NewHeuristicJudge(), sink, nil)
	require.NoError(t, err)

	result, err := o.Run(context.Background(), validConfig())
	require.NoError(t, err)

	assert.Equal(t, "A", result.WinnerID)
	assert.Equal(t, 6.0, result.Judgements["A"].Total)
	assert.Equal(t, 0.0, result.Judgements["B"].Total)

	ansA, ok := result.Answer("A")
	require.True(t, ok)
	assert.Equal(t, structured, ansA)
	_, ok = result.Answer("missing")
	assert.False(t, ok)
}

func TestSynthesisOrderAndHeadings(t *testing.T) {
	provider := &llm.MockProvider{Response: "final text"}
	o, err := New(newAgents(provider, "Zeta", "Alpha", "Mid"), judge.NewHeuristicJudge(), nil, nil)
	require.NoError(t, err)

	result, err := o.Run(context.Background(), validConfig())
	require.NoError(t, err)

	// Configured order, not sorted.
	zi := strings.Index(result.Synthesis, "### Zeta\n")
	ai := strings.Index(result.Synthesis, "### Alpha\n")
	mi := strings.Index(result.Synthesis, "### Mid\n")
	require.True(t, zi >= 0 && ai >= 0 && mi >= 0)
	assert.Less(t, zi, ai)
	assert.Less(t, ai, mi)

	// Each id heads exactly one section.
	assert.Equal(t, 1, strings.Count(result.Synthesis, "### Zeta\n"))
	assert.Equal(t, 1, strings.Count(result.Synthesis, "### Alpha\n"))
	assert.Equal(t, 1, strings.Count(result.Synthesis, "### Mid\n"))
}

func TestEmptyAnswersParticipate(t *testing.T) {
	// An empty completion is a valid answer and flows through judging and
	// synthesis like any other.
	provider := &llm.MockProvider{Response: ""}
	o, err := New(newAgents(provider, "A", "B"), judge.NewHeuristicJudge(), nil, nil)
	require.NoError(t, err)

	result, err := o.Run(context.Background(), validConfig())
	require.NoError(t, err)

	assert.Equal(t, "A", result.WinnerID) // tie at 0.0, first configured wins
	assert.Contains(t, result.Synthesis, "### A\n\n")
	assert.Contains(t, result.Synthesis, "### B\n\n")
}

// ============================================================================
// Event stream
// ============================================================================

func TestRunEventStream(t *testing.T) {
	provider := &llm.MockProvider{Response: "text"}
	sink := &runlog.MemorySink{}
	o, err := New(newAgents(provider, "A", "B"), judge.NewHeuristicJudge(), sink, nil)
	require.NoError(t, err)

	cfg := validConfig()
	cfg.Constraints = "keep it cheap"
	cfg.Rounds = 2
	_, err = o.Run(context.Background(), cfg)
	require.NoError(t, err)

	records := sink.Records()
	// start + 2 propose + 2×(2 critique + 2 defend) + end
	require.Len(t, records, 1+2+2*(2+2)+1)

	first := records[0]
	assert.Equal(t, "start", first["event"])
	assert.Equal(t, cfg.Question, first["question"])
	assert.Equal(t, "keep it cheap", first["constraints"])
	assert.Equal(t, 2, first["rounds"])

	last := records[len(records)-1]
	assert.Equal(t, "end", last["event"])
	assert.Equal(t, "A", last["winner"])

	// Phase blocks appear in protocol order; records within a phase may
	// interleave in completion order.
	var phases []string
	for _, rec := range records[1 : len(records)-1] {
		phases = append(phases, rec["phase"].(string))
		assert.NotEmpty(t, rec["ts"])
	}
	expected := []string{
		"propose", "propose",
		"critique", "critique", "defend", "defend",
		"critique", "critique", "defend", "defend",
	}
	assert.Equal(t, expected, phases)

	// Critique records carry from/to, never self-directed.
	for _, rec := range records {
		if rec["phase"] == "critique" {
			assert.NotEqual(t, rec["from"], rec["to"])
		}
	}
}

// ============================================================================
// Failure handling
// ============================================================================

func TestRunPhaseFailure(t *testing.T) {
	boom := errors.New("model overloaded")
	provider := &llm.MockProvider{CompleteFunc: func(_ int, req *llm.Request) (string, error) {
		if classify(req) == "critique" {
			return "", boom
		}
		return "fine", nil
	}}

	o, err := New(newAgents(provider, "A", "B"), judge.NewHeuristicJudge(), nil, nil)
	require.NoError(t, err)

	cfg := validConfig()
	_, err = o.Run(context.Background(), cfg)
	require.Error(t, err)

	var phaseErr *PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, PhaseCritique, phaseErr.Phase)
	assert.Equal(t, cfg.Question, phaseErr.Question)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "critique phase")
}

func TestJudgeFailureNamesJudgePhase(t *testing.T) {
	// Agents succeed on a scripted provider; the judge's provider fails.
	agentProvider := &llm.MockProvider{Response: "answer"}
	judgeProvider := &llm.MockProvider{CompleteFunc: func(int, *llm.Request) (string, error) {
		return "", errors.New("judge model down")
	}}

	j, err := judge.New(judge.KindSingle, judgeProvider, rubric.Default(), nil)
	require.NoError(t, err)

	o, err := New(newAgents(agentProvider, "A", "B"), j, nil, nil)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), validConfig())
	require.Error(t, err)

	var phaseErr *PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, PhaseJudge, phaseErr.Phase)
}
