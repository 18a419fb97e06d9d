// Package debate implements the round-based debate protocol:
// PROPOSE → (CRITIQUE → DEFEND)×rounds → JUDGE → SYNTHESIZE. Each phase
// fans its completion calls out concurrently and completes only once
// every call has returned; phase k+1 never starts before phase k's
// fan-in. A failing call fails the whole phase atomically.
package debate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"parley/internal/agent"
	"parley/internal/judge"
	"parley/internal/runlog"
)

// Phase names the protocol states as they appear in errors and logs.
type Phase string

const (
	PhasePropose  Phase = "propose"
	PhaseCritique Phase = "critique"
	PhaseDefend   Phase = "defend"
	PhaseJudge    Phase = "judge"
)

// Result is the immutable outcome of one debate session, assembled once
// at session end.
type Result struct {
	WinnerID   string                     `json:"winner_id"`
	Synthesis  string                     `json:"synthesis"`
	Answers    []judge.Answer             `json:"answers"`
	Judgements map[string]judge.Judgement `json:"judgements"`
}

// Answer returns the final answer text for the given agent id.
func (r *Result) Answer(agentID string) (string, bool) {
	for _, a := range r.Answers {
		if a.AgentID == agentID {
			return a.Text, true
		}
	}
	return "", false
}

// Orchestrator drives the debate protocol over a fixed, ordered agent
// set. The configured order is the insertion order everywhere: answers,
// synthesis headings, and judge tie-breaking all follow it.
type Orchestrator struct {
	agents []*agent.Agent
	judge  judge.Judge
	sink   runlog.Sink
	logger *zap.Logger
}

// critiqueTask is one (critic, target) cell of the all-pairs matrix.
type critiqueTask struct {
	critic *agent.Agent
	target *agent.Agent
}

// New creates an orchestrator. The agent slice order is fixed for the
// session; ids must be unique and non-empty.
func New(agents []*agent.Agent, j judge.Judge, sink runlog.Sink, logger *zap.Logger) (*Orchestrator, error) {
	if len(agents) == 0 {
		return nil, NewConfigError("at least one agent is required")
	}
	seen := make(map[string]bool, len(agents))
	for _, a := range agents {
		id := a.ID()
		if id == "" {
			return nil, NewConfigError("agent ids must not be empty")
		}
		if seen[id] {
			return nil, NewConfigError("duplicate agent id: %s", id)
		}
		seen[id] = true
	}
	if j == nil {
		return nil, NewConfigError("a judge is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{agents: agents, judge: j, sink: sink, logger: logger}, nil
}

// Run executes one full debate session and returns its result. The
// returned Result is never mutated afterwards.
func (o *Orchestrator) Run(ctx context.Context, cfg SessionConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o.log(runlog.Record{
		"ts":          runlog.Timestamp(),
		"event":       "start",
		"question":    cfg.Question,
		"constraints": cfg.Constraints,
		"rounds":      cfg.Rounds,
	})
	o.logger.Info("debate session started",
		zap.Int("agents", len(o.agents)),
		zap.Int("rounds", cfg.Rounds))

	answers, err := o.proposeRound(ctx, cfg)
	if err != nil {
		return nil, err
	}

	for round := 1; round <= cfg.Rounds; round++ {
		critiques, err := o.critiqueRound(ctx, cfg, answers)
		if err != nil {
			return nil, err
		}
		answers, err = o.defendRound(ctx, cfg, answers, critiques)
		if err != nil {
			return nil, err
		}
		o.logger.Debug("round complete", zap.Int("round", round))
	}

	final := o.orderedAnswers(answers)

	winnerID, details, err := o.judge.Judge(ctx, final)
	if err != nil {
		return nil, &PhaseError{Question: cfg.Question, Phase: PhaseJudge, Err: err}
	}

	synthesis := synthesize(final)

	o.log(runlog.Record{
		"ts":     runlog.Timestamp(),
		"event":  "end",
		"winner": winnerID,
	})
	o.logger.Info("debate session finished", zap.String("winner", winnerID))

	return &Result{
		WinnerID:   winnerID,
		Synthesis:  synthesis,
		Answers:    final,
		Judgements: details,
	}, nil
}

// proposeRound collects every agent's initial answer concurrently.
func (o *Orchestrator) proposeRound(ctx context.Context, cfg SessionConfig) (map[string]string, error) {
	answers := make(map[string]string, len(o.agents))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range o.agents {
		a := a
		g.Go(func() error {
			ans, err := a.Propose(gctx, cfg.Question, cfg.Constraints, cfg.Params())
			if err != nil {
				return fmt.Errorf("agent %s: %w", a.ID(), err)
			}
			o.log(runlog.Record{
				"ts":    runlog.Timestamp(),
				"phase": string(PhasePropose),
				"agent": a.ID(),
				"text":  ans,
			})
			mu.Lock()
			answers[a.ID()] = ans
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &PhaseError{Question: cfg.Question, Phase: PhasePropose, Err: err}
	}
	return answers, nil
}

// critiqueRound runs the all-pairs critique matrix: every agent critiques
// every other agent's current answer. The N×(N−1) task list is generated
// once so the fan-in barrier and the per-target critique order stay
// deterministic regardless of completion order.
func (o *Orchestrator) critiqueRound(ctx context.Context, cfg SessionConfig, answers map[string]string) (map[string][]string, error) {
	var tasks []critiqueTask
	for _, target := range o.agents {
		for _, critic := range o.agents {
			if critic.ID() == target.ID() {
				continue
			}
			tasks = append(tasks, critiqueTask{critic: critic, target: target})
		}
	}

	results := make([]string, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			crit, err := task.critic.Critique(gctx, answers[task.target.ID()], cfg.Params())
			if err != nil {
				return fmt.Errorf("critic %s on %s: %w", task.critic.ID(), task.target.ID(), err)
			}
			o.log(runlog.Record{
				"ts":    runlog.Timestamp(),
				"phase": string(PhaseCritique),
				"from":  task.critic.ID(),
				"to":    task.target.ID(),
				"text":  crit,
			})
			results[i] = crit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &PhaseError{Question: cfg.Question, Phase: PhaseCritique, Err: err}
	}

	critiques := make(map[string][]string, len(o.agents))
	for _, a := range o.agents {
		critiques[a.ID()] = nil
	}
	for i, task := range tasks {
		critiques[task.target.ID()] = append(critiques[task.target.ID()],
			fmt.Sprintf("%s: %s", task.critic.ID(), results[i]))
	}
	return critiques, nil
}

// defendRound has every agent revise its own answer against the full
// critique list addressed to it, producing the next round's answers.
func (o *Orchestrator) defendRound(ctx context.Context, cfg SessionConfig, answers map[string]string, critiques map[string][]string) (map[string]string, error) {
	revised := make(map[string]string, len(o.agents))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range o.agents {
		a := a
		g.Go(func() error {
			rev, err := a.Defend(gctx, answers[a.ID()], critiques[a.ID()], cfg.Params())
			if err != nil {
				return fmt.Errorf("agent %s: %w", a.ID(), err)
			}
			o.log(runlog.Record{
				"ts":    runlog.Timestamp(),
				"phase": string(PhaseDefend),
				"agent": a.ID(),
				"text":  rev,
			})
			mu.Lock()
			revised[a.ID()] = rev
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &PhaseError{Question: cfg.Question, Phase: PhaseDefend, Err: err}
	}
	return revised, nil
}

// orderedAnswers freezes the answer map into the configured agent order.
func (o *Orchestrator) orderedAnswers(answers map[string]string) []judge.Answer {
	out := make([]judge.Answer, 0, len(o.agents))
	for _, a := range o.agents {
		out = append(out, judge.Answer{AgentID: a.ID(), Text: answers[a.ID()]})
	}
	return out
}

// synthesize concatenates each agent id with its final answer, in order.
func synthesize(answers []judge.Answer) string {
	parts := make([]string, 0, len(answers))
	for _, a := range answers {
		parts = append(parts, fmt.Sprintf("### %s\n%s\n", a.AgentID, a.Text))
	}
	return strings.Join(parts, "\n")
}

// log emits a transcript record when a sink is configured. Emission is
// best-effort; the sink must not block.
func (o *Orchestrator) log(rec runlog.Record) {
	if o.sink != nil {
		o.sink.Log(rec)
	}
}
