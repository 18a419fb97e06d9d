package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"parley/internal/agent"
	"parley/internal/config"
	"parley/internal/debate"
	"parley/internal/judge"
	"parley/internal/llm"
	"parley/internal/rubric"
	"parley/internal/runlog"
)

var runFlags struct {
	question    string
	agents      string
	agentRoles  []string
	rounds      int
	judgeKind   string
	model       string
	temperature float64
	maxTokens   int
	seed        int
	constraints string
	outputDir   string
	format      string
	registry    string
	settings    string
	baseURL     string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a debate session",
	RunE:  runRun,
}

func init() {
	defaults := config.Default()

	f := runCmd.Flags()
	f.StringVarP(&runFlags.question, "question", "q", "", "Task/question to debate (required)")
	f.StringVarP(&runFlags.agents, "agents", "a", "ConservativeArchitect,OptimizingSystems", "Comma-separated agent IDs from the registry")
	f.StringArrayVar(&runFlags.agentRoles, "agent-role", nil, "Extra ad-hoc roles as 'Name:system prompt' (repeatable)")
	f.IntVarP(&runFlags.rounds, "rounds", "r", defaults.Rounds, "Number of critique/defense rounds (1-6)")
	f.StringVarP(&runFlags.judgeKind, "judge", "j", defaults.Judge, "Judge strategy: single | panel | heuristic")
	f.StringVarP(&runFlags.model, "model", "m", defaults.Model, "Model for agents and judge")
	f.Float64VarP(&runFlags.temperature, "temperature", "t", defaults.Temperature, "Sampling temperature (0.0-2.0)")
	f.IntVarP(&runFlags.maxTokens, "max-tokens", "k", defaults.MaxTokens, "Maximum output tokens (64-8192)")
	f.IntVar(&runFlags.seed, "seed", 0, "Deterministic seed (0 = unset)")
	f.StringVar(&runFlags.constraints, "constraints", "", "Optional constraints/context")
	f.StringVar(&runFlags.outputDir, "output-dir", defaults.OutputDir, "Where to write the JSONL transcript")
	f.StringVar(&runFlags.format, "format", defaults.Format, "Final output format: json | markdown")
	f.StringVar(&runFlags.registry, "registry", "configs/agents.yaml", "Agent persona registry file")
	f.StringVar(&runFlags.settings, "settings", "parley.yaml", "Optional settings file")
	f.StringVar(&runFlags.baseURL, "base-url", "", "OpenAI-compatible endpoint override")

	_ = runCmd.MarkFlagRequired("question")
}

// applySettings overlays the settings file under any flag the user did
// not set explicitly.
func applySettings(cmd *cobra.Command) error {
	s, err := config.Load(runFlags.settings)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return debate.NewConfigError("%v", err)
	}
	flags := cmd.Flags()
	if !flags.Changed("rounds") {
		runFlags.rounds = s.Rounds
	}
	if !flags.Changed("judge") {
		runFlags.judgeKind = s.Judge
	}
	if !flags.Changed("model") {
		runFlags.model = s.Model
	}
	if !flags.Changed("temperature") {
		runFlags.temperature = s.Temperature
	}
	if !flags.Changed("max-tokens") {
		runFlags.maxTokens = s.MaxTokens
	}
	if !flags.Changed("output-dir") {
		runFlags.outputDir = s.OutputDir
	}
	if !flags.Changed("format") {
		runFlags.format = s.Format
	}
	if !flags.Changed("base-url") {
		runFlags.baseURL = s.BaseURL
	}
	if !flags.Changed("seed") && s.Seed != nil {
		runFlags.seed = *s.Seed
	}
	return nil
}

// buildAgents resolves registry ids plus ad-hoc role specs into the
// ordered agent set.
func buildAgents(provider llm.Provider) ([]*agent.Agent, error) {
	reg, err := agent.LoadRegistry(runFlags.registry)
	if err != nil {
		return nil, err
	}

	var agents []*agent.Agent
	for _, id := range strings.Split(runFlags.agents, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		identity, ok := reg.Get(id)
		if !ok {
			return nil, debate.NewConfigError("unknown agent id: %s", id)
		}
		agents = append(agents, agent.New(identity, provider))
	}

	for _, spec := range runFlags.agentRoles {
		identity, err := agent.ParseAdHoc(spec)
		if err != nil {
			return nil, debate.NewConfigError("%v", err)
		}
		agents = append(agents, agent.New(identity, provider))
	}

	return agents, nil
}

func runRun(cmd *cobra.Command, _ []string) error {
	if err := applySettings(cmd); err != nil {
		return err
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	kind, err := judge.ParseKind(runFlags.judgeKind)
	if err != nil {
		return debate.NewConfigError("%v", err)
	}

	if runFlags.format != config.FormatJSON && runFlags.format != config.FormatMarkdown {
		return debate.NewConfigError("unknown output format: %q (expected json or markdown)", runFlags.format)
	}

	provider := llm.NewOpenAIProvider(config.APIKey(), runFlags.baseURL, runFlags.model, logger)

	agents, err := buildAgents(provider)
	if err != nil {
		return err
	}

	var judgeProvider llm.Provider
	if kind != judge.KindHeuristic {
		judgeProvider = provider
	}
	j, err := judge.New(kind, judgeProvider, rubric.Default(), logger)
	if err != nil {
		return debate.NewConfigError("%v", err)
	}

	runID := runlog.MakeRunID("debate")
	sink, err := runlog.NewJSONLWriter(runFlags.outputDir, runID, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	o, err := debate.New(agents, j, sink, logger)
	if err != nil {
		return err
	}

	sessionCfg := debate.SessionConfig{
		Question:    runFlags.question,
		Constraints: runFlags.constraints,
		Rounds:      runFlags.rounds,
		Temperature: runFlags.temperature,
		MaxTokens:   runFlags.maxTokens,
	}
	if cmd.Flags().Changed("seed") {
		seed := runFlags.seed
		sessionCfg.Seed = &seed
	}

	result, err := o.Run(cmd.Context(), sessionCfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runFlags.format == config.FormatMarkdown {
		fmt.Fprintln(out, "# Final Synthesis")
		fmt.Fprintln(out)
		fmt.Fprintln(out, result.Synthesis)
		fmt.Fprintf(out, "\n**Winner:** %s\n", result.WinnerID)
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetTitle("Judge Scores")
		t.AppendHeader(table.Row{"Agent", "Total", "Verdict"})
		for _, a := range result.Answers {
			jd := result.Judgements[a.AgentID]
			t.AppendRow(table.Row{a.AgentID, fmt.Sprintf("%.2f", jd.Total), jd.Verdict})
		}
		t.Render()

		color.New(color.FgGreen, color.Bold).Fprintf(out, "Winner: %s\n", result.WinnerID)

		payload, err := json.MarshalIndent(map[string]any{
			"winner":  result.WinnerID,
			"answers": result.Answers,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render result: %w", err)
		}
		fmt.Fprintln(out, string(payload))
	}

	fmt.Fprintf(out, "Transcript: %s\n", sink.Path())
	return nil
}
