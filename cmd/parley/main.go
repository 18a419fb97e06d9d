// parley runs structured multi-agent debates: personas propose answers,
// critique each other across rounds, defend, and a judge ranks the
// outcome.
//
// Usage:
//
//	parley run -q "Design a rate limiter" -a ConservativeArchitect,OptimizingSystems
//	parley run -q "..." --judge heuristic --rounds 1 --format markdown
//	parley agents
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Multi-agent debate orchestrator",
	Long: "Parley orchestrates LLM personas through a propose/critique/defend\n" +
		"protocol and ranks the final answers with a configurable judge.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(*cobra.Command, []string) {
		// Best-effort .env load for OPENAI_API_KEY and friends.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.Version = version
}

// newLogger returns the operational logger; the debate transcript goes to
// the JSONL run log regardless.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
