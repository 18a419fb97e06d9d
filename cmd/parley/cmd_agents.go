package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"parley/internal/agent"
)

var agentsFlags struct {
	registry string
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the personas available in the agent registry",
	RunE:  runAgents,
}

func init() {
	agentsCmd.Flags().StringVar(&agentsFlags.registry, "registry", "configs/agents.yaml", "Agent persona registry file")
}

func runAgents(cmd *cobra.Command, _ []string) error {
	reg, err := agent.LoadRegistry(agentsFlags.registry)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Style", "System Prompt"})
	for _, id := range reg.IDs() {
		identity, _ := reg.Get(id)
		prompt := identity.System
		if len(prompt) > 80 {
			prompt = prompt[:77] + "..."
		}
		t.AppendRow(table.Row{identity.ID, identity.Style, prompt})
	}
	t.Render()
	return nil
}
