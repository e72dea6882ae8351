package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/tui"
)

// agentInfo is the JSON form of one registry entry.
type agentInfo struct {
	Name        string             `json:"name"`
	Phase       int                `json:"phase"`
	Kind        string             `json:"kind"`
	Criticality domain.Criticality `json:"criticality"`
	Effect      string             `json:"effect"`
	Timeout     time.Duration      `json:"timeout_ns"`
	DependsOn   []string           `json:"depends_on"`
	Fallback    bool               `json:"has_fallback"`
}

// AddAgentsCommand adds the agents command.
func AddAgentsCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(&cobra.Command{
		Use:   "agents",
		Short: "List registered agents",
		Long: `List every agent with its phase, criticality, effect, and timeout.

Examples:
  foundry agents
  foundry agents -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAgents(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	})
}

func runAgents(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	tui.CheckNoColor()
	reg, plan, err := planRegistry(ctx, flags)
	if err != nil {
		return err
	}

	descriptors := reg.List()
	if flags.Output == OutputJSON {
		infos := make([]agentInfo, 0, len(descriptors))
		for _, d := range descriptors {
			infos = append(infos, agentInfo{
				Name:        d.Name,
				Phase:       plan.PhaseOf(d.Name) + 1,
				Kind:        string(d.Kind),
				Criticality: d.Criticality,
				Effect:      d.Effect.String(),
				Timeout:     d.Timeout,
				DependsOn:   d.DependsOn,
				Fallback:    d.HasFallback(),
			})
		}
		return tui.NewOutput(w, flags.Output).JSON(infos)
	}

	rows := make([]tui.AgentRow, 0, len(descriptors))
	for _, d := range descriptors {
		rows = append(rows, tui.AgentRow{
			Name:        d.Name,
			Phase:       plan.PhaseOf(d.Name),
			Criticality: d.Criticality,
			Effect:      d.Effect.String(),
			Timeout:     d.Timeout,
			DependsOn:   d.DependsOn,
		})
	}
	tui.RenderAgents(w, rows)
	return nil
}
