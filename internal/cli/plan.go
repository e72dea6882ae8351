package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/foundry/internal/dag"
	"github.com/mrz1836/foundry/internal/registry"
	"github.com/mrz1836/foundry/internal/tui"
)

// AddPlanCommand adds the plan command.
func AddPlanCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(&cobra.Command{
		Use:   "plan",
		Short: "Show the execution phases of the agent graph",
		Long: `Plan the registered agents into phases without running anything.
Agents in the same phase run concurrently.

Examples:
  foundry plan
  foundry plan --registry-overrides agents.yaml -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	})
}

// planRegistry loads configuration and returns the registry with its plan.
func planRegistry(ctx context.Context, flags *GlobalFlags) (*registry.Registry, *dag.Plan, error) {
	cfg, err := loadConfig(GetLogger().WithContext(ctx), flags)
	if err != nil {
		return nil, nil, err
	}
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	plan, err := dag.Build(reg)
	if err != nil {
		return nil, nil, err
	}
	return reg, plan, nil
}

func runPlan(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	tui.CheckNoColor()
	_, plan, err := planRegistry(ctx, flags)
	if err != nil {
		return err
	}
	if flags.Output == OutputJSON {
		return tui.NewOutput(w, flags.Output).JSON(plan)
	}
	tui.RenderPlan(w, plan.Phases)
	return nil
}
