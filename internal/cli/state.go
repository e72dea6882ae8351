package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/tui"
)

// AddStateCommand adds the state command group.
func AddStateCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect project state",
	}

	var key string
	show := &cobra.Command{
		Use:   "show <project>",
		Short: "Show the persisted state of a project",
		Long: `Show the state document of a project.

Text output summarizes the last build and agent outcomes. With --key a single
state value is printed as JSON; -o json prints the whole document.

Examples:
  foundry state show todo
  foundry state show todo --key test_results
  foundry state show todo -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStateShow(cmd.Context(), cmd.OutOrStdout(), flags, args[0], key)
		},
	}
	show.Flags().StringVarP(&key, "key", "k", "", "print only this state key")
	cmd.AddCommand(show)
	root.AddCommand(cmd)
}

func runStateShow(ctx context.Context, w io.Writer, flags *GlobalFlags, projectID, key string) error {
	tui.CheckNoColor()
	out := tui.NewOutput(w, flags.Output)

	svc, err := setupServices(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	st, err := svc.Engine.GetState(ctx, projectID)
	if err != nil {
		return err
	}

	if key != "" {
		v, ok := st.Get(key)
		if !ok {
			return errors.NewExitCode2Error(fmt.Errorf("state key %q is not set for %s", key, projectID))
		}
		return out.JSON(v)
	}
	if flags.Output == OutputJSON {
		return out.JSON(st)
	}
	printState(w, out, projectID, st)
	return nil
}

func printState(w io.Writer, out tui.Output, projectID string, st *domain.ProjectState) {
	lb := st.LastBuild
	if lb.RunID == "" {
		out.Info(fmt.Sprintf("%s has no builds yet.", projectID))
		return
	}
	status := tui.StyleBold.Foreground(tui.BuildStatusColor(lb.Status)).Render(tui.Label(string(lb.Status)))
	_, _ = fmt.Fprintf(w, "Project %s  last build %s  %s\n", projectID, lb.RunID, status)
	if lb.AbortedBy != "" {
		out.Warning(fmt.Sprintf("aborted by %s (%s)", lb.AbortedBy, lb.ErrorKind))
	}
	_, _ = fmt.Fprintf(w, "Artifacts: %d  Tool calls logged: %d  Plan steps: %d\n",
		len(st.Artifacts), len(st.ToolLog), len(st.Plan))
	if st.TestResults.Status != "" {
		_, _ = fmt.Fprintf(w, "Tests: %s (%s)\n", st.TestResults.Status, st.TestResults.Command)
	}
	if len(st.AgentResults) > 0 {
		tui.RenderOutcomes(w, st.AgentResults)
	}
	for name, rec := range st.AgentErrors {
		out.Warning(fmt.Sprintf("%s: %s. %s", name, rec.Kind, rec.Hint))
	}
}
