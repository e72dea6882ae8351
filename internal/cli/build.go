package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/engine"
	"github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/signal"
	"github.com/mrz1836/foundry/internal/tui"
)

type buildOptions struct {
	project    string
	promptFile string
}

// AddBuildCommand adds the build command.
func AddBuildCommand(root *cobra.Command, flags *GlobalFlags) {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build [prompt...]",
		Short: "Run a full build for a project",
		Long: `Run every agent of the registry for one project, phase by phase.

The prompt is taken from the arguments or from --prompt-file. Progress is
printed as agents settle; Ctrl+C cancels the build and keeps the partial
state.

Examples:
  foundry build --project todo "a todo app with auth"
  foundry build --project shop --prompt-file brief.md
  foundry build --project todo -o json "a todo app"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd.OutOrStdout(), flags, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.project, "project", "p", "", "project id (workspace directory name)")
	cmd.Flags().StringVar(&opts.promptFile, "prompt-file", "", "read the prompt from a file")
	_ = cmd.MarkFlagRequired("project")
	root.AddCommand(cmd)
}

func readPrompt(opts *buildOptions, args []string) (string, error) {
	if opts.promptFile != "" {
		data, err := os.ReadFile(opts.promptFile)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return "", errors.NewExitCode2Error(fmt.Errorf("%w: a prompt is required", errors.ErrEmptyValue))
	}
	return prompt, nil
}

func runBuild(ctx context.Context, w io.Writer, flags *GlobalFlags, opts *buildOptions, args []string) error {
	prompt, err := readPrompt(opts, args)
	if err != nil {
		return err
	}

	tui.CheckNoColor()
	out := tui.NewOutput(w, flags.Output)
	logger := GetLogger()

	svc, err := setupServices(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	sig := signal.NewHandler(ctx)
	defer sig.Stop()

	req := engine.BuildRequest{ProjectID: opts.project, Prompt: prompt}
	if flags.Output != OutputJSON && !flags.Quiet {
		req.Callback = out.Event
	}

	out.Info(fmt.Sprintf("Building %s (%d agents, %d phases)", opts.project,
		svc.Engine.Plan().Len(), len(svc.Engine.Plan().Phases)))

	report, buildErr := svc.Engine.StartBuild(logger.WithContext(sig.Context()), req)
	if report == nil {
		return buildErr
	}

	if flags.Output == OutputJSON {
		if err := out.JSON(buildSummary(report, buildErr)); err != nil {
			return err
		}
		return buildErr
	}

	tui.RenderResults(w, svc.Engine.Plan().Order, report.Results)
	printBuildOutcome(out, report, buildErr)
	return buildErr
}

type summary struct {
	RunID     string                             `json:"run_id"`
	ProjectID string                             `json:"project_id"`
	Status    domain.BuildStatus                 `json:"status"`
	Phases    int                                `json:"phases"`
	Autonomy  domain.AutonomyReport              `json:"autonomy"`
	Results   map[string]*domain.ExecutionResult `json:"results"`
	StatePath string                             `json:"state_path,omitempty"`
	Error     string                             `json:"error,omitempty"`
	AbortedBy string                             `json:"aborted_by,omitempty"`
	Hint      string                             `json:"hint,omitempty"`
}

func buildSummary(r *engine.BuildReport, err error) summary {
	s := summary{
		RunID:     r.RunID,
		ProjectID: r.ProjectID,
		Status:    r.Status,
		Phases:    len(r.Phases),
		Autonomy:  r.Autonomy,
		Results:   r.Results,
		StatePath: r.StatePath,
	}
	if err != nil {
		s.Error = err.Error()
		if aborted, ok := errors.AsBuildAborted(err); ok {
			s.AbortedBy = aborted.Agent
			s.Hint = aborted.Remediation
		}
	}
	return s
}

func printBuildOutcome(out tui.Output, r *engine.BuildReport, err error) {
	if aborted, ok := errors.AsBuildAborted(err); ok {
		out.Error(fmt.Errorf("build aborted by %s (%s)", aborted.Agent, aborted.Kind))
		if aborted.Remediation != "" {
			out.Detail(aborted.Remediation)
		}
		if aborted.StatePath != "" {
			out.Detail("partial state kept at " + aborted.StatePath)
		}
		return
	}
	if err != nil {
		msg, action := errors.Actionable(err)
		out.Error(fmt.Errorf("%s", msg))
		if action != "" {
			out.Detail(action)
		}
		return
	}
	a := r.Autonomy
	out.Success(fmt.Sprintf("build %s: %s", r.RunID, r.Status))
	if a.Iterations > 0 {
		retries := "retries"
		if a.Iterations == 1 {
			retries = "retry"
		}
		out.Detail(fmt.Sprintf("self-heal: %d %s (tests: %t, security: %t)",
			a.Iterations, retries, a.RanTests, a.RanSecurity))
	}
	if r.StatePath != "" {
		out.Detail("state: " + r.StatePath)
	}
}
