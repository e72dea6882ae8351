package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mrz1836/foundry/internal/behavior"
	"github.com/mrz1836/foundry/internal/config"
	"github.com/mrz1836/foundry/internal/dag"
	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/tui"
)

type checkReport struct {
	OK          bool            `json:"ok"`
	Agents      int             `json:"agents"`
	Phases      int             `json:"phases"`
	RealAgents  int             `json:"real_behavior_agents"`
	Credentials map[string]bool `json:"credentials"`
	Error       string          `json:"error,omitempty"`
}

// AddCheckCommand adds the check command.
func AddCheckCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate configuration and the agent registry",
		Long: `Load configuration, build the registry, and run the startup checks:
dependency cycles, unknown dependencies, and agents without an effect. Also
reports which provider credentials are present.

Exits with code 2 when a check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	})
}

func runCheck(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	tui.CheckNoColor()
	out := tui.NewOutput(w, flags.Output)
	report := checkReport{Credentials: config.LoadCredentials().Available()}

	err := check(ctx, flags, &report)
	report.OK = err == nil
	if err != nil {
		report.Error = err.Error()
	}

	if flags.Output == OutputJSON {
		if jerr := out.JSON(report); jerr != nil {
			return jerr
		}
	} else {
		printCheck(w, out, report, err)
	}
	if err != nil {
		return errors.NewExitCode2Error(err)
	}
	return nil
}

func check(ctx context.Context, flags *GlobalFlags, report *checkReport) error {
	cfg, err := loadConfig(GetLogger().WithContext(ctx), flags)
	if err != nil {
		return err
	}
	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	report.Agents = reg.Len()
	if err := reg.Validate(); err != nil {
		return err
	}
	sets := behavior.Default()
	report.RealAgents = sets.Size()
	if err := behavior.Check(reg, sets); err != nil {
		return err
	}
	plan, err := dag.Build(reg)
	if err != nil {
		return err
	}
	report.Phases = len(plan.Phases)
	return nil
}

func printCheck(w io.Writer, out tui.Output, r checkReport, err error) {
	if err != nil {
		msg, action := errors.Actionable(err)
		out.Error(fmt.Errorf("%s", msg))
		if action != "" {
			out.Detail(action)
		}
		if msg != err.Error() {
			_, _ = fmt.Fprintln(w, tui.StyleDim.Render("  "+err.Error()))
		}
	} else {
		out.Success(fmt.Sprintf("%d agents in %d phases, %d with real behavior", r.Agents, r.Phases, r.RealAgents))
	}

	names := make([]string, 0, len(r.Credentials))
	for name := range r.Credentials {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if r.Credentials[name] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", tui.StatusIcon(domain.StatusOK), name)
		} else {
			_, _ = fmt.Fprintln(w, tui.StyleDim.Render("  · "+name+" (not set)"))
		}
	}
}
