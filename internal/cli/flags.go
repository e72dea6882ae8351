package cli

import (
	stderrors "errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/foundry/internal/config"
	"github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/tui"
)

// Exit codes for the CLI.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitInvalidInput = 2
	// ExitBuildAborted is returned when a critical agent stopped the build.
	ExitBuildAborted = 3
)

// Output format constants.
const (
	OutputText = tui.FormatText
	OutputJSON = tui.FormatJSON
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	Output  string
	Verbose bool
	Quiet   bool

	// Config overrides, applied over files and environment.
	WorkspaceRoot     string
	StateBackend      string
	MaxParallel       int
	RegistryOverrides string
	Model             string
}

// AddGlobalFlags adds persistent flags to the root command.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	pf.StringVar(&flags.WorkspaceRoot, "workspace-root", "", "directory holding project workspaces")
	pf.StringVar(&flags.StateBackend, "state-backend", "", "state store backend (file|sqlite)")
	pf.IntVar(&flags.MaxParallel, "max-parallel", 0, "maximum agents running at once within a phase")
	pf.StringVar(&flags.RegistryOverrides, "registry-overrides", "", "YAML file adjusting agent timeouts and criticality")
	pf.StringVar(&flags.Model, "model", "", "Anthropic model id")
}

// BindGlobalFlags binds the output flags to Viper so FOUNDRY_OUTPUT,
// FOUNDRY_VERBOSE and FOUNDRY_QUIET work as well.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	rootFlags := cmd.Root().PersistentFlags()
	for _, name := range []string{"output", "verbose", "quiet"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}
	v.SetEnvPrefix("FOUNDRY")
	v.AutomaticEnv()
	return nil
}

// overrides converts the config flags into a sparse Config.
func (f *GlobalFlags) overrides() *config.Config {
	return &config.Config{
		Workspace: config.WorkspaceConfig{Root: f.WorkspaceRoot},
		State:     config.StateConfig{Backend: f.StateBackend},
		Engine: config.EngineConfig{
			MaxParallel:       f.MaxParallel,
			RegistryOverrides: f.RegistryOverrides,
		},
		Providers: config.ProvidersConfig{Model: f.Model},
	}
}

// ValidOutputFormats returns the list of valid output format values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat checks if the given format is a valid output format.
func IsValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}

// ExitCodeForError maps an error to the process exit code.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if stderrors.Is(err, errors.ErrBuildAborted) {
		return ExitBuildAborted
	}
	if errors.IsExitCode2Error(err) || stderrors.Is(err, errors.ErrInvalidConfig) || stderrors.Is(err, errors.ErrConfig) {
		return ExitInvalidInput
	}
	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}
	return ExitError
}

// isInvalidInputError catches cobra's built-in flag and argument errors.
func isInvalidInputError(errMsg string) bool {
	patterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
		"accepts ",
		"requires at least",
	}
	for _, p := range patterns {
		if strings.Contains(errMsg, p) {
			return true
		}
	}
	return false
}
