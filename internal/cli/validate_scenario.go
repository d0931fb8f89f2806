package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tokamak/scenario"
)

// NewValidateCommand creates the validate command: it loads a scenario
// YAML document and reports whether it is well-formed, without
// actually running it.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Validate a scenario file without running it",
		Long: `Validate a scenario YAML document: that it decodes, has no
unknown fields, and names at least one flow step.

Examples:
  tokamak validate ./scenarios/arithmetic.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateScenario(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidateScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := scenario.LoadFile(path)
	if err != nil {
		return formatter.Error("E_SCENARIO", err.Error(), nil)
	}

	if len(s.Flow) == 0 {
		return formatter.Error("E_EMPTY_FLOW", fmt.Sprintf("scenario %q names no flow steps", s.Name), nil)
	}

	formatter.VerboseLog("scenario %q: %d flow step(s)", s.Name, len(s.Flow))
	return formatter.Success(fmt.Sprintf("scenario %q is valid (%d step(s))", s.Name, len(s.Flow)))
}
