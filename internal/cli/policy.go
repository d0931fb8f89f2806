package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tokamak/policy"
)

// PolicyOptions holds flags for the policy command.
type PolicyOptions struct {
	*RootOptions
}

// NewPolicyCommand creates the policy command, which compiles a CUE
// retry policy document and prints its resolved form.
func NewPolicyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PolicyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "policy <file.cue> <path>",
		Short: "Compile a CUE retry policy",
		Long: `Compile a CUE retry policy document and print its resolved form.

path selects the policy struct within the document, e.g. "policy.checkout"
for a document shaped like:

    policy: checkout: {
        retry_on: ["inventory.locked"]
        max_tries: 3
    }

Examples:
  tokamak policy ./checkout.cue policy.checkout
  tokamak policy ./checkout.cue policy.checkout --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPolicy(opts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runPolicy(opts *PolicyOptions, path, selector string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read policy file", err)
	}

	spec, err := policy.CompileSource(string(source), selector)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile policy", err)
	}

	formatter.VerboseLog("compiled policy %q (max_tries=%d, retry_on=%v)", spec.Name, spec.MaxTries, spec.RetryOn)

	if opts.Format == "json" {
		body, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			return err
		}
		return formatter.Success(string(body))
	}
	return formatter.Success(spec)
}
