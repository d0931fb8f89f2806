package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tokamak/internal/history"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	StrandID string
}

// TraceResult holds the complete attempt timeline for one strand.
type TraceResult struct {
	StrandID string            `json:"strand_id"`
	Attempts []history.Attempt `json:"attempts"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the recorded attempt timeline for a strand",
		Long: `Print every recorded attempt for a strand, in order: its outcome
(committed, determinism_error, or failed), its resolved value if any,
and when it was recorded.

Examples:
  tokamak trace --db ./tokamak-history.db --strand <uuid>
  tokamak trace --db ./tokamak-history.db --strand <uuid> --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite attempt-history database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.StrandID, "strand", "", "strand id to trace (required)")
	_ = cmd.MarkFlagRequired("strand")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := history.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer st.Close()

	attempts, err := st.ListByStrand(ctx, opts.StrandID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list attempts", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if len(attempts) == 0 {
		if opts.Format == "json" {
			return formatter.Success(TraceResult{StrandID: opts.StrandID})
		}
		fmt.Fprintf(formatter.Writer, "no attempts recorded for strand: %s\n", opts.StrandID)
		return nil
	}

	if opts.Format == "json" {
		return formatter.Success(TraceResult{StrandID: opts.StrandID, Attempts: attempts})
	}

	for _, a := range attempts {
		fmt.Fprintf(formatter.Writer, "#%d  %-18s value=%d  %s", a.AttemptNo, a.Outcome, a.Value, a.RecordedAt)
		if a.Error != "" {
			fmt.Fprintf(formatter.Writer, "  error=%q", a.Error)
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}
