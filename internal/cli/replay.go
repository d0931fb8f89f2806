package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tokamak/internal/history"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	StrandID string // optional - specific strand only
}

// ReplayStrandResult holds the replay verdict for a single strand.
type ReplayStrandResult struct {
	StrandID      string `json:"strand_id"`
	Attempts      int    `json:"attempts"`
	Committed     bool   `json:"committed"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Strands          []ReplayStrandResult `json:"strands"`
	TotalStrands     int                  `json:"total_strands"`
	AllDeterministic bool                 `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Inspect recorded strands and verify they settled deterministically",
		Long: `Inspect the recorded attempt history and verify that every strand
settled on a single committed outcome: no attempt recorded a
determinism_error, and the final attempt recorded committed.

Exit codes:
  0 - every recorded strand is deterministic
  1 - at least one strand recorded a determinism error or did not end
      on a committed attempt
  2 - command error (database not found, etc.)

Examples:
  tokamak replay --db ./tokamak-history.db
  tokamak replay --db ./tokamak-history.db --strand <uuid>
  tokamak replay --db ./tokamak-history.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite attempt-history database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.StrandID, "strand", "", "inspect a specific strand only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := history.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer st.Close()

	strandIDs, err := strandIDsFor(ctx, st, opts.StrandID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list recorded strands", err)
	}

	result := ReplayResult{AllDeterministic: true}
	for _, id := range strandIDs {
		attempts, err := st.ListByStrand(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to inspect strand %s", id), err)
		}

		r := verifyStrand(id, attempts)
		result.Strands = append(result.Strands, r)
		if !r.Deterministic {
			result.AllDeterministic = false
		}
	}
	result.TotalStrands = len(result.Strands)

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result)
}

// strandIDsFor resolves the set of strand ids to inspect: just the one
// requested, or every distinct strand the history store has recorded
// an attempt for.
func strandIDsFor(ctx context.Context, st *history.Store, requested string) ([]string, error) {
	if requested != "" {
		return []string{requested}, nil
	}
	return st.DistinctStrandIDs(ctx)
}

// verifyStrand reports whether a strand's recorded attempts settle
// deterministically: the last attempt committed, and no attempt along
// the way recorded a determinism error.
func verifyStrand(id string, attempts []history.Attempt) ReplayStrandResult {
	r := ReplayStrandResult{StrandID: id, Attempts: len(attempts), Deterministic: true}
	for i, a := range attempts {
		if a.Outcome == history.OutcomeDeterminism {
			r.Deterministic = false
		}
		if i == len(attempts)-1 {
			r.Committed = a.Outcome == history.OutcomeCommitted
		}
	}
	if !r.Committed {
		r.Deterministic = false
	}
	return r
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := StrandResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &StrandError{Code: "E_DETERMINISM", Message: "determinism verification failed"}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay summary: %d strand(s)\n\n", result.TotalStrands)
	for _, s := range result.Strands {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s strand %s (%d attempt(s), committed=%v)\n", status, s.StrandID, s.Attempts, s.Committed)
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ all strands verified deterministic")
		return nil
	}
	fmt.Fprintln(w, "✗ determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
