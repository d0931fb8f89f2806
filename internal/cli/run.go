package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/tokamak/internal/history"
	"github.com/roach88/tokamak/scenario"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunResult is the JSON/text payload for a completed run.
type RunResult struct {
	Scenario string         `json:"scenario"`
	StrandID string         `json:"strand_id"`
	Value    int            `json:"value"`
	Counters map[string]int `json:"counters,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario to completion",
		Long: `Run a scenario YAML document as a single tokamak strand, replaying
it to completion across however many attempts its awaited futures take.

If --db is given, the run's final outcome (committed or failed) is
recorded as a single attempt row for later inspection with "tokamak
trace" and "tokamak replay"; the individual replay attempts are not
recorded.

Examples:
  tokamak run ./scenarios/arithmetic.yaml
  tokamak run ./scenarios/arithmetic.yaml --db ./tokamak-history.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to a SQLite database recording attempt history")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := scenario.LoadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	strandID := uuid.Must(uuid.NewV7()).String()
	slog.Info("strand starting", "scenario", s.Name, "strand_id", strandID)

	var hist *history.Store
	if opts.Database != "" {
		hist, err = history.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		defer hist.Close()
	}

	start := time.Now()
	result := scenario.Run(s)
	slog.Info("strand finished", "scenario", s.Name, "strand_id", strandID, "elapsed", time.Since(start))

	if hist != nil {
		outcome := history.OutcomeCommitted
		if result.Err != nil {
			outcome = history.OutcomeFailed
		}
		if err := hist.RecordAttempt(context.Background(), history.Attempt{
			StrandID: strandID, Scenario: s.Name, AttemptNo: 1, Outcome: outcome,
			Value: result.Value, Error: errString(result.Err),
		}); err != nil {
			slog.Error("failed to record attempt history", "error", err)
		}
	}

	if result.Err != nil {
		return WrapExitError(ExitFailure, "strand did not complete successfully", result.Err)
	}

	return formatter.Success(RunResult{
		Scenario: s.Name,
		StrandID: strandID,
		Value:    result.Value,
		Counters: result.Counters,
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
