package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tokamak/internal/history"
)

func seedHistory(t *testing.T, dbPath string, attempts ...history.Attempt) {
	t.Helper()
	st, err := history.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	for _, a := range attempts {
		require.NoError(t, st.RecordAttempt(context.Background(), a))
	}
}

func TestReplayCommand_AllCommittedIsDeterministic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	seedHistory(t, dbPath,
		history.Attempt{StrandID: "s1", Scenario: "arithmetic", AttemptNo: 1, Outcome: history.OutcomeCommitted, Value: 8},
	)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"replay", "--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "all strands verified deterministic")
}

func TestReplayCommand_DeterminismErrorFailsWithExitFailure(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	seedHistory(t, dbPath,
		history.Attempt{StrandID: "s1", Scenario: "arithmetic", AttemptNo: 1, Outcome: history.OutcomeDeterminism, Error: "mismatch"},
		history.Attempt{StrandID: "s1", Scenario: "arithmetic", AttemptNo: 2, Outcome: history.OutcomeCommitted, Value: 8},
	)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"replay", "--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestReplayCommand_FiltersToRequestedStrand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	seedHistory(t, dbPath,
		history.Attempt{StrandID: "s1", Scenario: "a", AttemptNo: 1, Outcome: history.OutcomeCommitted, Value: 1},
		history.Attempt{StrandID: "s2", Scenario: "b", AttemptNo: 1, Outcome: history.OutcomeCommitted, Value: 2},
	)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"replay", "--db", dbPath, "--strand", "s1"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "1 strand(s)")
	assert.Contains(t, out.String(), "s1")
	assert.NotContains(t, out.String(), "s2")
}
