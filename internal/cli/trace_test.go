package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tokamak/internal/history"
)

func TestTraceCommand_PrintsRecordedAttempts(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	seedHistory(t, dbPath,
		history.Attempt{StrandID: "s1", Scenario: "arithmetic", AttemptNo: 1, Outcome: history.OutcomeCommitted, Value: 8},
	)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"trace", "--db", dbPath, "--strand", "s1"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "committed")
	assert.Contains(t, out.String(), "value=8")
}

func TestTraceCommand_NoAttemptsReportsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	seedHistory(t, dbPath)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"trace", "--db", dbPath, "--strand", "does-not-exist"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "no attempts recorded")
}
