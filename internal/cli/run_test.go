package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_RunsArithmeticScenario(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"run", "../../scenario/testdata/arithmetic.yaml"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "arithmetic")
}

func TestRunCommand_RecordsHistoryWhenDatabaseGiven(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"run", "../../scenario/testdata/arithmetic.yaml", "--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	traceCmd := NewRootCommand()
	traceOut := &bytes.Buffer{}
	traceCmd.SetOut(traceOut)
	traceCmd.SetErr(traceOut)
	traceCmd.SetArgs([]string{"replay", "--db", dbPath})

	err = traceCmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, traceOut.String(), "1 strand(s)")
}

func TestRunCommand_MissingFileIsCommandError(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"run", "does-not-exist.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
