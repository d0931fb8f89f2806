package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tokamak/internal/tkerr"
)

func recordOnce(tr *Trace) (*Record, error) {
	return tr.Record(0)
}

func TestRecord_AppendsOnFirstAttempt(t *testing.T) {
	tr := New()
	r, err := recordOnce(tr)
	require.NoError(t, err)
	assert.Equal(t, Unset, r.Kind)
	assert.Equal(t, 1, tr.Len())
	assert.True(t, tr.Committed())
}

func TestRecord_ReplaySameSiteSucceeds(t *testing.T) {
	tr := New()
	_, err := recordOnce(tr)
	require.NoError(t, err)

	tr.Rollback()
	_, err = recordOnce(tr)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Len(), "replaying the same site must not duplicate the record")
}

func TestRecord_MismatchIsDeterminismError(t *testing.T) {
	tr := New()
	_, err := tr.Record(0)
	require.NoError(t, err)

	tr.Rollback()
	// A different call site (this line) at the same cursor position.
	_, err = tr.Record(0)
	require.Error(t, err)
	assert.True(t, tkerr.IsDeterminismError(err))
}

func TestEarlyReturnError_NilWhenExhausted(t *testing.T) {
	tr := New()
	_, err := recordOnce(tr)
	require.NoError(t, err)

	tr.Rollback()
	_, err = recordOnce(tr)
	require.NoError(t, err)

	assert.Nil(t, tr.EarlyReturnError())
}

func TestEarlyReturnError_SetWhenRecordsRemain(t *testing.T) {
	tr := New()
	_, err := recordOnce(tr)
	require.NoError(t, err)
	_, err = recordOnce(tr)
	require.NoError(t, err)

	tr.Rollback()
	_, err = recordOnce(tr)
	require.NoError(t, err)

	derr := tr.EarlyReturnError()
	require.Error(t, derr)
	assert.True(t, tkerr.IsDeterminismError(derr))
}

func TestClearAt_ResetsMemoToUnset(t *testing.T) {
	tr := New()
	r, err := recordOnce(tr)
	require.NoError(t, err)
	r.Kind = Payload
	r.Value = 42

	tr.ClearAt(0)
	got, ok := tr.At(0)
	require.True(t, ok)
	assert.Equal(t, Unset, got.Kind)
	assert.Nil(t, got.Value)
}

func TestReset_DiscardsRecordsUnlikeRollback(t *testing.T) {
	tr := New()
	_, err := recordOnce(tr)
	require.NoError(t, err)
	require.Equal(t, 1, tr.Len())

	tr.Reset()
	assert.Equal(t, 0, tr.Len())
	assert.False(t, tr.Committed())

	// A fresh record at the same site now appends rather than replaying.
	_, err = recordOnce(tr)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Len())
}

func TestRollback_KeepsRecordsUnlikeReset(t *testing.T) {
	tr := New()
	_, err := recordOnce(tr)
	require.NoError(t, err)

	tr.Rollback()
	assert.Equal(t, 1, tr.Len(), "rollback must not discard committed records")
}
