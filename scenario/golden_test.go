package scenario

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_ArithmeticScenario(t *testing.T) {
	s, err := LoadFile("testdata/arithmetic.yaml")
	require.NoError(t, err)
	RunWithGolden(t, s)
}
