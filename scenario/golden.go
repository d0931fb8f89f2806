package scenario

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// snapshot is the canonical, deterministically-ordered view of a
// Result suitable for golden-file comparison: map iteration order is
// not stable, so Counters is flattened into a sorted slice before
// marshaling.
type snapshot struct {
	Name     string        `json:"name"`
	Value    int           `json:"value"`
	Error    string        `json:"error,omitempty"`
	Counters []counterEntry `json:"counters,omitempty"`
}

type counterEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RunWithGolden runs s and compares its result against the golden
// fixture at testdata/golden/{s.Name}.golden. Regenerate fixtures with
// `go test ./scenario -update`.
func RunWithGolden(t *testing.T, s *Scenario) {
	t.Helper()

	result := Run(s)

	snap := snapshot{Name: s.Name, Value: result.Value}
	if result.Err != nil {
		snap.Error = result.Err.Error()
	}
	for name, count := range result.Counters {
		snap.Counters = append(snap.Counters, counterEntry{Name: name, Count: count})
	}
	sortCounters(snap.Counters)

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		t.Fatalf("scenario: marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, body)
}

func sortCounters(entries []counterEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].Name > entries[j].Name; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}
