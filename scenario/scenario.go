// Package scenario is a data-driven conformance harness for the
// properties a deterministic-replay closure must satisfy: that the
// public future resolves to the right value, that once-blocks run
// exactly once no matter how many replay attempts it takes, and that
// the same result holds whether a future resolves on the first
// attempt or only after several wake-ups. Scenarios are YAML
// documents describing a sequence of await/once steps rather than Go
// closures, so a wide set of orderings can be added without writing
// new Go for each one — the same approach this codebase already takes
// for its CUE-driven concept scenarios, just over a YAML flow instead.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tokamak"
	"github.com/roach88/tokamak/future"
)

// StepKind distinguishes an asynchronous await from a synchronous,
// memoized once.
type StepKind string

const (
	KindAwait StepKind = "await"
	KindOnce  StepKind = "once"
)

// Step is one entry in a Scenario's Flow: either an await of a future
// that resolves to Value after DelayMS (optionally failing), or a
// once-block tagged by Name whose invocation count the harness tracks
// to verify idempotency (§8, S6). Retry applies only to once-blocks:
// with Retry and Fail set, the first invocation fails and is retried;
// an await step ignores Retry.
type Step struct {
	Kind    StepKind `yaml:"kind"`
	Name    string   `yaml:"name"`
	Value   int      `yaml:"value"`
	DelayMS int      `yaml:"delay_ms,omitempty"`
	Fail    bool     `yaml:"fail,omitempty"`
	Retry   bool     `yaml:"retry,omitempty"`
}

// Scenario is a named, ordered flow of Steps plus the outcome it is
// expected to produce.
type Scenario struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description"`
	Flow           []Step         `yaml:"flow"`
	ExpectResult   int            `yaml:"expect_result"`
	ExpectCounters map[string]int `yaml:"expect_counters,omitempty"`
}

// LoadFile decodes a Scenario from a YAML file, rejecting unknown
// fields so a typo in a scenario document fails loudly rather than
// silently matching the zero value.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("scenario: decode %s: %w", path, err)
	}
	return &s, nil
}

// Result is the outcome of running a Scenario once.
type Result struct {
	Value    int
	Err      error
	Counters map[string]int
}

// Run executes s exactly once as a single tokamak strand: Flow steps
// are folded left to right into a running total, awaits and onces
// alike, using the order given in the document as the order the
// steps are issued in the closure.
func Run(s *Scenario) *Result {
	counters := make(map[string]int)

	f := tokamak.Run(func() (int, error) {
		total := 0
		for _, step := range s.Flow {
			v, err := runStep(step, counters)
			if err != nil {
				return 0, err
			}
			total += v
		}
		return total, nil
	})

	deadline := time.Now().Add(5 * time.Second)
	for !f.Ready() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	v, err := f.Result()
	return &Result{Value: v, Err: err, Counters: counters}
}

func runStep(step Step, counters map[string]int) (int, error) {
	switch step.Kind {
	case KindOnce:
		if step.Retry {
			policy := tokamak.NewOperationBuilder().RetryOn(func(err error) bool { return err != nil }).Build()
			return tokamak.OnceWith(policy, func() (int, error) {
				counters[step.Name]++
				if step.Fail && counters[step.Name] < 2 {
					return 0, fmt.Errorf("scenario: step %q failed transiently", step.Name)
				}
				return step.Value, nil
			})
		}
		return tokamak.Once(func() (int, error) {
			counters[step.Name]++
			if step.Fail {
				return 0, fmt.Errorf("scenario: step %q failed", step.Name)
			}
			return step.Value, nil
		})

	case KindAwait:
		fut := future.Go(func() (int, error) {
			if step.DelayMS > 0 {
				time.Sleep(time.Duration(step.DelayMS) * time.Millisecond)
			}
			if step.Fail {
				return 0, fmt.Errorf("scenario: step %q failed", step.Name)
			}
			return step.Value, nil
		})
		return tokamak.Await(fut)

	default:
		return 0, fmt.Errorf("scenario: unknown step kind %q", step.Kind)
	}
}
