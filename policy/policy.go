// Package policy loads retry policy configuration from CUE source,
// the same way concept specs are compiled elsewhere in this codebase:
// via the CUE SDK's Go API rather than shelling out to a CLI. A policy
// document declares, for each named operation, which error kinds are
// eligible for an in-place retry; Spec.BuildOperation turns that declaration
// into an *op.Operation ready to pass to tokamak.AwaitWith/OnceWith.
package policy

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/tokamak/op"
)

// Spec is the compiled form of one named retry policy.
type Spec struct {
	Name     string   `json:"name"`
	RetryOn  []string `json:"retry_on"`
	MaxTries int      `json:"max_tries"`
}

// CompileError reports a malformed policy document.
type CompileError struct {
	Field   string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("policy: %s: %s", e.Field, e.Message)
}

// CompilePolicy parses a CUE value shaped like:
//
//	policy: checkout: {
//	    retry_on: ["*tokamak.IllegalStateError"]
//	    max_tries: 3
//	}
//
// into a Spec. v must be the policy struct itself (already
// path-selected by the caller), matching the calling convention of
// this codebase's other CUE compilation entry points.
func CompilePolicy(v cue.Value) (*Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &Spec{MaxTries: 1}

	if labels := v.Path().Selectors(); len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	retryVal := v.LookupPath(cue.ParsePath("retry_on"))
	if retryVal.Exists() {
		iter, err := retryVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			spec.RetryOn = append(spec.RetryOn, s)
		}
	}

	maxVal := v.LookupPath(cue.ParsePath("max_tries"))
	if maxVal.Exists() {
		n, err := maxVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if n < 1 {
			return nil, &CompileError{Field: "max_tries", Message: "must be >= 1"}
		}
		spec.MaxTries = int(n)
	}

	if len(spec.RetryOn) == 0 {
		return nil, &CompileError{Field: "retry_on", Message: "at least one error kind is required"}
	}

	return spec, nil
}

// CompileSource is a convenience wrapper around CompilePolicy for
// callers that have raw CUE source rather than an already-parsed
// cue.Value: it creates a context, compiles source, and selects path.
func CompileSource(source string, path string) (*Spec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(source)
	return CompilePolicy(v.LookupPath(cue.ParsePath(path)))
}

// BuildOperation turns a compiled Spec into an *op.Operation whose
// RetryOn predicate matches by the error kinds the Spec named (via
// registered ErrorKind classifiers — see RegisterKind) up to MaxTries
// attempts.
func (s *Spec) BuildOperation() *op.Operation {
	tries := 0
	return op.NewBuilder().RetryOn(func(err error) bool {
		if err == nil {
			return false
		}
		tries++
		if tries >= s.MaxTries {
			return false
		}
		for _, kind := range s.RetryOn {
			if classifier, ok := kinds[kind]; ok && classifier(err) {
				return true
			}
		}
		return false
	}).Build()
}

// kindClassifier reports whether err belongs to a named error kind.
type kindClassifier func(error) bool

var kinds = map[string]kindClassifier{}

// RegisterKind associates a CUE-facing error kind name (as used in a
// policy document's retry_on list) with a predicate that recognizes
// it. Embedding programs call this during init for their own error
// types; this package ships no built-in kinds since it knows nothing
// about the caller's domain errors.
func RegisterKind(name string, classifier func(error) bool) {
	kinds[name] = classifier
}

func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	return &CompileError{Field: "cue", Message: errs[0].Error()}
}
