// Package diagfmt renders the human-facing diagnostic bodies for
// determinism violations (§6 of the design). The wording is fixed so
// golden-file tests can pin it: a replay bug report should read the
// same regardless of which attempt happened to surface it.
//
// Unit and operation names are passed through Unicode NFC normalization
// before being embedded, mirroring the canonicalization this codebase
// already applies to identifiers elsewhere so that two strings that
// render identically never compare unequal purely on combining-form
// differences.
package diagfmt

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tokamak/callsite"
)

// Mismatch renders the body of a determinism error for the case where
// the cursor's call site on this attempt does not match the call site
// recorded at the same position on the prior attempt. remaining lists
// every prior-attempt operation from the cursor to the end — not just
// the one at the mismatched position — so the full divergent tail is
// visible in one diagnostic.
func Mismatch(index int, got callsite.CallSite, remaining []callsite.CallSite) string {
	var b strings.Builder
	fmt.Fprintf(&b, "replay diverged at step %d: now executed %s "+
		"but last time it executed:\n\n", index, normalize(got.String()))
	for _, site := range remaining {
		fmt.Fprintf(&b, "  - %s\n", normalize(site.String()))
	}
	b.WriteString("\nYou need to remove the source of non-determinism; consider using once to memoize the divergent operation.")
	return b.String()
}

// EarlyReturn renders the body of a determinism error for the case
// where this attempt returned (or completed) before replaying every
// record the prior attempt had accumulated.
func EarlyReturn(index, total int, remaining []callsite.CallSite) string {
	var b strings.Builder
	fmt.Fprintf(&b, "replay diverged after %d of %d recorded operations: now returned early "+
		"but last time the following operations were executed:\n\n", index, total)
	for _, site := range remaining {
		fmt.Fprintf(&b, "  - %s\n", normalize(site.String()))
	}
	b.WriteString("\nYou need to remove the source of non-determinism; consider using once to memoize the operations that differ.")
	return b.String()
}

// UnitOperation renders a normalized "unit.operation" label, used by
// callers that want the pair without the full call-site position.
func UnitOperation(unit, operation string) string {
	return fmt.Sprintf("%s.%s", normalize(unit), normalize(operation))
}

func normalize(s string) string {
	return norm.NFC.String(s)
}
