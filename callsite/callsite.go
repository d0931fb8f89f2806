// Package callsite identifies a source position by value rather than by
// object identity, so that two operations issued from the same line on
// two different replay attempts compare equal.
package callsite

import (
	"fmt"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/roach88/tokamak/internal/tkerr"
)

// CallSite is an opaque, equality-comparable identifier of a source
// position: the file and line, plus the enclosing unit (the package's
// import path) and operation (the function name within that package,
// including any receiver type or closure suffix) that contained it.
//
// Equality is structural on all four fields (§4.1 of the design). Two
// CallSites captured from the same source line on different goroutines,
// or on different attempts of the same replay, are equal.
type CallSite struct {
	File      string
	Line      int
	Unit      string
	Operation string
}

// Capture walks the live call stack and returns the CallSite at framesAbove
// frames above its caller. framesAbove=0 identifies the immediate caller of
// Capture; framesAbove=1 identifies that caller's caller, and so on.
//
// Fails with IllegalStateError if framesAbove is negative, or if the
// runtime has no source position for the requested frame (stripped
// binary, too-shallow stack).
func Capture(framesAbove int) (CallSite, error) {
	if framesAbove < 0 {
		return CallSite{}, tkerr.NewIllegalState("callsite: frames_above_caller must be >= 0, got %d", framesAbove)
	}

	pc, file, line, ok := goruntime.Caller(framesAbove + 1)
	if !ok || file == "" || line == 0 {
		return CallSite{}, tkerr.NewIllegalState("callsite: no source position available at depth %d", framesAbove)
	}

	unit, operation := splitFuncName(pc)

	return CallSite{
		File:      file,
		Line:      line,
		Unit:      unit,
		Operation: operation,
	}, nil
}

// splitFuncName turns the runtime's fully qualified function name
// ("github.com/roach88/tokamak/op.AwaitValue[...]" or
// "github.com/roach88/tokamak/op.(*Operation).run") into an enclosing
// unit and an operation name.
func splitFuncName(pc uintptr) (unit, operation string) {
	fn := goruntime.FuncForPC(pc)
	if fn == nil {
		return "", ""
	}
	full := fn.Name()

	// The last "/"-separated path segment carries the package name and,
	// for methods, the receiver type in parentheses; split on the first
	// "." of that segment, so the package path becomes the unit and the
	// rest (receiver type included) becomes the operation.
	slash := strings.LastIndex(full, "/")
	tail := full
	prefix := ""
	if slash >= 0 {
		prefix = full[:slash+1]
		tail = full[slash+1:]
	}

	dot := strings.Index(tail, ".")
	if dot < 0 {
		return prefix + tail, ""
	}

	unit = prefix + tail[:dot]
	operation = tail[dot+1:]
	return unit, operation
}

// Equal reports whether c and other identify the same source position.
func (c CallSite) Equal(other CallSite) bool {
	return c.File == other.File &&
		c.Line == other.Line &&
		c.Unit == other.Unit &&
		c.Operation == other.Operation
}

// String renders the canonical diagnostic form: unit.operation(base:line).
func (c CallSite) String() string {
	return fmt.Sprintf("%s.%s(%s:%d)", c.Unit, c.Operation, filepath.Base(c.File), c.Line)
}
