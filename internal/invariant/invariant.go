// Package invariant provides guarded assertions for internal
// programming invariants: violations can only be triggered by an
// implementation bug, never by legal external input, so they abort
// rather than return an error.
package invariant

import "fmt"

// Check panics with the message built from format and args if cond is
// false.
func Check(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("invariant violated: "+format, args...))
	}
}
