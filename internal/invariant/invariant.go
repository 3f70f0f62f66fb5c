// Package invariant holds the fatal guards used for programming errors.
// A failed guard is logged and then panics; callers never recover from it.
package invariant

import (
	"fmt"

	"github.com/yourusername/winsync/internal/logging"
)

// Violation is the panic value raised by Assert and Unreachable.
type Violation struct {
	Kind    string // "assert" or "unreachable"
	Message string
	Value   interface{}
}

func (v *Violation) Error() string {
	if v.Value != nil {
		return fmt.Sprintf("%s: %s (%v)", v.Kind, v.Message, v.Value)
	}
	return fmt.Sprintf("%s: %s", v.Kind, v.Message)
}

// Assert panics with a *Violation when cond is false.
func Assert(cond bool, msg string) {
	if cond {
		return
	}
	fail(&Violation{Kind: "assert", Message: msg})
}

// Unreachable reports a value outside the known set.
func Unreachable(msg string, value interface{}) {
	fail(&Violation{Kind: "unreachable", Message: msg, Value: value})
}

func fail(v *Violation) {
	logging.Error().
		Str("kind", v.Kind).
		Interface("value", v.Value).
		Msg(v.Message)
	panic(v)
}
