package rebuild

import (
	"fmt"

	"github.com/chazu/kerf/pkg/op"
)

// Rule evaluates operations of one kind. Validate, when set, runs before
// Eval and can reject the operation without touching the kernel; its
// error is recorded against the operation like any other failure. Eval
// returns the produced geometry, or nil for operations that produce none
// (sketches), or an error that the evaluator records against the
// operation.
type Rule struct {
	Label    string
	Validate func(*Context, op.Op) error
	Eval     func(*Context, op.Op) (*Result, error)
}

var registry = map[op.Kind]Rule{}

// Register installs the rule for an operation kind. Registering a kind
// twice is a programming error.
func Register(k op.Kind, r Rule) {
	if _, ok := registry[k]; ok {
		panic(fmt.Sprintf("rebuild: rule for %q already registered", k))
	}
	registry[k] = r
}

// RuleFor returns the registered rule for a kind.
func RuleFor(k op.Kind) (Rule, bool) {
	r, ok := registry[k]
	return r, ok
}
