// Package params evaluates dimension expressions against a table of named
// parameters. Expressions run in a sandboxed zygomys environment so user
// formulas ("width / 2 + wall") cannot touch the filesystem or syscalls;
// plain numeric literals take a fast path that never starts the
// interpreter.
package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
)

// Param is one named parameter of a studio. Value is itself an expression
// and may reference parameters defined before it.
type Param struct {
	Name string `json:"name" yaml:"name"`
	Expr string `json:"expr" yaml:"expr"`
}

// Env resolves dimension expressions to concrete values. It is safe for
// concurrent use; each evaluation runs in a fresh sandbox for determinism.
type Env struct {
	mu         sync.Mutex
	generation uint64
	values     map[string]float64
}

// NewEnv returns an Env over already-resolved parameter values.
func NewEnv(values map[string]float64) *Env {
	if values == nil {
		values = map[string]float64{}
	}
	return &Env{values: values}
}

// Resolve evaluates a parameter table in order, letting each entry
// reference the ones before it, and returns the resulting environment.
func Resolve(table []Param) (*Env, error) {
	env := NewEnv(nil)
	for _, p := range table {
		if !validName(p.Name) {
			return nil, fmt.Errorf("params: invalid parameter name %q", p.Name)
		}
		v, err := env.Eval(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("params: %s: %w", p.Name, err)
		}
		env.values[p.Name] = v
	}
	return env, nil
}

// Value returns the resolved value of a named parameter.
func (e *Env) Value(name string) (float64, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Eval resolves one dimension expression to a concrete value.
func (e *Env) Eval(expr string) (float64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, fmt.Errorf("empty expression")
	}

	// Fast path: plain numeric literal.
	if v, err := strconv.ParseFloat(expr, 64); err == nil {
		return v, nil
	}

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		v, err := e.evaluate(expr)
		ch <- evalResult{value: v, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate runs the expression in a fresh sandboxed zygomys environment
// with every parameter bound as a global.
func (e *Env) evaluate(expr string) (float64, error) {
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	// Bind parameters deterministically so error output is stable.
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)

	var prelude strings.Builder
	for _, name := range names {
		fmt.Fprintf(&prelude, "(def %s %s)\n", name, strconv.FormatFloat(e.values[name], 'g', -1, 64))
	}
	// Dimension expressions are written infix; zygomys evaluates infix
	// inside curly braces. Explicit s-expressions pass through untouched.
	if strings.HasPrefix(expr, "(") || strings.HasPrefix(expr, "{") {
		prelude.WriteString(expr)
	} else {
		prelude.WriteString("{" + expr + "}")
	}

	if err := env.LoadString(prelude.String()); err != nil {
		return 0, fmt.Errorf("parse %q: %s", expr, cleanZygoError(err))
	}
	result, err := env.Run()
	if err != nil {
		return 0, fmt.Errorf("eval %q: %s", expr, cleanZygoError(err))
	}
	return toFloat64(result)
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	default:
		return 0, fmt.Errorf("expression did not evaluate to a number (got %T)", s)
	}
}

// cleanZygoError strips zygomys's "Error on line N:" framing; line
// numbers inside a one-line dimension expression are noise.
func cleanZygoError(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.Index(msg, ":"); i >= 0 && strings.HasPrefix(strings.ToLower(msg), "error on line") {
		msg = strings.TrimSpace(msg[i+1:])
	}
	return msg
}

// validName reports whether a parameter name is usable as a zygomys
// global: letters, digits and underscores, not starting with a digit.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
