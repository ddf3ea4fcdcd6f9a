// Package rebuild evaluates a feature timeline into geometry. Operations
// run one at a time in dependency order; a failing operation is recorded
// and skipped over rather than aborting the rebuild, so every operation
// that does not depend on the failure still produces its result. The
// evaluator owns no geometry knowledge of its own — it dispatches each
// operation kind to a registered rule, and the rules drive the kernel.
package rebuild

import (
	"fmt"
	"log/slog"

	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/op"
	"github.com/chazu/kerf/pkg/sketch"
	"github.com/chazu/kerf/pkg/solver"
	"github.com/chazu/kerf/pkg/topo"
)

// MeshDeflection is the tessellation tolerance applied to every produced
// shape.
const MeshDeflection = 0.5

// Env resolves dimension expressions. Implemented by params.Env.
type Env interface {
	Eval(expr string) (float64, error)
}

// Result is the geometry produced by one successful operation.
type Result struct {
	Shape    kernel.Shape
	Mesh     *kernel.Mesh
	Topology topo.Map
}

// Studio is the outcome of one rebuild: the evaluated graph, the order it
// ran in, and per-operation results, errors and sketch solutions. Sketch
// operations produce solutions but no Result; suppressed operations
// produce neither.
type Studio struct {
	Graph     graph.Graph
	Order     []op.ID
	Results   map[op.ID]*Result
	Errors    map[op.ID]string
	Solutions map[op.ID]sketch.Solution
}

// Shape returns the current shape of a producing operation, implementing
// topo.ShapeSource.
func (st *Studio) Shape(id op.ID) (kernel.Shape, bool) {
	r, ok := st.Results[id]
	if !ok || r == nil {
		return 0, false
	}
	return r.Shape, true
}

// Final returns the result of the last successful operation in evaluation
// order, which is what a viewer shows by default.
func (st *Studio) Final() (*Result, bool) {
	for i := len(st.Order) - 1; i >= 0; i-- {
		if r, ok := st.Results[st.Order[i]]; ok {
			return r, true
		}
	}
	return nil, false
}

// Release frees every shape held by the studio's results.
func (st *Studio) Release(k kernel.Kernel) {
	for _, r := range st.Results {
		if r != nil {
			k.Release(r.Shape)
		}
	}
}

// Context is what a rule sees while its operation evaluates: the graph,
// the capability backends, and everything produced so far this rebuild.
type Context struct {
	Graph  graph.Graph
	Env    Env
	Kernel kernel.Kernel
	Solver solver.Solver
	Log    *slog.Logger

	results   map[op.ID]*Result
	errors    map[op.ID]string
	solutions map[op.ID]sketch.Solution
}

// Shape implements topo.ShapeSource over the in-progress results, so
// rules resolve topology references against this rebuild's geometry.
func (c *Context) Shape(id op.ID) (kernel.Shape, bool) {
	r, ok := c.results[id]
	if !ok {
		return 0, false
	}
	return r.Shape, true
}

// result returns the result of a dependency, or ErrMissingDependency when
// the dependency failed, is suppressed, or was never evaluated.
func (c *Context) result(id op.ID) (*Result, error) {
	if r, ok := c.results[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingDependency, id.Short())
}

// solution returns the sketch solution of a dependency, if any.
func (c *Context) solution(id op.ID) sketch.Solution {
	return c.solutions[id]
}

// eval resolves a dimension expression against the parameter environment.
func (c *Context) eval(e op.Expr) (float64, error) {
	return c.Env.Eval(string(e))
}

// Rebuild evaluates the whole graph. It fails as a whole only when the
// graph is cyclic; per-operation failures are isolated into Studio.Errors
// and cascade only to dependents. Idempotent for an unchanged graph and
// environment.
func Rebuild(g graph.Graph, env Env, k kernel.Kernel, sv solver.Solver, log *slog.Logger) (*Studio, error) {
	if log == nil {
		log = slog.Default()
	}
	if sv == nil {
		sv = solver.NewNull()
	}

	order, cycle := g.Order()
	if cycle != nil {
		return nil, cycle
	}

	ctx := &Context{
		Graph:     g,
		Env:       env,
		Kernel:    k,
		Solver:    sv,
		Log:       log,
		results:   map[op.ID]*Result{},
		errors:    map[op.ID]string{},
		solutions: map[op.ID]sketch.Solution{},
	}

	for _, id := range order {
		o, ok := g.Get(id)
		if !ok {
			continue
		}
		if o.Suppressed {
			log.Debug("op suppressed", "op", o.Name, "kind", o.Kind.String())
			continue
		}
		rule, ok := RuleFor(o.Kind)
		if !ok {
			ctx.errors[id] = fmt.Sprintf("no evaluation rule for kind %q", o.Kind)
			log.Warn("op has no rule", "op", o.Name, "kind", o.Kind.String())
			continue
		}
		if rule.Validate != nil {
			if err := rule.Validate(ctx, o); err != nil {
				ctx.errors[id] = err.Error()
				log.Warn("op rejected", "op", o.Name, "kind", o.Kind.String(), "err", err)
				continue
			}
		}
		res, err := rule.Eval(ctx, o)
		if err != nil {
			ctx.errors[id] = err.Error()
			log.Warn("op failed", "op", o.Name, "kind", o.Kind.String(), "err", err)
			continue
		}
		if res != nil {
			ctx.results[id] = res
		}
		log.Debug("op evaluated", "op", o.Name, "kind", o.Kind.String())
	}

	return &Studio{
		Graph:     g,
		Order:     order,
		Results:   ctx.results,
		Errors:    ctx.errors,
		Solutions: ctx.solutions,
	}, nil
}

// finish triangulates a freshly produced shape and mints its topology
// map. The shape is released on any failure so a failing operation leaks
// nothing.
func finish(ctx *Context, o op.Op, s kernel.Shape) (*Result, error) {
	mesh, err := ctx.Kernel.Triangulate(s, MeshDeflection)
	if err != nil {
		ctx.Kernel.Release(s)
		return nil, fmt.Errorf("triangulate: %w", err)
	}
	mesh.OpName = o.Name

	tm, err := topo.Index(ctx.Kernel, o.ID, s)
	if err != nil {
		ctx.Kernel.Release(s)
		return nil, fmt.Errorf("index topology: %w", err)
	}
	return &Result{Shape: s, Mesh: mesh, Topology: tm}, nil
}
