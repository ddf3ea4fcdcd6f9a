package rebuild

import (
	"fmt"
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/op"
	"github.com/chazu/kerf/pkg/sketch"
	"github.com/chazu/kerf/pkg/solver"
	"github.com/chazu/kerf/pkg/topo"
)

func init() {
	Register(op.KindSketch, Rule{Label: "sketch", Eval: evalSketch})
	Register(op.KindExtrude, Rule{Label: "extrude", Eval: evalExtrude})
	Register(op.KindRevolve, Rule{Label: "revolve", Eval: evalRevolve})
	Register(op.KindBoolean, Rule{Label: "boolean", Eval: evalBoolean})
	Register(op.KindFillet, Rule{Label: "fillet", Eval: evalFillet})
	Register(op.KindChamfer, Rule{Label: "chamfer", Eval: evalChamfer})
	Register(op.KindShell, Rule{Label: "shell", Eval: evalShell})
	Register(op.KindPattern, Rule{Label: "pattern", Eval: evalPattern})
	Register(op.KindMirror, Rule{Label: "mirror", Eval: evalMirror})
	Register(op.KindPrimitive, Rule{Label: "primitive", Eval: evalPrimitive})
	Register(op.KindTransform, Rule{Label: "transform", Eval: evalTransform})
}

// ---------------------------------------------------------------------------
// Sketch
// ---------------------------------------------------------------------------

// evalSketch pushes the sketch into the constraint solver and records the
// solved point positions. Sketches produce no geometry; their profiles
// are extracted by the sweeps that consume them.
func evalSketch(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.SketchData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	if d.Geo == nil || len(d.Geo.Points) == 0 {
		return nil, nil
	}

	g, err := ctx.Solver.NewGroup()
	if err != nil {
		return nil, fmt.Errorf("solver group: %w", err)
	}
	defer ctx.Solver.FreeGroup(g)

	points := make(map[sketch.PointID]solver.EntityID, len(d.Geo.Points))
	for _, p := range d.Geo.Points {
		e, err := ctx.Solver.AddPoint(g, p.Pos.X, p.Pos.Y)
		if err != nil {
			return nil, fmt.Errorf("add point %s: %w", p.ID, err)
		}
		points[p.ID] = e
	}
	prims := make(map[sketch.PrimID]solver.EntityID)
	for _, l := range d.Geo.Lines {
		a, okA := points[l.Start]
		b, okB := points[l.End]
		if !okA || !okB {
			return nil, fmt.Errorf("line %s references missing point", l.ID)
		}
		e, err := ctx.Solver.AddLine(g, a, b)
		if err != nil {
			return nil, fmt.Errorf("add line %s: %w", l.ID, err)
		}
		prims[l.ID] = e
	}
	for _, a := range d.Geo.Arcs {
		c, okC := points[a.Center]
		s, okS := points[a.Start]
		e, okE := points[a.End]
		if !okC || !okS || !okE {
			return nil, fmt.Errorf("arc %s references missing point", a.ID)
		}
		ent, err := ctx.Solver.AddArc(g, c, s, e)
		if err != nil {
			return nil, fmt.Errorf("add arc %s: %w", a.ID, err)
		}
		prims[a.ID] = ent
	}
	for _, c := range d.Geo.Circles {
		center, okC := points[c.Center]
		if !okC {
			return nil, fmt.Errorf("circle %s references missing point", c.ID)
		}
		e, err := ctx.Solver.AddCircle(g, center, c.Radius)
		if err != nil {
			return nil, fmt.Errorf("add circle %s: %w", c.ID, err)
		}
		prims[c.ID] = e
	}

	for i, c := range d.Geo.Constraints {
		sc := solver.Constraint{Kind: c.Kind, Value: c.Value}
		for _, id := range c.Points {
			e, ok := points[id]
			if !ok {
				return nil, fmt.Errorf("constraint %d references missing point %s", i, id)
			}
			sc.Entities = append(sc.Entities, e)
		}
		for _, id := range c.Prims {
			e, ok := prims[id]
			if !ok {
				return nil, fmt.Errorf("constraint %d references missing primitive %s", i, id)
			}
			sc.Entities = append(sc.Entities, e)
		}
		if err := ctx.Solver.Constrain(g, sc); err != nil {
			return nil, fmt.Errorf("constraint %d (%s): %w", i, c.Kind, err)
		}
	}

	res, err := ctx.Solver.Solve(g)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	if !res.OK {
		return nil, fmt.Errorf("solve failed: %s", res.Status)
	}

	sol := make(sketch.Solution, len(points))
	for id, e := range points {
		x, y, err := ctx.Solver.PointPosition(g, e)
		if err != nil {
			return nil, fmt.Errorf("read point %s: %w", id, err)
		}
		sol[id] = sketch.Vec2{X: x, Y: y}
	}
	ctx.solutions[o.ID] = sol
	return nil, nil
}

// ---------------------------------------------------------------------------
// Sweeps
// ---------------------------------------------------------------------------

// resolveProfile turns a profile reference into a planar face shape ready
// to sweep, plus the plane normal the sweep direction derives from. The
// caller owns the returned shape and must release it after sweeping.
func resolveProfile(ctx *Context, ref op.ProfileRef) (kernel.Shape, kernel.Vec3, error) {
	if ref.Face != nil {
		return resolveFaceProfile(ctx, *ref.Face)
	}
	return resolveSketchProfile(ctx, ref)
}

// resolveFaceProfile builds the profile from a planar face of a prior
// result, so a feature can grow off an existing face directly.
func resolveFaceProfile(ctx *Context, ref op.TopoRef) (kernel.Shape, kernel.Vec3, error) {
	if _, err := ctx.result(ref.Producer); err != nil {
		return 0, kernel.Vec3{}, err
	}
	f, ok := topo.ResolveFace(ref, ctx, ctx.Kernel)
	if !ok {
		return 0, kernel.Vec3{}, fmt.Errorf("%w: face of %s", ErrProfileNotFound, ref.Producer.Short())
	}
	s, _ := ctx.Shape(ref.Producer)
	normal, err := ctx.Kernel.FaceNormal(s, f)
	if err != nil {
		return 0, kernel.Vec3{}, err
	}
	wire, err := ctx.Kernel.FaceWire(s, f)
	if err != nil {
		return 0, kernel.Vec3{}, fmt.Errorf("profile face: %w", err)
	}
	face, err := ctx.Kernel.FaceFromWire(wire, nil)
	if err != nil {
		return 0, kernel.Vec3{}, err
	}
	return face, normal, nil
}

// resolveSketchProfile extracts closed loops from the referenced sketch
// and lifts them onto its plane. The first selected loop is the outer
// boundary; the rest become holes. With no explicit selection the largest
// loop wins.
func resolveSketchProfile(ctx *Context, ref op.ProfileRef) (kernel.Shape, kernel.Vec3, error) {
	so, ok := ctx.Graph.Get(ref.Sketch)
	if !ok || so.Suppressed {
		return 0, kernel.Vec3{}, fmt.Errorf("%w: sketch %s", ErrMissingDependency, ref.Sketch.Short())
	}
	if _, failed := ctx.errors[ref.Sketch]; failed {
		return 0, kernel.Vec3{}, fmt.Errorf("%w: sketch %s", ErrMissingDependency, ref.Sketch.Short())
	}
	d, ok := so.Data.(op.SketchData)
	if !ok {
		return 0, kernel.Vec3{}, fmt.Errorf("%s is not a sketch", ref.Sketch.Short())
	}
	if d.Geo == nil {
		return 0, kernel.Vec3{}, fmt.Errorf("%w: sketch %s is empty", ErrProfileNotFound, ref.Sketch.Short())
	}

	loops := sketch.FindClosedLoops(d.Geo)
	if len(loops) == 0 {
		return 0, kernel.Vec3{}, fmt.Errorf("%w: sketch %s", ErrProfileNotFound, ref.Sketch.Short())
	}
	selected := ref.Loops
	if len(selected) == 0 {
		selected = []int{0}
	}

	sol := ctx.solution(ref.Sketch)
	var wires []kernel.Wire
	for _, li := range selected {
		if li < 0 || li >= len(loops) {
			return 0, kernel.Vec3{}, fmt.Errorf("%w: loop %d of %d", ErrProfileNotFound, li, len(loops))
		}
		pts2 := sketch.LoopPoints(d.Geo, loops[li], sol)
		if len(pts2) < 3 {
			return 0, kernel.Vec3{}, fmt.Errorf("%w: loop %d degenerate", ErrProfileNotFound, li)
		}
		pts := make([]kernel.Vec3, len(pts2))
		for i, p := range pts2 {
			pts[i] = d.Plane.Point(p.X, p.Y)
		}
		w, err := ctx.Kernel.PolygonWire(pts)
		if err != nil {
			return 0, kernel.Vec3{}, err
		}
		wires = append(wires, w)
	}

	face, err := ctx.Kernel.FaceFromWire(wires[0], wires[1:])
	if err != nil {
		return 0, kernel.Vec3{}, err
	}
	return face, d.Plane.Normal(), nil
}

func evalExtrude(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.ExtrudeData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	depth, err := ctx.eval(d.Depth)
	if err != nil {
		return nil, fmt.Errorf("depth: %w", err)
	}
	if depth <= 0 {
		return nil, fmt.Errorf("depth %g out of range", depth)
	}
	face, normal, err := resolveProfile(ctx, d.Profile)
	if err != nil {
		return nil, err
	}
	defer ctx.Kernel.Release(face)

	var shape kernel.Shape
	switch d.Direction {
	case op.DirNormal:
		shape, err = ctx.Kernel.Extrude(face, normal.Scale(depth))
	case op.DirReverse:
		shape, err = ctx.Kernel.Extrude(face, normal.Scale(-depth))
	case op.DirSymmetric:
		shape, err = extrudeSymmetric(ctx, face, normal, depth)
	default:
		return nil, fmt.Errorf("unknown direction %d", d.Direction)
	}
	if err != nil {
		return nil, err
	}
	return finish(ctx, o, shape)
}

// extrudeSymmetric grows half the depth each way and unions the halves.
func extrudeSymmetric(ctx *Context, face kernel.Shape, normal kernel.Vec3, depth float64) (kernel.Shape, error) {
	up, err := ctx.Kernel.Extrude(face, normal.Scale(depth/2))
	if err != nil {
		return 0, err
	}
	down, err := ctx.Kernel.Extrude(face, normal.Scale(-depth/2))
	if err != nil {
		ctx.Kernel.Release(up)
		return 0, err
	}
	shape, err := ctx.Kernel.Boolean(kernel.BoolUnion, up, down)
	ctx.Kernel.Release(up)
	ctx.Kernel.Release(down)
	return shape, err
}

func evalRevolve(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.RevolveData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	angle, err := ctx.eval(d.Angle)
	if err != nil {
		return nil, fmt.Errorf("angle: %w", err)
	}
	if angle == 0 {
		return nil, fmt.Errorf("angle is zero")
	}
	if d.AxisDir.Length() == 0 {
		return nil, fmt.Errorf("axis direction is zero")
	}
	face, _, err := resolveProfile(ctx, d.Profile)
	if err != nil {
		return nil, err
	}
	defer ctx.Kernel.Release(face)

	shape, err := ctx.Kernel.Revolve(face, d.AxisOrigin, d.AxisDir, angle*math.Pi/180)
	if err != nil {
		return nil, err
	}
	return finish(ctx, o, shape)
}

// ---------------------------------------------------------------------------
// Combinations and dress-ups
// ---------------------------------------------------------------------------

// evalBoolean fails loudly when either operand is missing: a boolean with
// one operand silently dropped would produce misleading geometry.
func evalBoolean(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.BooleanData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	target, err := ctx.result(d.Target)
	if err != nil {
		return nil, err
	}
	tool, err := ctx.result(d.Tool)
	if err != nil {
		return nil, err
	}
	shape, err := ctx.Kernel.Boolean(d.Op, target.Shape, tool.Shape)
	if err != nil {
		return nil, err
	}
	return finish(ctx, o, shape)
}

// resolveEdges resolves a dress-up's edge references, dropping the stale
// ones. A partially stale selection still runs; only a fully stale one is
// an error.
func resolveEdges(ctx *Context, refs []op.TopoRef) ([]kernel.Edge, error) {
	var edges []kernel.Edge
	for _, ref := range refs {
		if e, ok := topo.ResolveEdge(ref, ctx, ctx.Kernel); ok {
			edges = append(edges, e)
		} else {
			ctx.Log.Debug("edge reference went stale", "producer", ref.Producer.Short(), "index", ref.Index)
		}
	}
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: no edges resolved", ErrEmptySelection)
	}
	return edges, nil
}

func evalFillet(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.FilletData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	target, err := ctx.result(d.Target)
	if err != nil {
		return nil, err
	}
	radius, err := ctx.eval(d.Radius)
	if err != nil {
		return nil, fmt.Errorf("radius: %w", err)
	}
	edges, err := resolveEdges(ctx, d.Edges)
	if err != nil {
		return nil, err
	}
	shape, err := ctx.Kernel.Fillet(target.Shape, edges, radius)
	if err != nil {
		return nil, err
	}
	return finish(ctx, o, shape)
}

func evalChamfer(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.ChamferData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	target, err := ctx.result(d.Target)
	if err != nil {
		return nil, err
	}
	distance, err := ctx.eval(d.Distance)
	if err != nil {
		return nil, fmt.Errorf("distance: %w", err)
	}
	edges, err := resolveEdges(ctx, d.Edges)
	if err != nil {
		return nil, err
	}
	shape, err := ctx.Kernel.Chamfer(target.Shape, edges, distance)
	if err != nil {
		return nil, err
	}
	return finish(ctx, o, shape)
}

func evalShell(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.ShellData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	target, err := ctx.result(d.Target)
	if err != nil {
		return nil, err
	}
	thickness, err := ctx.eval(d.Thickness)
	if err != nil {
		return nil, fmt.Errorf("thickness: %w", err)
	}
	var open []kernel.Face
	for _, ref := range d.Open {
		if f, ok := topo.ResolveFace(ref, ctx, ctx.Kernel); ok {
			open = append(open, f)
		} else {
			ctx.Log.Debug("face reference went stale", "producer", ref.Producer.Short(), "index", ref.Index)
		}
	}
	if len(open) == 0 {
		return nil, fmt.Errorf("%w: no faces resolved", ErrEmptySelection)
	}
	shape, err := ctx.Kernel.Shell(target.Shape, open, thickness)
	if err != nil {
		return nil, err
	}
	return finish(ctx, o, shape)
}

// ---------------------------------------------------------------------------
// Replications
// ---------------------------------------------------------------------------

func evalPattern(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.PatternData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	source, err := ctx.result(d.Source)
	if err != nil {
		return nil, err
	}
	countF, err := ctx.eval(d.Count)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}
	count := int(math.Round(countF))
	if count < 1 {
		return nil, fmt.Errorf("count %d out of range", count)
	}

	// Instance 0 is a copy of the source so the pattern owns its shape
	// independently of the source operation's result.
	acc, err := ctx.Kernel.Transform(source.Shape, kernel.Vec3{}, kernel.Vec3{})
	if err != nil {
		return nil, err
	}
	for i := 1; i < count; i++ {
		inst, err := ctx.Kernel.Transform(source.Shape, d.Step.Scale(float64(i)), kernel.Vec3{})
		if err != nil {
			ctx.Kernel.Release(acc)
			return nil, err
		}
		next, err := ctx.Kernel.Boolean(kernel.BoolUnion, acc, inst)
		ctx.Kernel.Release(acc)
		ctx.Kernel.Release(inst)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return finish(ctx, o, acc)
}

func evalMirror(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.MirrorData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	source, err := ctx.result(d.Source)
	if err != nil {
		return nil, err
	}
	if d.PlaneNormal.Length() == 0 {
		return nil, fmt.Errorf("mirror plane normal is zero")
	}
	reflected, err := ctx.Kernel.Mirror(source.Shape, d.PlaneOrigin, d.PlaneNormal)
	if err != nil {
		return nil, err
	}
	shape, err := ctx.Kernel.Boolean(kernel.BoolUnion, source.Shape, reflected)
	ctx.Kernel.Release(reflected)
	if err != nil {
		return nil, err
	}
	return finish(ctx, o, shape)
}

// ---------------------------------------------------------------------------
// Primitives and transforms
// ---------------------------------------------------------------------------

func evalPrimitive(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.PrimitiveData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	var shape kernel.Shape
	switch d.Prim {
	case op.PrimBox:
		x, err := ctx.eval(d.X)
		if err != nil {
			return nil, fmt.Errorf("x: %w", err)
		}
		y, err := ctx.eval(d.Y)
		if err != nil {
			return nil, fmt.Errorf("y: %w", err)
		}
		z, err := ctx.eval(d.Z)
		if err != nil {
			return nil, fmt.Errorf("z: %w", err)
		}
		shape, err = ctx.Kernel.Box(x, y, z)
		if err != nil {
			return nil, err
		}
	case op.PrimCylinder:
		height, err := ctx.eval(d.Height)
		if err != nil {
			return nil, fmt.Errorf("height: %w", err)
		}
		radius, err := ctx.eval(d.Radius)
		if err != nil {
			return nil, fmt.Errorf("radius: %w", err)
		}
		shape, err = ctx.Kernel.Cylinder(height, radius)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown primitive %d", d.Prim)
	}
	return finish(ctx, o, shape)
}

func evalTransform(ctx *Context, o op.Op) (*Result, error) {
	d, ok := o.Data.(op.TransformData)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", o.Data)
	}
	source, err := ctx.result(d.Source)
	if err != nil {
		return nil, err
	}
	rotate := kernel.Vec3{
		X: d.RotateDeg.X * math.Pi / 180,
		Y: d.RotateDeg.Y * math.Pi / 180,
		Z: d.RotateDeg.Z * math.Pi / 180,
	}
	shape, err := ctx.Kernel.Transform(source.Shape, d.Translate, rotate)
	if err != nil {
		return nil, err
	}
	return finish(ctx, o, shape)
}
