package document

import (
	"fmt"

	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/op"
	"github.com/chazu/kerf/pkg/params"
	"github.com/chazu/kerf/pkg/sketch"
)

// Build converts the document into an operation graph and a parameter
// table. Operation names are resolved to IDs here; a reference to an
// unknown name is an error, because a dangling reference in a fresh
// document is authoring error, not stale topology.
func (d *Document) Build() (graph.Graph, []params.Param, error) {
	ids := make(map[string]op.ID, len(d.Ops))
	for _, o := range d.Ops {
		if _, dup := ids[o.Name]; dup {
			return graph.Graph{}, nil, fmt.Errorf("document: duplicate op name %q", o.Name)
		}
		id := op.ID(o.ID)
		if id == "" {
			id = op.NewID()
		}
		ids[o.Name] = id
	}

	r := resolver{ids: ids}
	ops := make([]op.Op, 0, len(d.Ops))
	for _, o := range d.Ops {
		data, err := r.data(o)
		if err != nil {
			return graph.Graph{}, nil, fmt.Errorf("document: op %q: %w", o.Name, err)
		}
		ops = append(ops, op.Op{
			ID:         ids[o.Name],
			Kind:       parseKind(o.Kind),
			Name:       o.Name,
			Suppressed: o.Suppressed,
			Data:       data,
		})
	}

	g, err := graph.FromOps(ops)
	if err != nil {
		return graph.Graph{}, nil, fmt.Errorf("document: %w", err)
	}
	return g, d.Params, nil
}

// resolver maps document op names to graph IDs while converting payloads.
type resolver struct {
	ids map[string]op.ID
}

func (r resolver) id(name string) (op.ID, error) {
	id, ok := r.ids[name]
	if !ok {
		return "", fmt.Errorf("unknown op %q", name)
	}
	return id, nil
}

func (r resolver) data(o OpDoc) (op.Data, error) {
	switch o.Kind {
	case "sketch":
		return r.sketchData(o.Sketch)
	case "extrude":
		profile, err := r.profile(o.Extrude.Profile)
		if err != nil {
			return nil, err
		}
		return op.ExtrudeData{
			Profile:   profile,
			Depth:     op.Expr(o.Extrude.Depth),
			Direction: parseDirection(o.Extrude.Direction),
		}, nil
	case "revolve":
		profile, err := r.profile(o.Revolve.Profile)
		if err != nil {
			return nil, err
		}
		return op.RevolveData{
			Profile:    profile,
			AxisOrigin: o.Revolve.AxisOrigin,
			AxisDir:    o.Revolve.AxisDir,
			Angle:      op.Expr(o.Revolve.Angle),
		}, nil
	case "boolean":
		target, err := r.id(o.Boolean.Target)
		if err != nil {
			return nil, err
		}
		tool, err := r.id(o.Boolean.Tool)
		if err != nil {
			return nil, err
		}
		return op.BooleanData{Op: parseBoolOp(o.Boolean.Op), Target: target, Tool: tool}, nil
	case "fillet":
		target, err := r.id(o.Fillet.Target)
		if err != nil {
			return nil, err
		}
		edges, err := r.refs(o.Fillet.Edges)
		if err != nil {
			return nil, err
		}
		return op.FilletData{Target: target, Edges: edges, Radius: op.Expr(o.Fillet.Radius)}, nil
	case "chamfer":
		target, err := r.id(o.Chamfer.Target)
		if err != nil {
			return nil, err
		}
		edges, err := r.refs(o.Chamfer.Edges)
		if err != nil {
			return nil, err
		}
		return op.ChamferData{Target: target, Edges: edges, Distance: op.Expr(o.Chamfer.Distance)}, nil
	case "shell":
		target, err := r.id(o.Shell.Target)
		if err != nil {
			return nil, err
		}
		open, err := r.refs(o.Shell.Open)
		if err != nil {
			return nil, err
		}
		return op.ShellData{Target: target, Open: open, Thickness: op.Expr(o.Shell.Thickness)}, nil
	case "pattern":
		source, err := r.id(o.Pattern.Source)
		if err != nil {
			return nil, err
		}
		return op.PatternData{Source: source, Count: op.Expr(o.Pattern.Count), Step: o.Pattern.Step}, nil
	case "mirror":
		source, err := r.id(o.Mirror.Source)
		if err != nil {
			return nil, err
		}
		return op.MirrorData{
			Source:      source,
			PlaneOrigin: o.Mirror.PlaneOrigin,
			PlaneNormal: o.Mirror.PlaneNormal,
		}, nil
	case "primitive":
		return op.PrimitiveData{
			Prim:   parsePrim(o.Primitive.Prim),
			X:      op.Expr(o.Primitive.X),
			Y:      op.Expr(o.Primitive.Y),
			Z:      op.Expr(o.Primitive.Z),
			Height: op.Expr(o.Primitive.Height),
			Radius: op.Expr(o.Primitive.Radius),
		}, nil
	case "transform":
		source, err := r.id(o.Transform.Source)
		if err != nil {
			return nil, err
		}
		return op.TransformData{
			Source:    source,
			Translate: o.Transform.Translate,
			RotateDeg: o.Transform.RotateDeg,
		}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", o.Kind)
}

func (r resolver) sketchData(s *SketchDoc) (op.Data, error) {
	geo := &sketch.Sketch{
		Points:  s.Points,
		Lines:   s.Lines,
		Arcs:    s.Arcs,
		Circles: s.Circles,
	}
	for _, c := range s.Constraints {
		sc := sketch.Constraint{Kind: parseConstraintKind(c.Kind), Value: c.Value}
		for _, p := range c.Points {
			sc.Points = append(sc.Points, sketch.PointID(p))
		}
		for _, p := range c.Prims {
			sc.Prims = append(sc.Prims, sketch.PrimID(p))
		}
		geo.Constraints = append(geo.Constraints, sc)
	}
	return op.SketchData{Plane: plane(s.Plane), Geo: geo}, nil
}

func (r resolver) profile(p ProfileDoc) (op.ProfileRef, error) {
	if p.Face != nil {
		ref, err := r.ref(*p.Face)
		if err != nil {
			return op.ProfileRef{}, err
		}
		return op.ProfileRef{Face: &ref}, nil
	}
	if p.Sketch == "" {
		return op.ProfileRef{}, fmt.Errorf("profile names neither a sketch nor a face")
	}
	id, err := r.id(p.Sketch)
	if err != nil {
		return op.ProfileRef{}, err
	}
	return op.ProfileRef{Sketch: id, Loops: p.Loops}, nil
}

func (r resolver) refs(docs []RefDoc) ([]op.TopoRef, error) {
	out := make([]op.TopoRef, 0, len(docs))
	for _, d := range docs {
		ref, err := r.ref(d)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func (r resolver) ref(d RefDoc) (op.TopoRef, error) {
	producer, err := r.id(d.Producer)
	if err != nil {
		return op.TopoRef{}, err
	}
	return op.TopoRef{Producer: producer, Kind: parseElementKind(d.Kind), Index: d.Index}, nil
}

// plane returns the document plane, defaulting to world XY when no basis
// was authored.
func plane(p PlaneDoc) op.Plane {
	if p.U == (kernel.Vec3{}) && p.V == (kernel.Vec3{}) {
		out := op.XY
		out.Origin = p.Origin
		return out
	}
	return op.Plane{Origin: p.Origin, U: p.U, V: p.V}
}

func parseKind(s string) op.Kind {
	switch s {
	case "sketch":
		return op.KindSketch
	case "extrude":
		return op.KindExtrude
	case "revolve":
		return op.KindRevolve
	case "boolean":
		return op.KindBoolean
	case "fillet":
		return op.KindFillet
	case "chamfer":
		return op.KindChamfer
	case "shell":
		return op.KindShell
	case "pattern":
		return op.KindPattern
	case "mirror":
		return op.KindMirror
	case "primitive":
		return op.KindPrimitive
	default:
		return op.KindTransform
	}
}

func parseDirection(s string) op.Direction {
	switch s {
	case "reverse":
		return op.DirReverse
	case "symmetric":
		return op.DirSymmetric
	default:
		return op.DirNormal
	}
}

func parseBoolOp(s string) kernel.BoolOp {
	switch s {
	case "subtract":
		return kernel.BoolSubtract
	case "intersect":
		return kernel.BoolIntersect
	default:
		return kernel.BoolUnion
	}
}

func parsePrim(s string) op.PrimitiveKind {
	if s == "cylinder" {
		return op.PrimCylinder
	}
	return op.PrimBox
}

func parseElementKind(s string) op.ElementKind {
	switch s {
	case "edge":
		return op.ElementEdge
	case "vertex":
		return op.ElementVertex
	default:
		return op.ElementFace
	}
}

func parseConstraintKind(s string) sketch.ConstraintKind {
	switch s {
	case "horizontal":
		return sketch.ConstraintHorizontal
	case "vertical":
		return sketch.ConstraintVertical
	case "distance":
		return sketch.ConstraintDistance
	case "radius":
		return sketch.ConstraintRadius
	case "fixed":
		return sketch.ConstraintFixed
	default:
		return sketch.ConstraintCoincident
	}
}
