// Package document loads and saves studio documents: a YAML file holding
// the parameter table and the feature timeline. The document schema uses
// operation names for cross-references, which keeps hand-authored files
// readable; names are resolved to operation IDs when the document is
// converted into a graph.
package document

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/params"
	"github.com/chazu/kerf/pkg/sketch"
)

// Document is the on-disk form of a studio.
type Document struct {
	Name   string         `yaml:"name"`
	Params []params.Param `yaml:"params,omitempty"`
	Ops    []OpDoc        `yaml:"ops"`
}

// OpDoc is one timeline operation. Exactly one payload field matching
// Kind must be set.
type OpDoc struct {
	ID         string `yaml:"id,omitempty"` // minted when omitted
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Suppressed bool   `yaml:"suppressed,omitempty"`

	Sketch    *SketchDoc    `yaml:"sketch,omitempty"`
	Extrude   *ExtrudeDoc   `yaml:"extrude,omitempty"`
	Revolve   *RevolveDoc   `yaml:"revolve,omitempty"`
	Boolean   *BooleanDoc   `yaml:"boolean,omitempty"`
	Fillet    *FilletDoc    `yaml:"fillet,omitempty"`
	Chamfer   *ChamferDoc   `yaml:"chamfer,omitempty"`
	Shell     *ShellDoc     `yaml:"shell,omitempty"`
	Pattern   *PatternDoc   `yaml:"pattern,omitempty"`
	Mirror    *MirrorDoc    `yaml:"mirror,omitempty"`
	Primitive *PrimitiveDoc `yaml:"primitive,omitempty"`
	Transform *TransformDoc `yaml:"transform,omitempty"`
}

// PlaneDoc is a sketch plane; the zero value means the world XY plane.
type PlaneDoc struct {
	Origin kernel.Vec3 `yaml:"origin,omitempty"`
	U      kernel.Vec3 `yaml:"u,omitempty"`
	V      kernel.Vec3 `yaml:"v,omitempty"`
}

// SketchDoc carries 2D geometry. Points, lines, arcs and circles reuse
// the sketch package types directly; constraints carry their kind as a
// string.
type SketchDoc struct {
	Plane       PlaneDoc        `yaml:"plane,omitempty"`
	Points      []sketch.Point  `yaml:"points,omitempty"`
	Lines       []sketch.Line   `yaml:"lines,omitempty"`
	Arcs        []sketch.Arc    `yaml:"arcs,omitempty"`
	Circles     []sketch.Circle `yaml:"circles,omitempty"`
	Constraints []ConstraintDoc `yaml:"constraints,omitempty"`
}

// ConstraintDoc is one sketch constraint.
type ConstraintDoc struct {
	Kind   string   `yaml:"kind"`
	Points []string `yaml:"points,omitempty"`
	Prims  []string `yaml:"prims,omitempty"`
	Value  float64  `yaml:"value,omitempty"`
}

// ProfileDoc selects a sweep cross-section: loops of a named sketch, or a
// face of a named operation's result.
type ProfileDoc struct {
	Sketch string  `yaml:"sketch,omitempty"`
	Loops  []int   `yaml:"loops,omitempty"`
	Face   *RefDoc `yaml:"face,omitempty"`
}

// RefDoc is a topology reference in document form: producer operation
// name, element kind, and mint-time index.
type RefDoc struct {
	Producer string `yaml:"producer"`
	Kind     string `yaml:"kind"`
	Index    int    `yaml:"index"`
}

type ExtrudeDoc struct {
	Profile   ProfileDoc `yaml:"profile"`
	Depth     string     `yaml:"depth"`
	Direction string     `yaml:"direction,omitempty"` // default "normal"
}

type RevolveDoc struct {
	Profile    ProfileDoc  `yaml:"profile"`
	AxisOrigin kernel.Vec3 `yaml:"axis_origin,omitempty"`
	AxisDir    kernel.Vec3 `yaml:"axis_dir"`
	Angle      string      `yaml:"angle"` // degrees
}

type BooleanDoc struct {
	Op     string `yaml:"op"`
	Target string `yaml:"target"`
	Tool   string `yaml:"tool"`
}

type FilletDoc struct {
	Target string   `yaml:"target"`
	Edges  []RefDoc `yaml:"edges"`
	Radius string   `yaml:"radius"`
}

type ChamferDoc struct {
	Target   string   `yaml:"target"`
	Edges    []RefDoc `yaml:"edges"`
	Distance string   `yaml:"distance"`
}

type ShellDoc struct {
	Target    string   `yaml:"target"`
	Open      []RefDoc `yaml:"open"`
	Thickness string   `yaml:"thickness"`
}

type PatternDoc struct {
	Source string      `yaml:"source"`
	Count  string      `yaml:"count"`
	Step   kernel.Vec3 `yaml:"step"`
}

type MirrorDoc struct {
	Source      string      `yaml:"source"`
	PlaneOrigin kernel.Vec3 `yaml:"plane_origin,omitempty"`
	PlaneNormal kernel.Vec3 `yaml:"plane_normal"`
}

type PrimitiveDoc struct {
	Prim string `yaml:"prim"`
	// Box dimensions.
	X string `yaml:"x,omitempty"`
	Y string `yaml:"y,omitempty"`
	Z string `yaml:"z,omitempty"`
	// Cylinder dimensions.
	Height string `yaml:"height,omitempty"`
	Radius string `yaml:"radius,omitempty"`
}

type TransformDoc struct {
	Source    string      `yaml:"source"`
	Translate kernel.Vec3 `yaml:"translate,omitempty"`
	RotateDeg kernel.Vec3 `yaml:"rotate_deg,omitempty"`
}

// Load reads and validates a document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("document: parse: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	return &d, nil
}

// Save writes the document to disk.
func Save(path string, d *Document) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("document: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	return nil
}

var kindNames = []interface{}{
	"sketch", "extrude", "revolve", "boolean", "fillet", "chamfer",
	"shell", "pattern", "mirror", "primitive", "transform",
}

// Validate checks document structure: every operation needs a name, a
// known kind, and exactly the payload its kind calls for. Reference
// targets are checked later, when the document is built into a graph.
func (d *Document) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Ops, validation.Required),
	)
}

// Validate checks one operation entry.
func (o OpDoc) Validate() error {
	if err := validation.ValidateStruct(&o,
		validation.Field(&o.Name, validation.Required),
		validation.Field(&o.Kind, validation.Required, validation.In(kindNames...)),
	); err != nil {
		return err
	}
	return o.validatePayload()
}

// validatePayload checks that the payload matching Kind is present and no
// other payload is.
func (o OpDoc) validatePayload() error {
	set := map[string]bool{
		"sketch":    o.Sketch != nil,
		"extrude":   o.Extrude != nil,
		"revolve":   o.Revolve != nil,
		"boolean":   o.Boolean != nil,
		"fillet":    o.Fillet != nil,
		"chamfer":   o.Chamfer != nil,
		"shell":     o.Shell != nil,
		"pattern":   o.Pattern != nil,
		"mirror":    o.Mirror != nil,
		"primitive": o.Primitive != nil,
		"transform": o.Transform != nil,
	}
	if !set[o.Kind] {
		return fmt.Errorf("op %q: missing %s payload", o.Name, o.Kind)
	}
	for kind, present := range set {
		if present && kind != o.Kind {
			return fmt.Errorf("op %q: unexpected %s payload on a %s op", o.Name, kind, o.Kind)
		}
	}
	switch o.Kind {
	case "sketch":
		return o.Sketch.Validate()
	case "extrude":
		return o.Extrude.Validate()
	case "revolve":
		return o.Revolve.Validate()
	case "boolean":
		return o.Boolean.Validate()
	case "fillet":
		return o.Fillet.Validate()
	case "chamfer":
		return o.Chamfer.Validate()
	case "shell":
		return o.Shell.Validate()
	case "pattern":
		return o.Pattern.Validate()
	case "mirror":
		return o.Mirror.Validate()
	case "primitive":
		return o.Primitive.Validate()
	case "transform":
		return o.Transform.Validate()
	}
	return nil
}

// Validate checks a sketch entry, including its constraints.
func (s *SketchDoc) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Constraints),
	)
}

// Validate checks a fillet entry.
func (f *FilletDoc) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Target, validation.Required),
		validation.Field(&f.Edges, validation.Required),
		validation.Field(&f.Radius, validation.Required),
	)
}

// Validate checks a chamfer entry.
func (c *ChamferDoc) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Target, validation.Required),
		validation.Field(&c.Edges, validation.Required),
		validation.Field(&c.Distance, validation.Required),
	)
}

// Validate checks a shell entry.
func (s *ShellDoc) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Target, validation.Required),
		validation.Field(&s.Open, validation.Required),
		validation.Field(&s.Thickness, validation.Required),
	)
}

// Validate checks a pattern entry.
func (p *PatternDoc) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Source, validation.Required),
		validation.Field(&p.Count, validation.Required),
	)
}

// Validate checks a mirror entry.
func (m *MirrorDoc) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Source, validation.Required),
	)
}

// Validate checks a transform entry.
func (t *TransformDoc) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Source, validation.Required),
	)
}

// Validate checks a boolean entry.
func (b BooleanDoc) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Op, validation.Required, validation.In("union", "subtract", "intersect")),
		validation.Field(&b.Target, validation.Required),
		validation.Field(&b.Tool, validation.Required),
	)
}

// Validate checks an extrude entry.
func (e ExtrudeDoc) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Depth, validation.Required),
		validation.Field(&e.Direction, validation.In("normal", "reverse", "symmetric")),
	)
}

// Validate checks a revolve entry.
func (r RevolveDoc) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Angle, validation.Required),
	)
}

// Validate checks a primitive entry.
func (p PrimitiveDoc) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Prim, validation.Required, validation.In("box", "cylinder")),
	)
}

// Validate checks a topology reference entry.
func (r RefDoc) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Producer, validation.Required),
		validation.Field(&r.Kind, validation.Required, validation.In("face", "edge", "vertex")),
	)
}

// Validate checks a constraint entry.
func (c ConstraintDoc) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Kind, validation.Required, validation.In(
			"coincident", "horizontal", "vertical", "distance", "radius", "fixed")),
	)
}
