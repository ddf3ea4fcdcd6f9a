// Package op defines the operation data model for the Kerf feature
// timeline: tagged-variant operation records, the topological references
// that let operations point at faces and edges of earlier operations, and
// the derived-dependency view the graph package builds order from.
package op

import "github.com/google/uuid"

// ID uniquely identifies an operation in a studio.
type ID string

// NewID returns a fresh random operation ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// Short returns an abbreviated form of the ID for log and error messages.
func (id ID) Short() string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// Kind enumerates the operation variants of the timeline.
type Kind int

const (
	KindSketch    Kind = iota // 2D sketch on a plane
	KindExtrude               // linear sweep of a profile
	KindRevolve               // rotational sweep of a profile
	KindBoolean               // union/subtract/intersect of two results
	KindFillet                // edge rounding
	KindChamfer               // edge beveling
	KindShell                 // hollowing with open faces
	KindPattern               // linear repetition of a result
	KindMirror                // mirrored copy unioned with the source
	KindPrimitive             // primitive solid (box, cylinder)
	KindTransform             // translate/rotate a result
)

func (k Kind) String() string {
	switch k {
	case KindSketch:
		return "sketch"
	case KindExtrude:
		return "extrude"
	case KindRevolve:
		return "revolve"
	case KindBoolean:
		return "boolean"
	case KindFillet:
		return "fillet"
	case KindChamfer:
		return "chamfer"
	case KindShell:
		return "shell"
	case KindPattern:
		return "pattern"
	case KindMirror:
		return "mirror"
	case KindPrimitive:
		return "primitive"
	case KindTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// Op is one step of the feature timeline. Operations are immutable value
// records: edits replace the record under its ID, they never mutate it.
type Op struct {
	ID         ID     `json:"id"`
	Kind       Kind   `json:"kind"`
	Name       string `json:"name,omitempty"`
	Suppressed bool   `json:"suppressed,omitempty"` // skipped during rebuild
	Data       Data   `json:"data"`
}

// Data is the interface for kind-specific operation payloads.
type Data interface {
	opData() // marker method restricting implementations to this package
}
