// Package solver defines the 2D geometric constraint-solver capability
// interface. The engine only orchestrates when to solve — it pushes sketch
// entities and constraints into a group and reads solved positions back;
// how the system is solved belongs to the implementation behind this
// interface.
package solver

import "github.com/chazu/kerf/pkg/sketch"

// GroupID is an opaque handle to a constraint group.
type GroupID int

// EntityID is an opaque handle to an entity within a group.
type EntityID int

// Status reports the outcome category of a solve.
type Status int

const (
	StatusOK Status = iota
	StatusOverConstrained
	StatusUnderConstrained
	StatusInconsistent
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusOverConstrained:
		return "over-constrained"
	case StatusUnderConstrained:
		return "under-constrained"
	case StatusInconsistent:
		return "inconsistent"
	default:
		return "unknown"
	}
}

// Result is the outcome of solving one group.
type Result struct {
	OK     bool   // entity positions are usable
	DOF    int    // remaining degrees of freedom
	Status Status
}

// Constraint is one geometric or dimensional constraint over entities of
// a group.
type Constraint struct {
	Kind     sketch.ConstraintKind
	Entities []EntityID
	Value    float64 // distance/radius constraints
}

// Solver is the constraint-solver capability interface.
type Solver interface {
	// NewGroup creates an empty constraint group.
	NewGroup() (GroupID, error)

	// FreeGroup releases a group and all its entities.
	FreeGroup(g GroupID)

	// AddPoint adds a free 2D point at the given initial position.
	AddPoint(g GroupID, x, y float64) (EntityID, error)

	// AddLine adds a line between two previously added points.
	AddLine(g GroupID, a, b EntityID) (EntityID, error)

	// AddCircle adds a circle around a previously added center point.
	AddCircle(g GroupID, center EntityID, radius float64) (EntityID, error)

	// AddArc adds a counter-clockwise arc over previously added points.
	AddArc(g GroupID, center, start, end EntityID) (EntityID, error)

	// Constrain adds a constraint to the group.
	Constrain(g GroupID, c Constraint) error

	// Solve solves the group. Entity positions are updated in place and
	// readable through PointPosition afterwards.
	Solve(g GroupID) (Result, error)

	// PointPosition reads the current position of a point entity.
	PointPosition(g GroupID, p EntityID) (x, y float64, err error)
}
