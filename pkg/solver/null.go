package solver

import "fmt"

// Null is a stand-in Solver that never moves anything: Solve succeeds and
// echoes the authored positions back, reporting the sketch as
// under-constrained with every point fully free. It keeps the engine
// runnable until a real solver backend is wired in, the same way a stub
// kernel backend keeps the geometry pipeline runnable.
type Null struct {
	groups map[GroupID]*nullGroup
	nextID GroupID
}

type nullGroup struct {
	points map[EntityID][2]float64
	nextID EntityID
}

// NewNull returns a fresh Null solver.
func NewNull() *Null {
	return &Null{groups: map[GroupID]*nullGroup{}}
}

func (n *Null) group(g GroupID) (*nullGroup, error) {
	grp, ok := n.groups[g]
	if !ok {
		return nil, fmt.Errorf("solver: unknown group %d", g)
	}
	return grp, nil
}

// NewGroup creates an empty group.
func (n *Null) NewGroup() (GroupID, error) {
	n.nextID++
	n.groups[n.nextID] = &nullGroup{points: map[EntityID][2]float64{}}
	return n.nextID, nil
}

// FreeGroup releases a group.
func (n *Null) FreeGroup(g GroupID) {
	delete(n.groups, g)
}

// AddPoint records a point at its authored position.
func (n *Null) AddPoint(g GroupID, x, y float64) (EntityID, error) {
	grp, err := n.group(g)
	if err != nil {
		return 0, err
	}
	grp.nextID++
	grp.points[grp.nextID] = [2]float64{x, y}
	return grp.nextID, nil
}

// AddLine accepts a line; the null solver has no use for it.
func (n *Null) AddLine(g GroupID, a, b EntityID) (EntityID, error) {
	grp, err := n.group(g)
	if err != nil {
		return 0, err
	}
	grp.nextID++
	return grp.nextID, nil
}

// AddCircle accepts a circle; the null solver has no use for it.
func (n *Null) AddCircle(g GroupID, center EntityID, radius float64) (EntityID, error) {
	grp, err := n.group(g)
	if err != nil {
		return 0, err
	}
	grp.nextID++
	return grp.nextID, nil
}

// AddArc accepts an arc; the null solver has no use for it.
func (n *Null) AddArc(g GroupID, center, start, end EntityID) (EntityID, error) {
	grp, err := n.group(g)
	if err != nil {
		return 0, err
	}
	grp.nextID++
	return grp.nextID, nil
}

// Constrain accepts and ignores the constraint.
func (n *Null) Constrain(g GroupID, c Constraint) error {
	_, err := n.group(g)
	return err
}

// Solve reports success without moving anything.
func (n *Null) Solve(g GroupID) (Result, error) {
	grp, err := n.group(g)
	if err != nil {
		return Result{}, err
	}
	return Result{
		OK:     true,
		DOF:    2 * len(grp.points),
		Status: StatusUnderConstrained,
	}, nil
}

// PointPosition echoes the authored position.
func (n *Null) PointPosition(g GroupID, p EntityID) (float64, float64, error) {
	grp, err := n.group(g)
	if err != nil {
		return 0, 0, err
	}
	pos, ok := grp.points[p]
	if !ok {
		return 0, 0, fmt.Errorf("solver: unknown point %d in group %d", p, g)
	}
	return pos[0], pos[1], nil
}

var _ Solver = (*Null)(nil)
