package op

// Dependencies derives the operation IDs this operation's result depends
// on from the operation's own payload. Dependencies are never stored
// separately: recomputing them here keeps the graph a pure view of the
// operation records.
func Dependencies(o Op) []ID {
	var deps []ID
	add := func(id ID) {
		if id == "" {
			return
		}
		for _, d := range deps {
			if d == id {
				return
			}
		}
		deps = append(deps, id)
	}
	addProfile := func(p ProfileRef) {
		add(p.Sketch)
		if p.Face != nil {
			add(p.Face.Producer)
		}
	}

	switch d := o.Data.(type) {
	case SketchData:
		// Sketches are timeline roots.
	case ExtrudeData:
		addProfile(d.Profile)
	case RevolveData:
		addProfile(d.Profile)
	case BooleanData:
		add(d.Target)
		add(d.Tool)
	case FilletData:
		add(d.Target)
		for _, e := range d.Edges {
			add(e.Producer)
		}
	case ChamferData:
		add(d.Target)
		for _, e := range d.Edges {
			add(e.Producer)
		}
	case ShellData:
		add(d.Target)
		for _, f := range d.Open {
			add(f.Producer)
		}
	case PatternData:
		add(d.Source)
	case MirrorData:
		add(d.Source)
	case PrimitiveData:
		// Primitives are timeline roots.
	case TransformData:
		add(d.Source)
	}
	return deps
}
