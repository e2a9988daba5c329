package grid

// Action is a request to change state, dispatched to the object at its source
// location. The destination is derived from the source plus the vector,
// rotated into the source facing frame when Relative is set.
type Action struct {
	Name string

	// SourceObject pins the action to a specific object. When nil the source
	// is resolved from SourceLocation at execution time.
	SourceObject   *Object
	SourceLocation Location

	Vector      Location
	Orientation Orientation
	Relative    bool

	// Delay defers execution by that many ticks when routed through
	// PerformActions or DelayAction.
	Delay uint32

	// Metadata carries script-defined parameters (e.g. spawn object name).
	Metadata map[string]int32
}

func (a Action) sourceLocation() Location {
	if a.SourceObject != nil {
		return a.SourceObject.Location()
	}
	return a.SourceLocation
}

func (a Action) sourceOrientation() Orientation {
	if a.SourceObject != nil {
		return a.SourceObject.Orientation()
	}
	return a.Orientation
}

// Destination is the tile the action acts upon.
func (a Action) Destination() Location {
	v := a.Vector
	if a.Relative {
		v = a.sourceOrientation().Rotate(v)
	}
	return a.sourceLocation().Add(v)
}

// VectorOrientation is the facing implied by the action vector, used by
// behaviours that rotate the source object.
func (a Action) VectorOrientation() Orientation {
	return OrientationFromVector(a.Vector)
}
