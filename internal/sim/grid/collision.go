package grid

import "sort"

// TriggerType selects which tiles around a source satisfy a trigger.
type TriggerType uint8

const (
	// TriggerNone matches the single tile at the (possibly rotated) offset.
	TriggerNone TriggerType = iota
	// TriggerRangeBoxBoundary matches the perimeter of the Chebyshev box.
	TriggerRangeBoxBoundary
	// TriggerRangeBoxArea matches the full Chebyshev box.
	TriggerRangeBoxArea
)

func (t TriggerType) String() string {
	switch t {
	case TriggerRangeBoxBoundary:
		return "RANGE_BOX_BOUNDARY"
	case TriggerRangeBoxArea:
		return "RANGE_BOX_AREA"
	}
	return "NONE"
}

// ActionTriggerDefinition declares which object pairings synthesise an action
// when they come into range of each other.
type ActionTriggerDefinition struct {
	SourceObjectNames      map[string]struct{}
	DestinationObjectNames map[string]struct{}
	TriggerType            TriggerType
	Range                  uint32
	Relative               bool
	Offset                 Location
}

// SearchResult lists candidate objects in deterministic (instance id) order.
type SearchResult struct {
	Objects []*Object
}

// CollisionDetector is the spatial index capability installed per trigger.
// The grid keeps every detector in sync as objects are added, removed and
// moved; Search answers "which indexed objects satisfy the trigger around
// this location".
type CollisionDetector interface {
	Upsert(object *Object) bool
	Remove(object *Object) bool
	Search(location Location) SearchResult
}

// CollisionDetectorFactory builds the detector for a trigger definition.
type CollisionDetectorFactory interface {
	CreateCollisionDetector(actionName string, def ActionTriggerDefinition) CollisionDetector
}

type rangeBoxDetectorFactory struct{}

// NewCollisionDetectorFactory returns the default factory producing
// cell-bucketed range-box detectors.
func NewCollisionDetectorFactory() CollisionDetectorFactory {
	return rangeBoxDetectorFactory{}
}

func (rangeBoxDetectorFactory) CreateCollisionDetector(actionName string, def ActionTriggerDefinition) CollisionDetector {
	return newRangeBoxDetector(def.Range, def.TriggerType)
}

// rangeBoxDetector buckets indexed objects by tile and scans the box around
// the query location. Buckets keep membership cheap to maintain on every
// add/remove/move without rebuilding anything per tick.
type rangeBoxDetector struct {
	searchRange uint32
	triggerType TriggerType

	buckets map[Location]map[*Object]struct{}
	indexed map[*Object]Location
}

func newRangeBoxDetector(searchRange uint32, triggerType TriggerType) *rangeBoxDetector {
	return &rangeBoxDetector{
		searchRange: searchRange,
		triggerType: triggerType,
		buckets:     map[Location]map[*Object]struct{}{},
		indexed:     map[*Object]Location{},
	}
}

func (d *rangeBoxDetector) Upsert(object *Object) bool {
	existed := d.Remove(object)
	loc := object.Location()
	bucket := d.buckets[loc]
	if bucket == nil {
		bucket = map[*Object]struct{}{}
		d.buckets[loc] = bucket
	}
	bucket[object] = struct{}{}
	d.indexed[object] = loc
	return existed
}

func (d *rangeBoxDetector) Remove(object *Object) bool {
	loc, ok := d.indexed[object]
	if !ok {
		return false
	}
	delete(d.indexed, object)
	if bucket := d.buckets[loc]; bucket != nil {
		delete(bucket, object)
		if len(bucket) == 0 {
			delete(d.buckets, loc)
		}
	}
	return true
}

func (d *rangeBoxDetector) Search(location Location) SearchResult {
	r := int32(d.searchRange)
	var found []*Object
	if d.triggerType == TriggerRangeBoxBoundary && r == 0 {
		// A zero-radius box has no perimeter.
		return SearchResult{}
	}
	for y := location.Y - r; y <= location.Y+r; y++ {
		for x := location.X - r; x <= location.X+r; x++ {
			loc := Location{x, y}
			if d.triggerType == TriggerRangeBoxBoundary && Chebyshev(loc, location) != r {
				continue
			}
			for object := range d.buckets[loc] {
				found = append(found, object)
			}
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].instanceID < found[j].instanceID })
	return SearchResult{Objects: found}
}

// AddActionTrigger registers a trigger definition and installs a detector for
// it, wiring the reverse indices used to filter collision work per tick.
func (g *Grid) AddActionTrigger(actionName string, def ActionTriggerDefinition) {
	detector := g.collisionDetectorFactory.CreateCollisionDetector(actionName, def)

	objectNames := map[string]struct{}{}
	for name := range def.SourceObjectNames {
		objectNames[name] = struct{}{}
		g.addSetEntry(g.collisionSourceObjectActionNames, name, actionName)
	}
	for name := range def.DestinationObjectNames {
		objectNames[name] = struct{}{}
		g.addSetEntry(g.collisionObjectActionNames, name, actionName)
	}

	g.actionTriggerDefinitions[actionName] = def
	g.AddCollisionDetector(objectNames, actionName, detector)
}

// AddCollisionDetector installs a spatial index for an action, indexing every
// matching object already on the grid.
func (g *Grid) AddCollisionDetector(objectNames map[string]struct{}, actionName string, detector CollisionDetector) {
	g.collisionDetectors[actionName] = detector
	g.collisionDetectorNames[actionName] = objectNames

	for object := range g.objects {
		if _, ok := objectNames[object.name]; !ok {
			continue
		}
		detector.Upsert(object)
		if _, src := g.collisionSourceObjectActionNames[object.name]; src {
			g.collisionSourceObjects[object] = struct{}{}
		}
	}
}

func (g *Grid) addSetEntry(index map[string]map[string]struct{}, key, value string) {
	set := index[key]
	if set == nil {
		set = map[string]struct{}{}
		index[key] = set
	}
	set[value] = struct{}{}
}

// collisionDetectorsForObject lists detectors whose name set contains the
// object's name.
func (g *Grid) collisionDetectorsForObject(object *Object) []CollisionDetector {
	var detectors []CollisionDetector
	actionNames := make([]string, 0, len(g.collisionDetectors))
	for actionName := range g.collisionDetectors {
		actionNames = append(actionNames, actionName)
	}
	sort.Strings(actionNames)
	for _, actionName := range actionNames {
		if _, ok := g.collisionDetectorNames[actionName][object.name]; ok {
			detectors = append(detectors, g.collisionDetectors[actionName])
		}
	}
	return detectors
}

// ProcessCollisions fires one triggered action per (source, target) pair in
// range. Iteration is sorted by object instance id and action name so the
// schedule is deterministic.
func (g *Grid) ProcessCollisions() map[uint32]int32 {
	rewards := map[uint32]int32{}
	if len(g.collisionSourceObjects) == 0 {
		return rewards
	}

	sources := make([]*Object, 0, len(g.collisionSourceObjects))
	for object := range g.collisionSourceObjects {
		sources = append(sources, object)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].instanceID < sources[j].instanceID })

	for _, source := range sources {
		if !source.onGrid {
			continue
		}
		actionNames := make([]string, 0, len(g.collisionSourceObjectActionNames[source.name]))
		for actionName := range g.collisionSourceObjectActionNames[source.name] {
			actionNames = append(actionNames, actionName)
		}
		sort.Strings(actionNames)

		for _, actionName := range actionNames {
			def, ok := g.actionTriggerDefinitions[actionName]
			if !ok {
				continue
			}
			for _, target := range g.collisionCandidates(source, actionName, def) {
				action := Action{
					Name:         actionName,
					SourceObject: source,
					Vector:       target.Location().Sub(source.Location()),
				}
				mergeRewards(rewards, g.executeAndRecord(source.playerID, action))
			}
		}
	}
	return rewards
}

func (g *Grid) collisionCandidates(source *Object, actionName string, def ActionTriggerDefinition) []*Object {
	center := source.Location()
	offset := def.Offset
	if def.Relative {
		offset = source.Orientation().Rotate(offset)
	}
	center = center.Add(offset)

	var candidates []*Object
	if def.TriggerType == TriggerNone {
		// Offset trigger: the single tile at the offset, every z slot.
		for _, target := range g.objectsAtSorted(center) {
			candidates = append(candidates, target)
		}
	} else if detector := g.collisionDetectors[actionName]; detector != nil {
		candidates = detector.Search(center).Objects
	}

	matched := candidates[:0]
	for _, target := range candidates {
		if target == source || !target.onGrid {
			continue
		}
		if _, ok := def.DestinationObjectNames[target.name]; !ok {
			continue
		}
		matched = append(matched, target)
	}
	return matched
}
