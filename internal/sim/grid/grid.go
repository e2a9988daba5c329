package grid

import (
	"fmt"
	"sort"
)

// TileObjects maps z-index to the object occupying that layer of a tile. At
// most one object per z-index per tile.
type TileObjects map[int32]*Object

// Grid is the authoritative tick-driven state machine. All state is owned by
// one grid instance and must be accessed from a single goroutine; run
// independent grids in parallel for concurrency.
type Grid struct {
	width  int32
	height int32

	playerCount uint32
	mapReset    bool

	// Shared tick cell. Delayed actions and rule scripts read the cell, not a
	// snapshot.
	gameTicks *int32

	// Registration indices: dense ids in insertion order.
	objectIDs           map[string]uint32
	objectNames         []string
	objectVariableIDs   map[string]uint32
	objectVariableNames []string
	objectVariableMap   map[string][]string

	objects           map[*Object]struct{}
	occupiedLocations map[Location]TileObjects
	objectCounters    map[string]map[uint32]*int32
	playerAvatars     map[uint32]*Object
	nextInstanceID    uint64

	globalVariables map[string]map[uint32]*int32

	// One dirty-location set per player, index 0 is the global observer.
	updatedLocations []map[Location]struct{}

	delayedActions DelayedActionQueue

	behaviourProbabilities map[string][]float64

	recordEvents bool
	eventHistory []GridEvent

	// Collision trigger state. The reverse indices give O(1) answers to
	// "which trigger actions does this object name participate in".
	collisionObjectActionNames       map[string]map[string]struct{}
	collisionSourceObjectActionNames map[string]map[string]struct{}
	collisionSourceObjects           map[*Object]struct{}
	collisionDetectors               map[string]CollisionDetector
	collisionDetectorNames           map[string]map[string]struct{}
	actionTriggerDefinitions         map[string]ActionTriggerDefinition
	collisionDetectorFactory         CollisionDetectorFactory

	defaultEmptyObject    map[uint32]*Object
	defaultBoundaryObject map[uint32]*Object

	random *RandomGenerator
}

// New creates a grid with the default collision detector factory.
func New() *Grid {
	return NewWithCollisionDetectorFactory(NewCollisionDetectorFactory())
}

func NewWithCollisionDetectorFactory(factory CollisionDetectorFactory) *Grid {
	g := &Grid{
		gameTicks:                new(int32),
		playerCount:              1,
		collisionDetectorFactory: factory,
		random:                   NewRandomGenerator(),
	}
	g.resetIndices()
	return g
}

func (g *Grid) resetIndices() {
	g.objectIDs = map[string]uint32{}
	g.objectNames = nil
	g.objectVariableIDs = map[string]uint32{}
	g.objectVariableNames = nil
	g.objectVariableMap = map[string][]string{}
	g.objects = map[*Object]struct{}{}
	g.occupiedLocations = map[Location]TileObjects{}
	g.objectCounters = map[string]map[uint32]*int32{}
	g.playerAvatars = map[uint32]*Object{}
	g.globalVariables = map[string]map[uint32]*int32{}
	g.behaviourProbabilities = map[string][]float64{}
	g.eventHistory = nil
	g.collisionObjectActionNames = map[string]map[string]struct{}{}
	g.collisionSourceObjectActionNames = map[string]map[string]struct{}{}
	g.collisionSourceObjects = map[*Object]struct{}{}
	g.collisionDetectors = map[string]CollisionDetector{}
	g.collisionDetectorNames = map[string]map[string]struct{}{}
	g.actionTriggerDefinitions = map[string]ActionTriggerDefinition{}
	g.defaultEmptyObject = map[uint32]*Object{}
	g.defaultBoundaryObject = map[uint32]*Object{}
	g.delayedActions.clear()
	g.nextInstanceID = 0
}

// Reset discards all objects and configuration, keeping dimensions and player
// count so a new episode can be configured from scratch.
func (g *Grid) Reset() {
	g.resetIndices()
	*g.gameTicks = 0
	g.ResetMap(g.width, g.height)
}

// SetPlayerCount fixes the number of players. Must be called before ResetMap
// so the per-player sets are sized correctly.
func (g *Grid) SetPlayerCount(playerCount uint32) {
	if playerCount < 1 {
		playerCount = 1
	}
	g.playerCount = playerCount
}

func (g *Grid) PlayerCount() uint32 { return g.playerCount }

// ResetMap discards all objects and per-episode state and sets dimensions.
// Dirty-location sets are reallocated to playerCount+1 entries; index 0 is
// the neutral/global observer.
func (g *Grid) ResetMap(width, height int32) {
	g.width = width
	g.height = height

	g.objects = map[*Object]struct{}{}
	g.occupiedLocations = map[Location]TileObjects{}
	g.objectCounters = map[string]map[uint32]*int32{}
	g.playerAvatars = map[uint32]*Object{}
	g.collisionSourceObjects = map[*Object]struct{}{}
	g.delayedActions.clear()
	g.eventHistory = nil
	*g.gameTicks = 0
	g.nextInstanceID = 0

	g.updatedLocations = make([]map[Location]struct{}, g.playerCount+1)
	for i := range g.updatedLocations {
		g.updatedLocations[i] = map[Location]struct{}{}
	}

	// Trigger detectors are rebuilt empty; registered definitions survive.
	for actionName, def := range g.actionTriggerDefinitions {
		g.collisionDetectors[actionName] = g.collisionDetectorFactory.CreateCollisionDetector(actionName, def)
	}
	g.mapReset = true
}

func (g *Grid) Width() int32  { return g.width }
func (g *Grid) Height() int32 { return g.height }

// TickCount returns the shared tick cell.
func (g *Grid) TickCount() *int32 { return g.gameTicks }

func (g *Grid) SetTickCount(tickCount int32) { *g.gameTicks = tickCount }

func (g *Grid) SeedRandomGenerator(seed uint32) { g.random.Seed(seed) }

func (g *Grid) RandomGenerator() *RandomGenerator { return g.random }

func (g *Grid) Contains(location Location) bool {
	return location.X >= 0 && location.Y >= 0 && location.X < g.width && location.Y < g.height
}

// InitObject registers an object type and its variable names, assigning dense
// ids in insertion order. Repeat registration with the identical variable set
// is a no-op; a different set is a configuration error.
func (g *Grid) InitObject(objectName string, variableNames []string) error {
	if existing, ok := g.objectVariableMap[objectName]; ok {
		if len(existing) != len(variableNames) {
			return fmt.Errorf("%w: %s", ErrObjectRedefined, objectName)
		}
		for i, name := range existing {
			if variableNames[i] != name {
				return fmt.Errorf("%w: %s", ErrObjectRedefined, objectName)
			}
		}
		return nil
	}

	g.objectIDs[objectName] = uint32(len(g.objectIDs))
	g.objectNames = append(g.objectNames, objectName)
	for _, variableName := range variableNames {
		if _, ok := g.objectVariableIDs[variableName]; !ok {
			g.objectVariableIDs[variableName] = uint32(len(g.objectVariableIDs))
			g.objectVariableNames = append(g.objectVariableNames, variableName)
		}
	}
	g.objectVariableMap[objectName] = append([]string(nil), variableNames...)
	return nil
}

// ObjectIDs returns the name → dense type id registration index.
func (g *Grid) ObjectIDs() map[string]uint32 { return g.objectIDs }

// ObjectVariableIDs returns the variable name → dense id index.
func (g *Grid) ObjectVariableIDs() map[string]uint32 { return g.objectVariableIDs }

// ObjectNames lists registered object names in registration order.
func (g *Grid) ObjectNames() []string { return append([]string(nil), g.objectNames...) }

// ObjectVariableNames lists registered variable names in registration order.
func (g *Grid) ObjectVariableNames() []string {
	return append([]string(nil), g.objectVariableNames...)
}

// ObjectVariableMap returns object name → declared variable names.
func (g *Grid) ObjectVariableMap() map[string][]string { return g.objectVariableMap }

// AddObject binds a detached object into the grid at location. The (location,
// z-index) slot must be free; AddObject never overwrites. A behaviour that
// wants to replace an occupant must remove it first. When applyInitialActions
// is set the object's declared initial actions are dispatched immediately
// (delayed ones are enqueued). originating, when non-nil, is the action whose
// behaviour spawned this object; its vector seeds the initial action vectors.
func (g *Grid) AddObject(location Location, object *Object, applyInitialActions bool, originating *Action, orientation Orientation) error {
	if !g.mapReset {
		return ErrNotReset
	}
	if object.onGrid {
		return fmt.Errorf("%w: %s", ErrAlreadyOnGrid, object.name)
	}
	if _, ok := g.objectIDs[object.name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObjectName, object.name)
	}
	object.typeID = g.objectIDs[object.name]
	if object.playerID > g.playerCount {
		return fmt.Errorf("grid: player id %d out of range", object.playerID)
	}

	tile := g.occupiedLocations[location]
	if tile == nil {
		tile = TileObjects{}
		g.occupiedLocations[location] = tile
	}
	if _, occupied := tile[object.zIdx]; occupied {
		return fmt.Errorf("%w: %s at %s z=%d", ErrSlotOccupied, object.name, location, object.zIdx)
	}

	g.nextInstanceID++
	object.instanceID = g.nextInstanceID
	object.location = location
	object.orientation = orientation
	object.onGrid = true

	tile[object.zIdx] = object
	g.objects[object] = struct{}{}

	counter := g.objectCounterCell(object.name, object.playerID)
	*counter++
	object.counter = counter

	if object.avatar && object.playerID > 0 {
		g.playerAvatars[object.playerID] = object
	}

	g.markDirty(location)

	for _, detector := range g.collisionDetectorsForObject(object) {
		detector.Upsert(object)
	}
	if _, ok := g.collisionSourceObjectActionNames[object.name]; ok {
		g.collisionSourceObjects[object] = struct{}{}
	}

	if applyInitialActions {
		g.applyInitialActions(object, originating)
	}
	return nil
}

func (g *Grid) applyInitialActions(object *Object, originating *Action) {
	for _, initial := range object.initialActions {
		action := Action{
			Name:         initial.Name,
			SourceObject: object,
			Vector:       initial.Vector,
			Delay:        initial.Delay,
		}
		if originating != nil && action.Vector == (Location{}) {
			action.Vector = originating.Vector
		}
		if action.Delay > 0 {
			g.DelayAction(object.playerID, action)
			continue
		}
		g.executeAndRecord(object.playerID, action)
	}
}

// RemoveObject unbinds the object from every index. Returns false if the
// object is not on the grid.
func (g *Grid) RemoveObject(object *Object) bool {
	if _, ok := g.objects[object]; !ok {
		return false
	}
	location := object.location

	delete(g.objects, object)
	if tile, ok := g.occupiedLocations[location]; ok {
		delete(tile, object.zIdx)
		if len(tile) == 0 {
			delete(g.occupiedLocations, location)
		}
	}

	if object.counter != nil {
		*object.counter--
	}
	if g.playerAvatars[object.playerID] == object {
		delete(g.playerAvatars, object.playerID)
	}

	for _, detector := range g.collisionDetectorsForObject(object) {
		detector.Remove(object)
	}
	delete(g.collisionSourceObjects, object)

	object.onGrid = false
	g.markDirty(location)
	return true
}

// UpdateLocation atomically moves an object from previous to next. The object
// must currently sit at previous, and the (next, z) slot must be free and
// inside the map; otherwise nothing mutates and false is returned.
func (g *Grid) UpdateLocation(object *Object, previous, next Location) bool {
	if _, ok := g.objects[object]; !ok {
		return false
	}
	if object.location != previous {
		return false
	}
	if !g.Contains(next) {
		return false
	}
	if tile, ok := g.occupiedLocations[next]; ok {
		if _, occupied := tile[object.zIdx]; occupied {
			return false
		}
	}

	if tile, ok := g.occupiedLocations[previous]; ok {
		delete(tile, object.zIdx)
		if len(tile) == 0 {
			delete(g.occupiedLocations, previous)
		}
	}
	tile := g.occupiedLocations[next]
	if tile == nil {
		tile = TileObjects{}
		g.occupiedLocations[next] = tile
	}
	tile[object.zIdx] = object
	object.location = next

	for _, detector := range g.collisionDetectorsForObject(object) {
		detector.Upsert(object)
	}

	g.markDirty(previous)
	g.markDirty(next)
	return true
}

// Objects returns the set of objects currently on the grid.
func (g *Grid) Objects() map[*Object]struct{} { return g.objects }

// ObjectsAt returns the z-index → object map for a tile. The returned map is
// the live index; callers must not mutate it.
func (g *Grid) ObjectsAt(location Location) TileObjects {
	return g.occupiedLocations[location]
}

// objectsAtSorted lists a tile's objects ordered by descending z-index.
func (g *Grid) objectsAtSorted(location Location) []*Object {
	tile := g.occupiedLocations[location]
	if len(tile) == 0 {
		return nil
	}
	objects := make([]*Object, 0, len(tile))
	for _, object := range tile {
		objects = append(objects, object)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].zIdx > objects[j].zIdx })
	return objects
}

// ObjectAt returns the object with the highest z-index at the tile, or nil.
func (g *Grid) ObjectAt(location Location) *Object {
	objects := g.objectsAtSorted(location)
	if len(objects) == 0 {
		return nil
	}
	return objects[0]
}

// ObjectAtFor is the sentinel-aware read used by rule scripts: unoccupied
// tiles resolve to the player's empty object and out-of-map tiles to the
// player's boundary object.
func (g *Grid) ObjectAtFor(playerID uint32, location Location) *Object {
	return g.resolveObject(playerID, location)
}

func (g *Grid) resolveObject(playerID uint32, location Location) *Object {
	if !g.Contains(location) {
		return g.BoundaryObject(playerID)
	}
	if object := g.ObjectAt(location); object != nil {
		return object
	}
	return g.EmptyObject(playerID)
}

// AddPlayerEmptyObject installs the empty sentinel for the object's player.
func (g *Grid) AddPlayerEmptyObject(object *Object) {
	g.defaultEmptyObject[object.playerID] = object
}

// AddPlayerBoundaryObject installs the boundary sentinel for the object's
// player.
func (g *Grid) AddPlayerBoundaryObject(object *Object) {
	g.defaultBoundaryObject[object.playerID] = object
}

// EmptyObject returns the player's empty sentinel, creating a bare one on
// first use if the ruleset installed none.
func (g *Grid) EmptyObject(playerID uint32) *Object {
	object, ok := g.defaultEmptyObject[playerID]
	if !ok {
		object = NewEmptyObject(playerID)
		g.defaultEmptyObject[playerID] = object
	}
	return object
}

// BoundaryObject returns the player's boundary sentinel, creating a bare one
// on first use if the ruleset installed none.
func (g *Grid) BoundaryObject(playerID uint32) *Object {
	object, ok := g.defaultBoundaryObject[playerID]
	if !ok {
		object = NewBoundaryObject(playerID)
		g.defaultBoundaryObject[playerID] = object
	}
	return object
}

func (g *Grid) objectCounterCell(objectName string, playerID uint32) *int32 {
	byPlayer := g.objectCounters[objectName]
	if byPlayer == nil {
		byPlayer = map[uint32]*int32{}
		g.objectCounters[objectName] = byPlayer
	}
	cell, ok := byPlayer[playerID]
	if !ok {
		cell = new(int32)
		byPlayer[playerID] = cell
	}
	return cell
}

// ObjectCounter returns the per-player counter cells for an object name,
// materialising cells for every player id so rule scripts can hold them.
func (g *Grid) ObjectCounter(objectName string) map[uint32]*int32 {
	for playerID := uint32(0); playerID <= g.playerCount; playerID++ {
		g.objectCounterCell(objectName, playerID)
	}
	return g.objectCounters[objectName]
}

// PlayerAvatarObjects maps player id to that player's avatar object.
func (g *Grid) PlayerAvatarObjects() map[uint32]*Object { return g.playerAvatars }

// DelayedActions exposes the delayed queue for inspection.
func (g *Grid) DelayedActions() *DelayedActionQueue { return &g.delayedActions }
