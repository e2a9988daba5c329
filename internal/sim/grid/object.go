package grid

import "sort"

// Names reserved for the virtual objects returned when an action addresses an
// unoccupied tile or a tile outside the map. Rule scripts pattern-match them
// like any other object name.
const (
	EmptyObjectName    = "_empty"
	BoundaryObjectName = "_boundary"
)

// BehaviourResult is what one behaviour reports back to the dispatcher.
// Abort from a destination behaviour cancels the source behaviours of the
// same execution (how walls block movement).
type BehaviourResult struct {
	Abort   bool
	Rewards map[uint32]int32
}

// Behaviour is one concrete rule bound to an action name on an object. It may
// mutate the grid and returns reward deltas keyed by player.
type Behaviour func(g *Grid, a Action, self *Object) BehaviourResult

// InitialAction is enqueued when an object is added to the grid.
type InitialAction struct {
	Name   string
	Vector Location
	Delay  uint32
}

// Object is a per-tile entity. The grid is the sole owner once the object is
// added; scripts hold plain references and must go through grid mutators.
type Object struct {
	name       string
	typeID     uint32
	instanceID uint64
	playerID   uint32
	zIdx       int32

	location    Location
	orientation Orientation
	onGrid      bool
	avatar      bool

	variables map[string]*int32

	// Behaviours are keyed by action name, then by the name of the object on
	// the other side of the action.
	srcBehaviours map[string]map[string][]Behaviour
	dstBehaviours map[string]map[string][]Behaviour

	initialActions []InitialAction

	// Owner's counter cell for this object name, bound at AddObject.
	counter *int32
}

// NewObject creates a detached object. playerID 0 is neutral.
func NewObject(name string, playerID uint32, zIdx int32) *Object {
	return &Object{
		name:          name,
		playerID:      playerID,
		zIdx:          zIdx,
		variables:     map[string]*int32{},
		srcBehaviours: map[string]map[string][]Behaviour{},
		dstBehaviours: map[string]map[string][]Behaviour{},
	}
}

// NewEmptyObject creates the empty sentinel for a player.
func NewEmptyObject(playerID uint32) *Object {
	return NewObject(EmptyObjectName, playerID, 0)
}

// NewBoundaryObject creates the boundary sentinel for a player.
func NewBoundaryObject(playerID uint32) *Object {
	return NewObject(BoundaryObjectName, playerID, 0)
}

func (o *Object) Name() string             { return o.name }
func (o *Object) TypeID() uint32           { return o.typeID }
func (o *Object) InstanceID() uint64       { return o.instanceID }
func (o *Object) PlayerID() uint32         { return o.playerID }
func (o *Object) ZIdx() int32              { return o.zIdx }
func (o *Object) Location() Location       { return o.location }
func (o *Object) Orientation() Orientation { return o.orientation }
func (o *Object) OnGrid() bool             { return o.onGrid }
func (o *Object) IsPlayerAvatar() bool     { return o.avatar }

func (o *Object) SetPlayerAvatar(avatar bool) { o.avatar = avatar }

func (o *Object) SetOrientation(orientation Orientation) { o.orientation = orientation }

// Variable returns the shared cell backing the named variable, or nil.
func (o *Object) Variable(name string) *int32 { return o.variables[name] }

// Variables exposes the full variable cell map.
func (o *Object) Variables() map[string]*int32 { return o.variables }

// InitVariable creates the cell if missing and sets its value.
func (o *Object) InitVariable(name string, value int32) *int32 {
	cell, ok := o.variables[name]
	if !ok {
		cell = new(int32)
		o.variables[name] = cell
	}
	*cell = value
	return cell
}

func (o *Object) SetInitialActions(actions []InitialAction) { o.initialActions = actions }

func (o *Object) InitialActions() []InitialAction { return o.initialActions }

// RegisterSrcBehaviour binds a behaviour run when this object is the source
// of actionName against a destination object named destName.
func (o *Object) RegisterSrcBehaviour(actionName, destName string, b Behaviour) {
	byDest := o.srcBehaviours[actionName]
	if byDest == nil {
		byDest = map[string][]Behaviour{}
		o.srcBehaviours[actionName] = byDest
	}
	byDest[destName] = append(byDest[destName], b)
}

// RegisterDstBehaviour binds a behaviour run when this object is the
// destination of actionName initiated by an object named srcName.
func (o *Object) RegisterDstBehaviour(actionName, srcName string, b Behaviour) {
	bySrc := o.dstBehaviours[actionName]
	if bySrc == nil {
		bySrc = map[string][]Behaviour{}
		o.dstBehaviours[actionName] = bySrc
	}
	bySrc[srcName] = append(bySrc[srcName], b)
}

// CanPerformAction reports whether this object initiates the named action
// against at least one destination.
func (o *Object) CanPerformAction(actionName string) bool {
	return len(o.srcBehaviours[actionName]) > 0
}

// AvailableActionNames lists the actions this object can initiate, sorted.
func (o *Object) AvailableActionNames() []string {
	names := make([]string, 0, len(o.srcBehaviours))
	for name := range o.srcBehaviours {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SrcBehaviours enumerates behaviours triggered when this object sources the
// named action against the named destination.
func (o *Object) SrcBehaviours(actionName, destName string) []Behaviour {
	return o.srcBehaviours[actionName][destName]
}

// DstBehaviours enumerates behaviours triggered when this object receives the
// named action from the named source.
func (o *Object) DstBehaviours(actionName, srcName string) []Behaviour {
	return o.dstBehaviours[actionName][srcName]
}
