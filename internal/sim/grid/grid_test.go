package grid

import (
	"errors"
	"testing"
)

func newTestGrid(t *testing.T, players uint32, width, height int32, objectNames ...string) *Grid {
	t.Helper()
	g := New()
	g.SetPlayerCount(players)
	g.ResetMap(width, height)
	for _, name := range objectNames {
		if err := g.InitObject(name, nil); err != nil {
			t.Fatalf("init %s: %v", name, err)
		}
	}
	return g
}

func mustAdd(t *testing.T, g *Grid, location Location, object *Object, orientation Orientation) {
	t.Helper()
	if err := g.AddObject(location, object, false, nil, orientation); err != nil {
		t.Fatalf("add %s at %s: %v", object.Name(), location, err)
	}
}

// registerMove gives the object the canonical move-into-empty rule.
func registerMove(object *Object) {
	object.RegisterSrcBehaviour("move", EmptyObjectName, func(g *Grid, a Action, self *Object) BehaviourResult {
		g.UpdateLocation(self, self.Location(), a.Destination())
		return BehaviourResult{}
	})
}

// checkInvariants asserts the spatial index, counter and queue invariants
// that must hold at every API boundary.
func checkInvariants(t *testing.T, g *Grid) {
	t.Helper()
	for object := range g.Objects() {
		tile := g.ObjectsAt(object.Location())
		if tile == nil || tile[object.ZIdx()] != object {
			t.Fatalf("object %s not indexed at %s z=%d", object.Name(), object.Location(), object.ZIdx())
		}
	}
	counts := map[string]map[uint32]int32{}
	for object := range g.Objects() {
		byPlayer := counts[object.Name()]
		if byPlayer == nil {
			byPlayer = map[uint32]int32{}
			counts[object.Name()] = byPlayer
		}
		byPlayer[object.PlayerID()]++
	}
	for _, name := range g.ObjectNames() {
		for playerID, cell := range g.ObjectCounter(name) {
			if *cell != counts[name][playerID] {
				t.Fatalf("counter %s player %d: cell=%d want %d", name, playerID, *cell, counts[name][playerID])
			}
		}
	}
	tick := *g.TickCount()
	for _, item := range g.DelayedActions().items {
		if item.dueTick < tick {
			t.Fatalf("stale delayed entry: due=%d tick=%d", item.dueTick, tick)
		}
	}
}

func TestAddObject_BindsIndices(t *testing.T) {
	g := newTestGrid(t, 2, 4, 4, "box")
	box := NewObject("box", 1, 0)
	mustAdd(t, g, Location{2, 3}, box, NoOrientation)

	if got := g.ObjectAt(Location{2, 3}); got != box {
		t.Fatalf("ObjectAt = %v, want box", got)
	}
	if !box.OnGrid() {
		t.Fatalf("box not marked on grid")
	}
	if box.InstanceID() == 0 {
		t.Fatalf("instance id not assigned")
	}
	if *g.ObjectCounter("box")[1] != 1 {
		t.Fatalf("counter not incremented")
	}
	checkInvariants(t, g)
}

func TestAddObject_SlotOccupied(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3, "box")
	mustAdd(t, g, Location{1, 1}, NewObject("box", 1, 0), NoOrientation)

	err := g.AddObject(Location{1, 1}, NewObject("box", 1, 0), false, nil, NoOrientation)
	if !errors.Is(err, ErrSlotOccupied) {
		t.Fatalf("err = %v, want ErrSlotOccupied", err)
	}

	// A different z-index shares the tile.
	if err := g.AddObject(Location{1, 1}, NewObject("box", 1, 1), false, nil, NoOrientation); err != nil {
		t.Fatalf("z=1 add: %v", err)
	}
	checkInvariants(t, g)
}

func TestAddObject_UnknownNameAndNotReset(t *testing.T) {
	g := New()
	g.SetPlayerCount(1)
	if err := g.AddObject(Location{0, 0}, NewObject("box", 1, 0), false, nil, NoOrientation); !errors.Is(err, ErrNotReset) {
		t.Fatalf("err = %v, want ErrNotReset", err)
	}
	g.ResetMap(3, 3)
	if err := g.AddObject(Location{0, 0}, NewObject("box", 1, 0), false, nil, NoOrientation); !errors.Is(err, ErrUnknownObjectName) {
		t.Fatalf("err = %v, want ErrUnknownObjectName", err)
	}
}

func TestRemoveObject_RoundTrip(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3, "box")
	box := NewObject("box", 1, 0)
	mustAdd(t, g, Location{1, 1}, box, NoOrientation)

	if !g.RemoveObject(box) {
		t.Fatalf("remove returned false")
	}
	if g.RemoveObject(box) {
		t.Fatalf("second remove returned true")
	}
	if g.ObjectAt(Location{1, 1}) != nil {
		t.Fatalf("tile still occupied after remove")
	}
	if len(g.Objects()) != 0 {
		t.Fatalf("objects set not empty")
	}
	if *g.ObjectCounter("box")[1] != 0 {
		t.Fatalf("counter not decremented")
	}
	checkInvariants(t, g)
}

func TestUpdateLocation_MoveAndBack(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3, "box")
	box := NewObject("box", 1, 0)
	mustAdd(t, g, Location{0, 0}, box, NoOrientation)

	if !g.UpdateLocation(box, Location{0, 0}, Location{2, 2}) {
		t.Fatalf("move failed")
	}
	if box.Location() != (Location{2, 2}) || g.ObjectAt(Location{2, 2}) != box {
		t.Fatalf("occupancy not moved")
	}
	if !g.UpdateLocation(box, Location{2, 2}, Location{0, 0}) {
		t.Fatalf("move back failed")
	}
	if g.ObjectAt(Location{0, 0}) != box || g.ObjectAt(Location{2, 2}) != nil {
		t.Fatalf("occupancy not restored")
	}
	checkInvariants(t, g)
}

func TestUpdateLocation_Rejections(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3, "box")
	a := NewObject("box", 1, 0)
	b := NewObject("box", 1, 0)
	mustAdd(t, g, Location{0, 0}, a, NoOrientation)
	mustAdd(t, g, Location{1, 0}, b, NoOrientation)

	if g.UpdateLocation(a, Location{0, 0}, Location{1, 0}) {
		t.Fatalf("move into occupied slot succeeded")
	}
	if g.UpdateLocation(a, Location{2, 2}, Location{2, 1}) {
		t.Fatalf("move with wrong previous location succeeded")
	}
	if g.UpdateLocation(a, Location{0, 0}, Location{-1, 0}) {
		t.Fatalf("move off the map succeeded")
	}
	if a.Location() != (Location{0, 0}) {
		t.Fatalf("failed moves mutated location")
	}
	detached := NewObject("box", 1, 0)
	if g.UpdateLocation(detached, Location{0, 0}, Location{2, 2}) {
		t.Fatalf("move of detached object succeeded")
	}
	checkInvariants(t, g)
}

func TestObjectAt_HighestZWins(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3, "floor", "box")
	floor := NewObject("floor", 0, 0)
	box := NewObject("box", 1, 1)
	mustAdd(t, g, Location{1, 1}, floor, NoOrientation)
	mustAdd(t, g, Location{1, 1}, box, NoOrientation)

	if got := g.ObjectAt(Location{1, 1}); got != box {
		t.Fatalf("ObjectAt = %s, want box", got.Name())
	}
	if len(g.ObjectsAt(Location{1, 1})) != 2 {
		t.Fatalf("tile stack size wrong")
	}
}

func TestSentinels(t *testing.T) {
	g := newTestGrid(t, 2, 3, 3)

	empty := g.ObjectAtFor(1, Location{1, 1})
	if empty.Name() != EmptyObjectName || empty.PlayerID() != 1 {
		t.Fatalf("empty sentinel = %s player %d", empty.Name(), empty.PlayerID())
	}
	boundary := g.ObjectAtFor(2, Location{5, 5})
	if boundary.Name() != BoundaryObjectName || boundary.PlayerID() != 2 {
		t.Fatalf("boundary sentinel = %s player %d", boundary.Name(), boundary.PlayerID())
	}
	if g.ObjectAtFor(1, Location{1, 1}) != empty {
		t.Fatalf("sentinel not stable per player")
	}

	custom := NewEmptyObject(1)
	custom.RegisterSrcBehaviour("spawn", EmptyObjectName, func(g *Grid, a Action, self *Object) BehaviourResult {
		return BehaviourResult{}
	})
	g.AddPlayerEmptyObject(custom)
	if g.ObjectAtFor(1, Location{0, 2}) != custom {
		t.Fatalf("installed sentinel not returned")
	}
	if !custom.CanPerformAction("spawn") || custom.CanPerformAction("move") {
		t.Fatalf("sentinel action ownership wrong")
	}
}

func TestInitObject_IdempotentAndRedefinition(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3)
	if err := g.InitObject("box", []string{"count"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := g.InitObject("box", []string{"count"}); err != nil {
		t.Fatalf("idempotent init: %v", err)
	}
	if err := g.InitObject("box", []string{"count", "extra"}); !errors.Is(err, ErrObjectRedefined) {
		t.Fatalf("err = %v, want ErrObjectRedefined", err)
	}

	if err := g.InitObject("crate", []string{"count", "weight"}); err != nil {
		t.Fatalf("init crate: %v", err)
	}
	ids := g.ObjectIDs()
	if ids["box"] != 0 || ids["crate"] != 1 {
		t.Fatalf("object ids not dense insertion order: %v", ids)
	}
	varIDs := g.ObjectVariableIDs()
	if varIDs["count"] != 0 || varIDs["weight"] != 1 {
		t.Fatalf("variable ids not dense: %v", varIDs)
	}
}

func TestObjectCounter_Consistency(t *testing.T) {
	g := newTestGrid(t, 2, 5, 5, "box")
	var boxes []*Object
	for i := int32(0); i < 5; i++ {
		box := NewObject("box", 2, 0)
		mustAdd(t, g, Location{i, 0}, box, NoOrientation)
		boxes = append(boxes, box)
	}
	g.RemoveObject(boxes[0])
	g.RemoveObject(boxes[3])

	if got := *g.ObjectCounter("box")[2]; got != 3 {
		t.Fatalf("counter = %d, want 3", got)
	}
	checkInvariants(t, g)
}

func TestPlayerAvatarObjects(t *testing.T) {
	g := newTestGrid(t, 2, 3, 3, "avatar")
	a1 := NewObject("avatar", 1, 0)
	a1.SetPlayerAvatar(true)
	a2 := NewObject("avatar", 2, 0)
	a2.SetPlayerAvatar(true)
	mustAdd(t, g, Location{0, 0}, a1, Up)
	mustAdd(t, g, Location{2, 2}, a2, Down)

	avatars := g.PlayerAvatarObjects()
	if avatars[1] != a1 || avatars[2] != a2 {
		t.Fatalf("avatar map wrong: %v", avatars)
	}
	g.RemoveObject(a1)
	if _, ok := g.PlayerAvatarObjects()[1]; ok {
		t.Fatalf("removed avatar still mapped")
	}
}

func TestResetMap_ClearsState(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3, "box")
	mustAdd(t, g, Location{1, 1}, NewObject("box", 1, 0), NoOrientation)
	g.SetTickCount(7)

	g.ResetMap(4, 4)
	if len(g.Objects()) != 0 || g.Width() != 4 || g.Height() != 4 {
		t.Fatalf("reset did not clear objects or resize")
	}
	if *g.TickCount() != 0 {
		t.Fatalf("tick not reset")
	}
	if len(g.UpdatedLocations(0)) != 0 {
		t.Fatalf("dirty sets not reallocated")
	}
}
