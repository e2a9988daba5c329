package grid

import "testing"

func TestDelayedSpawn(t *testing.T) {
	g := newTestGrid(t, 1, 4, 4, "spawner", "crystal")
	spawner := NewObject("spawner", 1, 0)
	spawner.RegisterSrcBehaviour("conjure", EmptyObjectName, func(g *Grid, a Action, self *Object) BehaviourResult {
		crystal := NewObject("crystal", self.PlayerID(), 0)
		if err := g.AddObject(a.Destination(), crystal, false, &a, NoOrientation); err != nil {
			return BehaviourResult{}
		}
		return BehaviourResult{}
	})
	mustAdd(t, g, Location{0, 0}, spawner, NoOrientation)

	g.PerformActions(1, []Action{{Name: "conjure", SourceObject: spawner, Vector: Location{2, 2}, Delay: 3}})

	for i := 0; i < 2; i++ {
		if g.DelayedActions().Len() != 1 {
			t.Fatalf("delayed queue len = %d before tick %d", g.DelayedActions().Len(), i+1)
		}
		g.Update()
		if g.ObjectAt(Location{2, 2}) != nil {
			t.Fatalf("crystal appeared early at tick %d", *g.TickCount())
		}
	}
	g.Update()
	if got := g.ObjectAt(Location{2, 2}); got == nil || got.Name() != "crystal" {
		t.Fatalf("crystal missing after third update")
	}
	if g.DelayedActions().Len() != 0 {
		t.Fatalf("queue not drained")
	}
	checkInvariants(t, g)
}

func TestDelayed_FIFOWithinSameTick(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3, "logger")
	var order []string
	logger := NewObject("logger", 1, 0)
	for _, name := range []string{"first", "second", "third"} {
		name := name
		logger.RegisterSrcBehaviour(name, EmptyObjectName, func(g *Grid, a Action, self *Object) BehaviourResult {
			order = append(order, name)
			return BehaviourResult{}
		})
	}
	mustAdd(t, g, Location{0, 0}, logger, NoOrientation)

	g.DelayAction(1, Action{Name: "first", SourceObject: logger, Vector: Location{1, 0}, Delay: 1})
	g.DelayAction(1, Action{Name: "second", SourceObject: logger, Vector: Location{1, 0}, Delay: 1})
	g.DelayAction(1, Action{Name: "third", SourceObject: logger, Vector: Location{1, 0}, Delay: 1})

	g.Update()
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("order = %v", order)
	}
}

func TestDelayed_ZeroDelayEnqueuedDuringUpdateRunsSameUpdate(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3, "chain")
	ran := false
	chain := NewObject("chain", 1, 0)
	chain.RegisterSrcBehaviour("start", EmptyObjectName, func(g *Grid, a Action, self *Object) BehaviourResult {
		g.DelayAction(self.PlayerID(), Action{Name: "finish", SourceObject: self, Vector: Location{1, 0}})
		return BehaviourResult{}
	})
	chain.RegisterSrcBehaviour("finish", EmptyObjectName, func(g *Grid, a Action, self *Object) BehaviourResult {
		ran = true
		return BehaviourResult{}
	})
	mustAdd(t, g, Location{0, 0}, chain, NoOrientation)

	g.DelayAction(1, Action{Name: "start", SourceObject: chain, Vector: Location{1, 0}, Delay: 1})
	g.Update()
	if !ran {
		t.Fatalf("zero-delay chained action did not run in the same update")
	}
	if g.DelayedActions().Len() != 0 {
		t.Fatalf("queue not drained")
	}
}

func TestDelayed_RemovedSourceIsSkipped(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3, "ghost")
	ran := false
	ghost := NewObject("ghost", 1, 0)
	ghost.RegisterSrcBehaviour("haunt", EmptyObjectName, func(g *Grid, a Action, self *Object) BehaviourResult {
		ran = true
		return BehaviourResult{}
	})
	mustAdd(t, g, Location{0, 0}, ghost, NoOrientation)

	g.DelayAction(1, Action{Name: "haunt", SourceObject: ghost, Vector: Location{1, 0}, Delay: 1})
	g.RemoveObject(ghost)

	rewards := g.Update()
	if ran || len(rewards) != 0 {
		t.Fatalf("delayed action with removed source still ran")
	}
	checkInvariants(t, g)
}

func TestDelayed_NoStaleEntriesAfterUpdate(t *testing.T) {
	g := newTestGrid(t, 1, 3, 3, "logger")
	logger := NewObject("logger", 1, 0)
	logger.RegisterSrcBehaviour("ping", EmptyObjectName, func(g *Grid, a Action, self *Object) BehaviourResult {
		return BehaviourResult{}
	})
	mustAdd(t, g, Location{0, 0}, logger, NoOrientation)

	for delay := uint32(0); delay < 5; delay++ {
		g.DelayAction(1, Action{Name: "ping", SourceObject: logger, Vector: Location{1, 0}, Delay: delay})
	}
	for i := 0; i < 6; i++ {
		g.Update()
		checkInvariants(t, g)
	}
	if g.DelayedActions().Len() != 0 {
		t.Fatalf("queue not empty after all due ticks passed")
	}
}
