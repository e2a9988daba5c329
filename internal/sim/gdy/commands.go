package gdy

import (
	"fmt"

	"griddly.ai/internal/sim/grid"
)

// compileSide turns one behaviour side into a grid.Behaviour closure. The
// commands run in sequence against the live grid; each mutation applies
// immediately, and a failed step (occupied slot, vanished target) is a
// silent no-op for that step only.
func (game *Game) compileSide(actionName, objectName string, side BehaviourSideDef, globals map[string]struct{}) (grid.Behaviour, error) {
	steps := make([]func(g *grid.Grid, a grid.Action, self *grid.Object, rewards map[uint32]int32), 0, len(side.Commands))

	for _, cmd := range side.Commands {
		step, err := game.compileCommand(actionName, objectName, cmd, globals)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	abort := side.Abort
	return func(g *grid.Grid, a grid.Action, self *grid.Object) grid.BehaviourResult {
		rewards := map[uint32]int32{}
		for _, step := range steps {
			step(g, a, self, rewards)
		}
		return grid.BehaviourResult{Abort: abort, Rewards: rewards}
	}, nil
}

func (game *Game) compileCommand(actionName, objectName string, cmd CommandDef, globals map[string]struct{}) (func(*grid.Grid, grid.Action, *grid.Object, map[uint32]int32), error) {
	switch {
	case cmd.Move != "":
		return func(g *grid.Grid, a grid.Action, self *grid.Object, _ map[uint32]int32) {
			g.UpdateLocation(self, self.Location(), a.Destination())
		}, nil

	case cmd.Remove != "":
		removeDest := cmd.Remove == "_dest"
		return func(g *grid.Grid, a grid.Action, self *grid.Object, _ map[uint32]int32) {
			target := self
			if removeDest {
				target = g.ObjectAt(a.Destination())
			}
			if target != nil {
				g.RemoveObject(target)
			}
		}, nil

	case cmd.Spawn != "":
		spawnName := cmd.Spawn
		if _, ok := game.objects[spawnName]; !ok {
			return nil, fmt.Errorf("gdy: action %q spawns unknown object %q", actionName, spawnName)
		}
		return func(g *grid.Grid, a grid.Action, self *grid.Object, _ map[uint32]int32) {
			object, err := game.NewInstance(spawnName, self.PlayerID())
			if err != nil {
				return
			}
			_ = g.AddObject(a.Destination(), object, true, &a, grid.NoOrientation)
		}, nil

	case cmd.Reward != nil:
		amount := cmd.Reward.Amount
		toOther := cmd.Reward.Player == "_other"
		return func(g *grid.Grid, a grid.Action, self *grid.Object, rewards map[uint32]int32) {
			playerID := self.PlayerID()
			if toOther {
				playerID = g.ObjectAtFor(self.PlayerID(), a.Destination()).PlayerID()
			}
			rewards[playerID] += amount
		}, nil

	case cmd.Set != nil:
		if err := game.checkVariable(actionName, objectName, cmd.Set.Name, globals); err != nil {
			return nil, err
		}
		name, value := cmd.Set.Name, cmd.Set.Value
		return func(g *grid.Grid, a grid.Action, self *grid.Object, _ map[uint32]int32) {
			if cell := game.variableCell(g, self, name); cell != nil {
				*cell = value
			}
		}, nil

	case cmd.Incr != "":
		if err := game.checkVariable(actionName, objectName, cmd.Incr, globals); err != nil {
			return nil, err
		}
		name := cmd.Incr
		return func(g *grid.Grid, a grid.Action, self *grid.Object, _ map[uint32]int32) {
			if cell := game.variableCell(g, self, name); cell != nil {
				*cell++
			}
		}, nil

	case cmd.Decr != "":
		if err := game.checkVariable(actionName, objectName, cmd.Decr, globals); err != nil {
			return nil, err
		}
		name := cmd.Decr
		return func(g *grid.Grid, a grid.Action, self *grid.Object, _ map[uint32]int32) {
			if cell := game.variableCell(g, self, name); cell != nil {
				*cell--
			}
		}, nil

	case cmd.Exec != nil:
		execName := cmd.Exec.Action
		vector := grid.Location{X: cmd.Exec.Vector[0], Y: cmd.Exec.Vector[1]}
		delay := cmd.Exec.Delay
		return func(g *grid.Grid, a grid.Action, self *grid.Object, rewards map[uint32]int32) {
			action := grid.Action{
				Name:         execName,
				SourceObject: self,
				Vector:       vector,
				Relative:     game.relative[execName],
				Delay:        delay,
			}
			if vector == (grid.Location{}) {
				action.Vector = a.Vector
				action.Relative = a.Relative
			}
			if delay > 0 {
				g.DelayAction(self.PlayerID(), action)
				return
			}
			for playerID, reward := range g.ExecuteAction(self.PlayerID(), action) {
				rewards[playerID] += reward
			}
		}, nil

	case cmd.Rotate:
		return func(g *grid.Grid, a grid.Action, self *grid.Object, _ map[uint32]int32) {
			if orientation := a.VectorOrientation(); orientation != grid.NoOrientation {
				self.SetOrientation(orientation)
				g.InvalidateLocation(self.Location())
			}
		}, nil
	}
	return nil, fmt.Errorf("gdy: action %q has an empty command", actionName)
}

// checkVariable ensures set/incr/decr targets a declared variable: either on
// the acting object type or a global. Sentinel sides can only use globals.
func (game *Game) checkVariable(actionName, objectName, variableName string, globals map[string]struct{}) error {
	if _, ok := globals[variableName]; ok {
		return nil
	}
	if def, ok := game.objects[objectName]; ok {
		for _, v := range def.Variables {
			if v.Name == variableName {
				return nil
			}
		}
	}
	return fmt.Errorf("gdy: action %q uses undeclared variable %q on %q", actionName, variableName, objectName)
}

// variableCell resolves object variables first, then globals as seen by the
// acting object's owner.
func (game *Game) variableCell(g *grid.Grid, self *grid.Object, name string) *int32 {
	if cell := self.Variable(name); cell != nil {
		return cell
	}
	return g.GlobalVariable(name, self.PlayerID())
}
