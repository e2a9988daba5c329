package grid

// mergeRewards folds src into dst.
func mergeRewards(dst, src map[uint32]int32) map[uint32]int32 {
	for playerID, reward := range src {
		dst[playerID] += reward
	}
	return dst
}

func (g *Grid) actionSourceObject(action Action) *Object {
	if action.SourceObject != nil {
		if !action.SourceObject.onGrid {
			return nil
		}
		return action.SourceObject
	}
	return g.ObjectAt(action.SourceLocation)
}

// PerformActions dispatches a player's submitted actions in order and returns
// the accumulated rewards. Actions whose source object is missing, not owned
// by the player, or does not implement the action are silently skipped.
// Player 0 is the neutral operator and is not subject to the ownership check.
// Actions carrying a delay are enqueued instead of executed.
func (g *Grid) PerformActions(playerID uint32, actions []Action) map[uint32]int32 {
	rewards := map[uint32]int32{}
	for _, action := range actions {
		source := g.actionSourceObject(action)
		if source == nil {
			continue
		}
		if playerID != 0 && source.playerID != playerID {
			continue
		}
		if !source.CanPerformAction(action.Name) {
			continue
		}
		if action.Delay > 0 {
			g.DelayAction(playerID, action)
			continue
		}
		mergeRewards(rewards, g.executeAndRecord(playerID, action))
	}
	return rewards
}

// ExecuteAction runs a single action without ownership filtering. This is the
// path used by rule scripts and delayed dispatch.
func (g *Grid) ExecuteAction(playerID uint32, action Action) map[uint32]int32 {
	return g.executeAndRecord(playerID, action)
}

// DelayAction enqueues the action for the tick currentTick + action.Delay.
func (g *Grid) DelayAction(playerID uint32, action Action) {
	dueTick := *g.gameTicks + int32(action.Delay)
	g.delayedActions.push(dueTick, playerID, action)
}

// executeAndRecord is the single choke point every executed action runs
// through: it captures the pre-execution event record, dispatches, and
// appends the record with its rewards to the history.
func (g *Grid) executeAndRecord(playerID uint32, action Action) map[uint32]int32 {
	var event GridEvent
	if g.recordEvents {
		event = g.buildGridEvent(playerID, action)
	}
	rewards := g.dispatchAction(playerID, action)
	if g.recordEvents {
		g.recordGridEvent(event, rewards)
	}
	return rewards
}

// dispatchAction resolves source and destination, filters behaviours, and
// runs destination behaviours before source behaviours. A destination
// behaviour may abort, cancelling the source side (how a wall blocks a move).
// Every failure mode short of a configuration error is a zero-reward no-op.
func (g *Grid) dispatchAction(playerID uint32, action Action) map[uint32]int32 {
	source := g.actionSourceObject(action)
	if source == nil {
		return nil
	}
	if !source.CanPerformAction(action.Name) {
		return nil
	}

	destination := g.resolveObject(playerID, action.Destination())
	srcBehaviours := source.SrcBehaviours(action.Name, destination.name)
	if len(srcBehaviours) == 0 {
		return nil
	}
	dstBehaviours := destination.DstBehaviours(action.Name, source.name)

	indexes, ok := g.filterBehaviourProbabilities(action.Name, len(srcBehaviours))
	if !ok || len(indexes) == 0 {
		return nil
	}

	rewards := map[uint32]int32{}
	aborted := false
	for _, idx := range indexes {
		if idx >= len(dstBehaviours) {
			continue
		}
		result := dstBehaviours[idx](g, action, destination)
		mergeRewards(rewards, result.Rewards)
		if result.Abort {
			aborted = true
		}
	}
	if aborted {
		return rewards
	}
	for _, idx := range indexes {
		result := srcBehaviours[idx](g, action, source)
		mergeRewards(rewards, result.Rewards)
	}
	return rewards
}

// SetBehaviourProbabilities configures per-action behaviour weight vectors.
// When set for an action, one behaviour index is sampled per execution with
// probability proportional to its weight; zero weights exclude an index. The
// vector length must match the action's behaviour count — mismatches are
// validated loudly by the definition loader and dropped silently at runtime.
func (g *Grid) SetBehaviourProbabilities(probabilities map[string][]float64) {
	g.behaviourProbabilities = map[string][]float64{}
	for actionName, weights := range probabilities {
		g.behaviourProbabilities[actionName] = append([]float64(nil), weights...)
	}
}

// BehaviourProbabilities returns the configured weight vectors.
func (g *Grid) BehaviourProbabilities() map[string][]float64 {
	return g.behaviourProbabilities
}

// filterBehaviourProbabilities selects which behaviour indexes run for one
// execution. Without configured weights every index runs in definition order.
func (g *Grid) filterBehaviourProbabilities(actionName string, count int) ([]int, bool) {
	weights, configured := g.behaviourProbabilities[actionName]
	if !configured {
		indexes := make([]int, count)
		for i := range indexes {
			indexes[i] = i
		}
		return indexes, true
	}
	if len(weights) != count {
		return nil, false
	}
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return nil, true
	}
	r := g.random.SampleFloat() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		r -= w
		if r < 0 {
			return []int{i}, true
		}
	}
	return []int{len(weights) - 1}, true
}

// ProcessDelayedActions pops and executes every queued action due at the
// current tick. Actions enqueued during processing that are due this same
// tick drain in the same call, FIFO by insertion sequence.
func (g *Grid) ProcessDelayedActions() map[uint32]int32 {
	rewards := map[uint32]int32{}
	for {
		dueTick, ok := g.delayedActions.peekDue()
		if !ok || dueTick > *g.gameTicks {
			break
		}
		item := g.delayedActions.pop()
		mergeRewards(rewards, g.executeAndRecord(item.playerID, item.action))
	}
	return rewards
}

// Update advances the grid one tick: the tick counter moves first, then
// delayed actions due at the new tick drain, then collision-triggered actions
// fire. Returns the summed rewards of everything that fired. Advancing the
// counter first is what lets a delay-N action submitted before tick T fire
// during the Nth subsequent update, and a delay-0 action enqueued by a
// behaviour fire inside the same update.
func (g *Grid) Update() map[uint32]int32 {
	*g.gameTicks++
	rewards := g.ProcessDelayedActions()
	mergeRewards(rewards, g.ProcessCollisions())
	return rewards
}
