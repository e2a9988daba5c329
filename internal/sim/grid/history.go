package grid

// GridEvent is one executed action as recorded in the event history. Source
// and destination fields are captured before the action's behaviours run, so
// the record describes the state the action fired against.
type GridEvent struct {
	Tick       uint32 `json:"tick"`
	PlayerID   uint32 `json:"player_id"`
	ActionName string `json:"action_name"`
	Delay      uint32 `json:"delay"`

	SourceObjectName string `json:"source_object_name"`
	DestObjectName   string `json:"dest_object_name"`

	SourceObjectPlayerID      uint32 `json:"source_object_player_id"`
	DestinationObjectPlayerID uint32 `json:"destination_object_player_id"`

	SourceLocation Location `json:"source_location"`
	DestLocation   Location `json:"dest_location"`

	Rewards map[uint32]int32 `json:"rewards,omitempty"`
}

// EnableHistory switches event recording on or off.
func (g *Grid) EnableHistory(enable bool) { g.recordEvents = enable }

// History returns the recorded events since the last purge.
func (g *Grid) History() []GridEvent { return g.eventHistory }

// PurgeHistory drops all recorded events.
func (g *Grid) PurgeHistory() { g.eventHistory = nil }

func (g *Grid) buildGridEvent(playerID uint32, action Action) GridEvent {
	event := GridEvent{
		Tick:           uint32(*g.gameTicks),
		PlayerID:       playerID,
		ActionName:     action.Name,
		Delay:          action.Delay,
		SourceLocation: action.sourceLocation(),
		DestLocation:   action.Destination(),
	}
	if source := g.actionSourceObject(action); source != nil {
		event.SourceObjectName = source.name
		event.SourceObjectPlayerID = source.playerID
	}
	dest := g.resolveObject(playerID, action.Destination())
	event.DestObjectName = dest.name
	event.DestinationObjectPlayerID = dest.playerID
	return event
}

func (g *Grid) recordGridEvent(event GridEvent, rewards map[uint32]int32) {
	if len(rewards) > 0 {
		event.Rewards = make(map[uint32]int32, len(rewards))
		for playerID, reward := range rewards {
			event.Rewards[playerID] = reward
		}
	}
	g.eventHistory = append(g.eventHistory, event)
}
