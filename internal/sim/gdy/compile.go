package gdy

import (
	"fmt"

	"griddly.ai/internal/sim/grid"
)

// rule is one compiled behaviour registration: which object name it attaches
// to, for which action, against which counterpart.
type rule struct {
	actionName  string
	counterpart string
	behaviour   grid.Behaviour
}

// Game is a compiled definition document, ready to wire grids and mint object
// instances.
type Game struct {
	doc    Document
	digest string

	objects   map[string]ObjectDef
	relative  map[string]bool
	mapChars  map[string]string // map character → object name
	srcRules  map[string][]rule
	dstRules  map[string][]rule
	probables map[string][]float64
}

// Compile validates the cross-references of a document and builds the
// behaviour closures. All errors here are configuration errors.
func Compile(doc Document) (*Game, error) {
	game := &Game{
		doc:       doc,
		digest:    Digest(doc),
		objects:   map[string]ObjectDef{},
		relative:  map[string]bool{},
		mapChars:  map[string]string{},
		srcRules:  map[string][]rule{},
		dstRules:  map[string][]rule{},
		probables: map[string][]float64{},
	}

	globals := map[string]struct{}{}
	for _, v := range doc.Environment.Variables {
		globals[v.Name] = struct{}{}
	}

	for _, def := range doc.Objects {
		if _, dup := game.objects[def.Name]; dup {
			return nil, fmt.Errorf("gdy: duplicate object %q", def.Name)
		}
		if def.Name == grid.EmptyObjectName || def.Name == grid.BoundaryObjectName {
			return nil, fmt.Errorf("gdy: object name %q is reserved", def.Name)
		}
		game.objects[def.Name] = def
		if def.MapCharacter != "" {
			if prev, dup := game.mapChars[def.MapCharacter]; dup {
				return nil, fmt.Errorf("gdy: map character %q used by %q and %q", def.MapCharacter, prev, def.Name)
			}
			game.mapChars[def.MapCharacter] = def.Name
		}
	}

	actionNames := map[string]struct{}{}
	for _, action := range doc.Actions {
		actionNames[action.Name] = struct{}{}
	}
	for _, def := range doc.Objects {
		for _, initial := range def.InitialActions {
			if _, ok := actionNames[initial.Action]; !ok {
				return nil, fmt.Errorf("gdy: object %q initial action %q is not defined", def.Name, initial.Action)
			}
		}
	}

	for _, action := range doc.Actions {
		game.relative[action.Name] = action.Relative
		if err := game.compileAction(action, globals); err != nil {
			return nil, err
		}
	}
	return game, nil
}

func (game *Game) compileAction(action ActionDef, globals map[string]struct{}) error {
	if len(action.Probabilities) > 0 {
		if len(action.Probabilities) != len(action.Behaviours) {
			return fmt.Errorf("gdy: action %q has %d probabilities for %d behaviours",
				action.Name, len(action.Probabilities), len(action.Behaviours))
		}
		// The grid samples indexes per (source, destination) pairing, so a
		// probabilistic action must keep a single pairing across candidates.
		src0, dst0 := action.Behaviours[0].Src.Object, destName(action.Behaviours[0])
		for _, b := range action.Behaviours[1:] {
			if b.Src.Object != src0 || destName(b) != dst0 {
				return fmt.Errorf("gdy: probabilistic action %q mixes object pairings", action.Name)
			}
		}
		game.probables[action.Name] = append([]float64(nil), action.Probabilities...)
	}

	for _, b := range action.Behaviours {
		srcName := b.Src.Object
		dstName := destName(b)
		if err := game.checkParticipant(action.Name, srcName); err != nil {
			return err
		}
		if err := game.checkParticipant(action.Name, dstName); err != nil {
			return err
		}
		srcBehaviour, err := game.compileSide(action.Name, srcName, b.Src, globals)
		if err != nil {
			return err
		}
		dstBehaviour, err := game.compileSide(action.Name, dstName, b.Dst, globals)
		if err != nil {
			return err
		}
		// Both sides always register so the index pairing between source and
		// destination candidate lists stays aligned.
		game.srcRules[srcName] = append(game.srcRules[srcName],
			rule{actionName: action.Name, counterpart: dstName, behaviour: srcBehaviour})
		game.dstRules[dstName] = append(game.dstRules[dstName],
			rule{actionName: action.Name, counterpart: srcName, behaviour: dstBehaviour})
	}

	if action.Trigger != nil {
		for _, name := range append(append([]string(nil), action.Trigger.Sources...), action.Trigger.Destinations...) {
			if err := game.checkParticipant(action.Name, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func destName(b BehaviourDef) string {
	if b.Dst.Object == "" {
		return grid.EmptyObjectName
	}
	return b.Dst.Object
}

func (game *Game) checkParticipant(actionName, objectName string) error {
	if objectName == grid.EmptyObjectName || objectName == grid.BoundaryObjectName {
		return nil
	}
	if _, ok := game.objects[objectName]; !ok {
		return fmt.Errorf("gdy: action %q references unknown object %q", actionName, objectName)
	}
	return nil
}

// Name returns the environment name.
func (game *Game) Name() string { return game.doc.Environment.Name }

// Digest returns the document fingerprint.
func (game *Game) Digest() string { return game.digest }

// PlayerCount returns the configured number of players.
func (game *Game) PlayerCount() uint32 { return game.doc.Environment.PlayerCount }

// ActionNames lists the defined action names in definition order.
func (game *Game) ActionNames() []string {
	names := make([]string, 0, len(game.doc.Actions))
	for _, action := range game.doc.Actions {
		names = append(names, action.Name)
	}
	return names
}

// ObjectByMapCharacter resolves a level map character.
func (game *Game) ObjectByMapCharacter(ch string) (string, bool) {
	name, ok := game.mapChars[ch]
	return name, ok
}

// Configure wires a grid for this game: player count, global variables,
// object registration, triggers, probabilities and sentinel objects. The
// caller resets the map (directly or through a level generator) after this.
func (game *Game) Configure(g *grid.Grid) error {
	g.SetPlayerCount(game.doc.Environment.PlayerCount)

	globalDefs := map[string]grid.GlobalVariableDefinition{}
	for _, v := range game.doc.Environment.Variables {
		globalDefs[v.Name] = grid.GlobalVariableDefinition{InitialValue: v.InitialValue, PerPlayer: v.PerPlayer}
	}
	g.ResetGlobalVariables(globalDefs)

	for _, def := range game.doc.Objects {
		variableNames := make([]string, 0, len(def.Variables))
		for _, v := range def.Variables {
			variableNames = append(variableNames, v.Name)
		}
		if err := g.InitObject(def.Name, variableNames); err != nil {
			return err
		}
	}

	for _, action := range game.doc.Actions {
		if action.Trigger == nil {
			continue
		}
		g.AddActionTrigger(action.Name, triggerDefinition(*action.Trigger))
	}

	if len(game.probables) > 0 {
		g.SetBehaviourProbabilities(game.probables)
	}

	for playerID := uint32(0); playerID <= game.doc.Environment.PlayerCount; playerID++ {
		empty := grid.NewEmptyObject(playerID)
		game.attachRules(empty)
		g.AddPlayerEmptyObject(empty)

		boundary := grid.NewBoundaryObject(playerID)
		game.attachRules(boundary)
		g.AddPlayerBoundaryObject(boundary)
	}
	return nil
}

func triggerDefinition(def TriggerDef) grid.ActionTriggerDefinition {
	out := grid.ActionTriggerDefinition{
		SourceObjectNames:      map[string]struct{}{},
		DestinationObjectNames: map[string]struct{}{},
		Range:                  def.Range,
		Relative:               def.Relative,
		Offset:                 grid.Location{X: def.Offset[0], Y: def.Offset[1]},
	}
	switch def.Type {
	case "RANGE_BOX_BOUNDARY":
		out.TriggerType = grid.TriggerRangeBoxBoundary
	case "RANGE_BOX_AREA":
		out.TriggerType = grid.TriggerRangeBoxArea
	default:
		out.TriggerType = grid.TriggerNone
	}
	for _, name := range def.Sources {
		out.SourceObjectNames[name] = struct{}{}
	}
	for _, name := range def.Destinations {
		out.DestinationObjectNames[name] = struct{}{}
	}
	return out
}

// NewInstance mints a fresh object of a defined type, with its variables,
// initial actions and compiled behaviours attached.
func (game *Game) NewInstance(name string, playerID uint32) (*grid.Object, error) {
	def, ok := game.objects[name]
	if !ok {
		return nil, fmt.Errorf("gdy: unknown object %q", name)
	}
	object := grid.NewObject(def.Name, playerID, def.Z)
	object.SetPlayerAvatar(def.Avatar)
	for _, v := range def.Variables {
		object.InitVariable(v.Name, v.InitialValue)
	}
	initial := make([]grid.InitialAction, 0, len(def.InitialActions))
	for _, ia := range def.InitialActions {
		initial = append(initial, grid.InitialAction{
			Name:   ia.Action,
			Vector: grid.Location{X: ia.Vector[0], Y: ia.Vector[1]},
			Delay:  ia.Delay,
		})
	}
	object.SetInitialActions(initial)
	game.attachRules(object)
	return object, nil
}

func (game *Game) attachRules(object *grid.Object) {
	for _, r := range game.srcRules[object.Name()] {
		object.RegisterSrcBehaviour(r.actionName, r.counterpart, r.behaviour)
	}
	for _, r := range game.dstRules[object.Name()] {
		object.RegisterDstBehaviour(r.actionName, r.counterpart, r.behaviour)
	}
}

// NewAction builds a submittable action for a defined action name, applying
// the action's relative flag.
func (game *Game) NewAction(name string, source *grid.Object, vector grid.Location) grid.Action {
	return grid.Action{
		Name:         name,
		SourceObject: source,
		Vector:       vector,
		Relative:     game.relative[name],
	}
}
