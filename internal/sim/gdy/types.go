// Package gdy loads and compiles game definition documents: the object
// types, actions, behaviours and triggers that wire a grid for one game.
package gdy

// Document is the top-level game definition as parsed from YAML.
type Document struct {
	Version     int            `yaml:"version" json:"version"`
	Environment EnvironmentDef `yaml:"environment" json:"environment"`
	Objects     []ObjectDef    `yaml:"objects" json:"objects"`
	Actions     []ActionDef    `yaml:"actions" json:"actions"`
}

type EnvironmentDef struct {
	Name        string              `yaml:"name" json:"name"`
	Description string              `yaml:"description,omitempty" json:"description,omitempty"`
	PlayerCount uint32              `yaml:"player_count" json:"player_count"`
	Variables   []GlobalVariableDef `yaml:"variables,omitempty" json:"variables,omitempty"`
}

type GlobalVariableDef struct {
	Name         string `yaml:"name" json:"name"`
	InitialValue int32  `yaml:"initial_value,omitempty" json:"initial_value,omitempty"`
	PerPlayer    bool   `yaml:"per_player,omitempty" json:"per_player,omitempty"`
}

type ObjectDef struct {
	Name           string              `yaml:"name" json:"name"`
	MapCharacter   string              `yaml:"map_character,omitempty" json:"map_character,omitempty"`
	Z              int32               `yaml:"z,omitempty" json:"z,omitempty"`
	Avatar         bool                `yaml:"avatar,omitempty" json:"avatar,omitempty"`
	Variables      []ObjectVariableDef `yaml:"variables,omitempty" json:"variables,omitempty"`
	InitialActions []InitialActionDef  `yaml:"initial_actions,omitempty" json:"initial_actions,omitempty"`
}

type ObjectVariableDef struct {
	Name         string `yaml:"name" json:"name"`
	InitialValue int32  `yaml:"initial_value,omitempty" json:"initial_value,omitempty"`
}

type InitialActionDef struct {
	Action string   `yaml:"action" json:"action"`
	Vector [2]int32 `yaml:"vector,omitempty" json:"vector,omitempty"`
	Delay  uint32   `yaml:"delay,omitempty" json:"delay,omitempty"`
}

type ActionDef struct {
	Name string `yaml:"name" json:"name"`
	// Relative interprets submitted action vectors in the source facing
	// frame.
	Relative      bool           `yaml:"relative,omitempty" json:"relative,omitempty"`
	Behaviours    []BehaviourDef `yaml:"behaviours" json:"behaviours"`
	Probabilities []float64      `yaml:"probabilities,omitempty" json:"probabilities,omitempty"`
	Trigger       *TriggerDef    `yaml:"trigger,omitempty" json:"trigger,omitempty"`
}

// BehaviourDef pairs what the source does with what the destination does for
// one candidate behaviour of an action.
type BehaviourDef struct {
	Src BehaviourSideDef `yaml:"src" json:"src"`
	Dst BehaviourSideDef `yaml:"dst,omitempty" json:"dst,omitempty"`
}

type BehaviourSideDef struct {
	// Object names the participating object type; sentinels _empty and
	// _boundary are valid destinations.
	Object   string       `yaml:"object" json:"object"`
	Commands []CommandDef `yaml:"commands,omitempty" json:"commands,omitempty"`
	// Abort on a destination side cancels the source commands (blockers).
	Abort bool `yaml:"abort,omitempty" json:"abort,omitempty"`
}

// CommandDef is one mutation step; exactly one field may be set.
type CommandDef struct {
	Move   string     `yaml:"move,omitempty" json:"move,omitempty"`     // "_dest": move self to the action destination
	Remove string     `yaml:"remove,omitempty" json:"remove,omitempty"` // "_self" or "_dest"
	Spawn  string     `yaml:"spawn,omitempty" json:"spawn,omitempty"`   // object name, placed at the destination
	Reward *RewardDef `yaml:"reward,omitempty" json:"reward,omitempty"`
	Set    *VarOpDef  `yaml:"set,omitempty" json:"set,omitempty"`
	Incr   string     `yaml:"incr,omitempty" json:"incr,omitempty"`
	Decr   string     `yaml:"decr,omitempty" json:"decr,omitempty"`
	Exec   *ExecDef   `yaml:"exec,omitempty" json:"exec,omitempty"`
	Rotate bool       `yaml:"rotate,omitempty" json:"rotate,omitempty"` // face the action vector
}

type RewardDef struct {
	Amount int32 `yaml:"amount" json:"amount"`
	// Player receives the reward: "_self" (acting object's owner, default)
	// or "_other" (the counterpart object's owner).
	Player string `yaml:"player,omitempty" json:"player,omitempty"`
}

type VarOpDef struct {
	Name  string `yaml:"name" json:"name"`
	Value int32  `yaml:"value,omitempty" json:"value,omitempty"`
}

type ExecDef struct {
	Action string   `yaml:"action" json:"action"`
	Vector [2]int32 `yaml:"vector,omitempty" json:"vector,omitempty"`
	Delay  uint32   `yaml:"delay,omitempty" json:"delay,omitempty"`
}

type TriggerDef struct {
	Type         string   `yaml:"type" json:"type"` // NONE | RANGE_BOX_BOUNDARY | RANGE_BOX_AREA
	Range        uint32   `yaml:"range,omitempty" json:"range,omitempty"`
	Sources      []string `yaml:"sources" json:"sources"`
	Destinations []string `yaml:"destinations" json:"destinations"`
	Relative     bool     `yaml:"relative,omitempty" json:"relative,omitempty"`
	Offset       [2]int32 `yaml:"offset,omitempty" json:"offset,omitempty"`
}
