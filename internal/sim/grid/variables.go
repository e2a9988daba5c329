package grid

import "fmt"

// GlobalVariableDefinition declares one global variable. PerPlayer variables
// get a distinct cell per player id 1..playerCount plus the neutral cell
// under id 0; plain globals get a single cell under id 0.
type GlobalVariableDefinition struct {
	InitialValue int32
	PerPlayer    bool
}

// ResetGlobalVariables discards and reinstantiates all global variable cells
// from definitions. Definitions are fixed until the next reset; the cells are
// the mutable handles rule scripts hold.
func (g *Grid) ResetGlobalVariables(definitions map[string]GlobalVariableDefinition) {
	g.globalVariables = map[string]map[uint32]*int32{}
	for name, def := range definitions {
		cells := map[uint32]*int32{}
		if def.PerPlayer {
			for playerID := uint32(0); playerID <= g.playerCount; playerID++ {
				cell := new(int32)
				*cell = def.InitialValue
				cells[playerID] = cell
			}
		} else {
			cell := new(int32)
			*cell = def.InitialValue
			cells[0] = cell
		}
		g.globalVariables[name] = cells
	}
}

// SetGlobalVariables overwrites values of already-defined variables, e.g.
// when restoring a level's starting state. Unknown names are configuration
// errors.
func (g *Grid) SetGlobalVariables(values map[string]map[uint32]int32) error {
	for name, byPlayer := range values {
		cells, ok := g.globalVariables[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
		}
		for playerID, value := range byPlayer {
			cell, ok := cells[playerID]
			if !ok {
				return fmt.Errorf("%w: %s player %d", ErrUnknownVariable, name, playerID)
			}
			*cell = value
		}
	}
	return nil
}

// GlobalVariables returns the live cell map, variable name → player id → cell.
func (g *Grid) GlobalVariables() map[string]map[uint32]*int32 {
	return g.globalVariables
}

// GlobalVariable returns the cell for a variable as seen by a player. Plain
// globals resolve to the shared cell under id 0 for every player.
func (g *Grid) GlobalVariable(name string, playerID uint32) *int32 {
	cells, ok := g.globalVariables[name]
	if !ok {
		return nil
	}
	if cell, ok := cells[playerID]; ok {
		return cell
	}
	return cells[0]
}
