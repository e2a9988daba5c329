// Package level seeds grids with their initial object population.
package level

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"griddly.ai/internal/sim/gdy"
	"griddly.ai/internal/sim/grid"
)

// Generator produces the initial object population of an episode.
type Generator interface {
	Generate(g *grid.Grid) error
}

// MapDef is the YAML level file: a name and a whitespace-separated character
// map. "." is an empty tile; "g" places a neutral object by map character;
// "A1" places the object owned by player 1.
type MapDef struct {
	Name string `yaml:"name"`
	Map  string `yaml:"map"`
}

type placement struct {
	objectName string
	playerID   uint32
	location   grid.Location
}

// MapGenerator instantiates catalog objects from a parsed character map.
type MapGenerator struct {
	name       string
	game       *gdy.Game
	width      int32
	height     int32
	placements []placement
}

// LoadMap reads and parses a level file against a compiled game.
func LoadMap(path string, game *gdy.Game) (*MapGenerator, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def MapDef
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}
	return ParseMap(def, game)
}

// ParseMap resolves every map token through the game's map characters. All
// parse failures are loud; a level must never half-load.
func ParseMap(def MapDef, game *gdy.Game) (*MapGenerator, error) {
	var rows [][]string
	for _, line := range strings.Split(def.Map, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		rows = append(rows, fields)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("level %q: empty map", def.Name)
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("level %q: row %d has %d tiles, want %d", def.Name, i, len(row), width)
		}
	}

	gen := &MapGenerator{
		name:   def.Name,
		game:   game,
		width:  int32(width),
		height: int32(len(rows)),
	}
	for y, row := range rows {
		for x, token := range row {
			if token == "." {
				continue
			}
			ch := token[:1]
			objectName, ok := game.ObjectByMapCharacter(ch)
			if !ok {
				return nil, fmt.Errorf("level %q: unknown map character %q at (%d,%d)", def.Name, ch, x, y)
			}
			playerID := uint32(0)
			if suffix := token[1:]; suffix != "" {
				id, err := strconv.ParseUint(suffix, 10, 32)
				if err != nil {
					return nil, fmt.Errorf("level %q: bad player suffix %q at (%d,%d)", def.Name, token, x, y)
				}
				playerID = uint32(id)
			}
			if playerID > game.PlayerCount() {
				return nil, fmt.Errorf("level %q: player %d out of range at (%d,%d)", def.Name, playerID, x, y)
			}
			gen.placements = append(gen.placements, placement{
				objectName: objectName,
				playerID:   playerID,
				location:   grid.Location{X: int32(x), Y: int32(y)},
			})
		}
	}
	return gen, nil
}

func (m *MapGenerator) Name() string { return m.name }

func (m *MapGenerator) Width() int32 { return m.width }

func (m *MapGenerator) Height() int32 { return m.height }

// Generate resets the map to the level's dimensions and places every object,
// applying initial actions as each lands.
func (m *MapGenerator) Generate(g *grid.Grid) error {
	g.ResetMap(m.width, m.height)
	for _, p := range m.placements {
		object, err := m.game.NewInstance(p.objectName, p.playerID)
		if err != nil {
			return err
		}
		if err := g.AddObject(p.location, object, true, nil, grid.NoOrientation); err != nil {
			return fmt.Errorf("level %q: %w", m.name, err)
		}
	}
	return nil
}
