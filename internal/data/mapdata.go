// Package data loads the static game content the runtime needs at
// startup: maps, monster classes, and item classes (spec §3 Map format,
// §6 "Map format"). All three are YAML, grounded on the teacher's
// `internal/data` loaders and the pack's other yaml.v3 users.
package data

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WarpDef is a Tiled "Warp" typed object: a portal from one map/tile to
// another (spec §3 Map format).
type WarpDef struct {
	FromX   int32 `yaml:"from_x"`
	FromY   int32 `yaml:"from_y"`
	ToMapID int32 `yaml:"to_map"`
	ToX     int32 `yaml:"to_x"`
	ToY     int32 `yaml:"to_y"`
}

// SpawnDef is a Tiled "Spawn" typed object: a monster-class spawn area
// with a population cap and rate.
type SpawnDef struct {
	MonsterClassID int32 `yaml:"monster_class"`
	MinX           int32 `yaml:"min_x"`
	MinY           int32 `yaml:"min_y"`
	MaxX           int32 `yaml:"max_x"`
	MaxY           int32 `yaml:"max_y"`
	MaxPopulation  int32 `yaml:"max_population"`
	SpawnRateMS    int32 `yaml:"spawn_rate_ms"`
}

// NPCDef is a Tiled NPC object with a script body reference and its
// custom string properties (spec §3 Map format: "NPCs with script
// bodies ... custom properties are read as string name->value pairs").
type NPCDef struct {
	ID         int32             `yaml:"id"`
	X          int32             `yaml:"x"`
	Y          int32             `yaml:"y"`
	ScriptRef  string            `yaml:"script"`
	Properties map[string]string `yaml:"properties"`
}

// MapDef is one map's metadata plus the collision layer: width/height
// in tiles and a flat row-major walkable bitmap (the fourth Tiled layer
// by index, per spec §3 Map format).
type MapDef struct {
	ID       int32      `yaml:"id"`
	Name     string     `yaml:"name"`
	PvP      bool       `yaml:"pvp"`
	Width    int32      `yaml:"width"`
	Height   int32      `yaml:"height"`
	Walkable []bool     `yaml:"walkable"`
	Warps    []WarpDef  `yaml:"warps"`
	Spawns   []SpawnDef `yaml:"spawns"`
	NPCs     []NPCDef   `yaml:"npcs"`
}

// LoadMaps reads every *.yaml file in dir as a MapDef.
func LoadMaps(dir string) ([]*MapDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("data: read map dir: %w", err)
	}
	var maps []*MapDef
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("data: read map %s: %w", e.Name(), err)
		}
		var def MapDef
		if err := yaml.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("data: parse map %s: %w", e.Name(), err)
		}
		maps = append(maps, &def)
	}
	return maps, nil
}
