package data

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/embervale/worldserver/internal/world"
)

// AttackDef is one YAML-configured entry of a monster class's attack
// list (spec §3 Monster, §4.3 attack zone/damage record).
type AttackDef struct {
	Shape        string  `yaml:"shape"` // "cone" or "rectangle"
	MultiTarget  bool    `yaml:"multi_target"`
	Range        int32   `yaml:"range"`
	Angle        int32   `yaml:"angle"`
	DelayPreMS   int32   `yaml:"delay_pre_ms"`
	DelayPostMS  int32   `yaml:"delay_post_ms"`
	DamageFactor float64 `yaml:"damage_factor"`
	Base         int32   `yaml:"base"`
	Delta        int32   `yaml:"delta"`
	HitChance    int32   `yaml:"hit_chance"`
	Element      string  `yaml:"element"`
	Physical     bool    `yaml:"physical"`
	SkillUsed    int32   `yaml:"skill_used"`
}

// DropDef is one row of a monster class's drop table.
type DropDef struct {
	ItemID      int32 `yaml:"item_id"`
	Probability int32 `yaml:"probability"` // out of 10000
}

// MonsterClassDef is the YAML shape of a MonsterClass (spec §3 Monster).
type MonsterClassDef struct {
	ID          int32       `yaml:"id"`
	Name        string      `yaml:"name"`
	Attributes  []int32     `yaml:"attributes"` // indexed per world.Attribute order
	Speed       int32       `yaml:"speed_ms_per_tile"`
	Size        int32       `yaml:"size"`
	ExpReward   int32       `yaml:"exp_reward"`
	Aggressive  bool        `yaml:"aggressive"`
	TrackRange  int32       `yaml:"track_range"`
	StrollRange int32       `yaml:"stroll_range"`
	RotTicks    int32       `yaml:"rot_ticks"`
	ScriptRef   string      `yaml:"script"`
	Attacks     []AttackDef `yaml:"attacks"`
	Drops       []DropDef   `yaml:"drops"`
}

var elementByName = map[string]world.Element{
	"fire":  world.ElementFire,
	"water": world.ElementWater,
	"earth": world.ElementEarth,
	"wind":  world.ElementWind,
}

var shapeByName = map[string]world.ZoneShape{
	"cone":      world.ZoneCone,
	"rectangle": world.ZoneRectangle,
}

// ToClass converts a YAML definition into the runtime MonsterClass.
func (d *MonsterClassDef) ToClass() *world.MonsterClass {
	c := &world.MonsterClass{
		ID:          d.ID,
		Name:        d.Name,
		Speed:       d.Speed,
		Size:        d.Size,
		ExpReward:   d.ExpReward,
		Aggressive:  d.Aggressive,
		TrackRange:  d.TrackRange,
		StrollRange: d.StrollRange,
		RotTicks:    d.RotTicks,
		ScriptRef:   d.ScriptRef,
	}
	for i := 0; i < len(d.Attributes) && i < world.AttributeCount; i++ {
		c.BaseAttrs[i] = d.Attributes[i]
	}
	for _, drop := range d.Drops {
		c.Drops = append(c.Drops, world.DropEntry{ItemID: drop.ItemID, Probability: drop.Probability})
	}
	for _, a := range d.Attacks {
		c.Attacks = append(c.Attacks, world.MonsterAttack{
			Zone: world.AttackZone{
				Shape:       shapeByName[a.Shape],
				MultiTarget: a.MultiTarget,
				Range:       a.Range,
				Angle:       a.Angle,
			},
			DelayPreMS:   a.DelayPreMS,
			DelayPostMS:  a.DelayPostMS,
			DamageFactor: a.DamageFactor,
			Damage: world.DamageRecord{
				Base:      a.Base,
				Delta:     a.Delta,
				HitChance: a.HitChance,
				Element:   elementByName[a.Element],
				Physical:  a.Physical,
				SkillUsed: a.SkillUsed,
			},
		})
	}
	return c
}

// LoadMonsterClasses reads every *.yaml file in dir into a map of
// monster classes keyed by class id.
func LoadMonsterClasses(dir string) (map[int32]*world.MonsterClass, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("data: read monster class dir: %w", err)
	}
	out := make(map[int32]*world.MonsterClass)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("data: read monster class %s: %w", e.Name(), err)
		}
		var def MonsterClassDef
		if err := yaml.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("data: parse monster class %s: %w", e.Name(), err)
		}
		out[def.ID] = def.ToClass()
	}
	return out, nil
}
