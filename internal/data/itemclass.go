package data

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/embervale/worldserver/internal/world"
)

// ModifierDef is a YAML-configured attribute modifier of an item class
// (spec §4.7). ToClass range-checks Attribute but keeps only Stack,
// Effect and Value in the resulting world.ModifierLayer, and no code in
// this repository applies an item class's modifiers when it is equipped.
type ModifierDef struct {
	Attribute int     `yaml:"attribute"` // index into world.Attribute order
	Stack     string  `yaml:"stack"`     // "stackable" | "non_stackable" | "non_stackable_bonus"
	Effect    string  `yaml:"effect"`    // "add" | "multiply"
	Value     float64 `yaml:"value"`
}

// ItemClassDef is the YAML shape of an ItemClass (spec §3 Item-Class).
type ItemClassDef struct {
	ID            int32         `yaml:"id"`
	Name          string        `yaml:"name"`
	Type          string        `yaml:"type"`           // "usable" | "equipment" | "projectile"
	EquipCategory string        `yaml:"equip_category"` // see world.EquipCategory names
	Weight        int32         `yaml:"weight"`
	UnitCost      int32         `yaml:"unit_cost"`
	MaxStackSize  int32         `yaml:"max_stack_size"`
	Modifiers     []ModifierDef `yaml:"modifiers"`
	ScriptRef     string        `yaml:"script"`
}

var itemTypeByName = map[string]world.ItemTypeTag{
	"usable":     world.ItemUsable,
	"equipment":  world.ItemEquipment,
	"projectile": world.ItemProjectile,
}

var equipCategoryByName = map[string]world.EquipCategory{
	"torso":          world.EquipCategoryTorso,
	"arms":           world.EquipCategoryArms,
	"head":           world.EquipCategoryHead,
	"legs":           world.EquipCategoryLegs,
	"feet":           world.EquipCategoryFeet,
	"ring":           world.EquipCategoryRing,
	"necklace":       world.EquipCategoryNecklace,
	"weapon_1h":      world.EquipCategoryWeaponOneHand,
	"weapon_2h":      world.EquipCategoryWeaponTwoHand,
	"shield":         world.EquipCategoryShield,
	"projectile_tag": world.EquipCategoryProjectile,
}

var stackKindByName = map[string]world.StackKind{
	"stackable":           world.StackStackable,
	"non_stackable":       world.StackNonStackable,
	"non_stackable_bonus": world.StackNonStackableBonus,
}

var effectKindByName = map[string]world.EffectKind{
	"add":      world.EffectAdd,
	"multiply": world.EffectMultiply,
}

// ToClass converts a YAML definition into the runtime ItemClass.
func (d *ItemClassDef) ToClass() *world.ItemClass {
	c := &world.ItemClass{
		ID:            d.ID,
		Name:          d.Name,
		Type:          itemTypeByName[d.Type],
		EquipCategory: equipCategoryByName[d.EquipCategory],
		Weight:        d.Weight,
		UnitCost:      d.UnitCost,
		MaxStackSize:  d.MaxStackSize,
		ScriptRef:     d.ScriptRef,
	}
	if c.MaxStackSize <= 0 {
		c.MaxStackSize = 1
	}
	for _, m := range d.Modifiers {
		if m.Attribute < 0 || m.Attribute >= world.AttributeCount {
			continue
		}
		c.Modifiers = append(c.Modifiers, world.ModifierLayer{
			Stack:  stackKindByName[m.Stack],
			Effect: effectKindByName[m.Effect],
			Value:  m.Value,
		})
	}
	return c
}

// LoadItemClasses reads every *.yaml file in dir into an
// ItemClassTable.
func LoadItemClasses(dir string) (*world.ItemClassTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("data: read item class dir: %w", err)
	}
	var classes []*world.ItemClass
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("data: read item class %s: %w", e.Name(), err)
		}
		var def ItemClassDef
		if err := yaml.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("data: parse item class %s: %w", e.Name(), err)
		}
		classes = append(classes, def.ToClass())
	}
	return world.NewItemClassTable(classes), nil
}
