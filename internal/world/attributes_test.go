package world

import (
	"testing"
	"time"
)

// TestApplyDamageMonotonicAndClamped exercises the damage-monotonicity
// testable property: CurrentHP never increases from ApplyDamage and never
// leaves [0, MaxHP].
func TestApplyDamageMonotonicAndClamped(t *testing.T) {
	b := &Being{CurrentHP: 10, MaxHP: 10}

	if died := b.ApplyDamage(4); died {
		t.Fatalf("should not die at 6/10 hp")
	}
	if b.CurrentHP != 6 {
		t.Fatalf("expected 6 hp remaining, got %d", b.CurrentHP)
	}

	if died := b.ApplyDamage(100); !died {
		t.Fatalf("expected death when damage exceeds remaining hp")
	}
	if b.CurrentHP != 0 {
		t.Fatalf("expected hp clamped at 0, got %d", b.CurrentHP)
	}
	if b.Action != ActionDead {
		t.Fatalf("expected action state dead")
	}
}

func TestApplyDamageFiresDiedExactlyOnce(t *testing.T) {
	b := &Being{CurrentHP: 5, MaxHP: 5}

	if died := b.ApplyDamage(5); !died {
		t.Fatalf("expected died on the killing blow")
	}
	if died := b.ApplyDamage(1); died {
		t.Fatalf("expected died to fire only once, a second hit on a corpse must not re-fire it")
	}
}

func TestApplyDamageNeverRaisesHP(t *testing.T) {
	b := &Being{CurrentHP: 10, MaxHP: 10}
	b.ApplyDamage(-5) // a malformed negative damage value must never heal
	if b.CurrentHP > b.MaxHP {
		t.Fatalf("expected hp clamped to MaxHP, got %d", b.CurrentHP)
	}
}

func TestModifiedAppliesStackableLayersAdditively(t *testing.T) {
	b := &Being{}
	b.Base[AttrPhysAtkMin] = 10
	b.Modifiers[AttrPhysAtkMin] = []ModifierLayer{
		{Stack: StackStackable, Effect: EffectAdd, Value: 5},
		{Stack: StackStackable, Effect: EffectAdd, Value: 3},
	}
	if got := b.Modified(AttrPhysAtkMin); got != 18 {
		t.Fatalf("expected 10+5+3=18, got %d", got)
	}
}

func TestModifiedNonStackableTakesTheBetterOfBaseAndLayer(t *testing.T) {
	b := &Being{}
	b.Base[AttrPhysAtkMin] = 10
	b.Modifiers[AttrPhysAtkMin] = []ModifierLayer{
		{Stack: StackNonStackable, Effect: EffectAdd, Value: 3}, // 10+3=13, worse than the next layer
		{Stack: StackNonStackable, Effect: EffectAdd, Value: 20},
	}
	if got := b.Modified(AttrPhysAtkMin); got != 30 {
		t.Fatalf("expected the larger of the two non-stackable bonuses applied over base (30), got %d", got)
	}
}

func TestExpireModifiersDropsExpiredLayers(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	b := &Being{}
	b.Modifiers[AttrPhysAtkMin] = []ModifierLayer{
		{Stack: StackStackable, Effect: EffectAdd, Value: 5, ExpiresAt: past},
	}
	b.ExpireModifiers(now)
	if len(b.Modifiers[AttrPhysAtkMin]) != 0 {
		t.Fatalf("expected the expired layer dropped, got %+v", b.Modifiers[AttrPhysAtkMin])
	}
}

func TestElementAttributeIndexesPastFixedAttributes(t *testing.T) {
	if got := ElementAttribute(ElementFire); int(got) != int(attrFixedCount) {
		t.Fatalf("expected fire resistance to be the first slot after the fixed attributes, got index %d", got)
	}
	if AttributeCount != int(attrFixedCount)+int(ElementCount) {
		t.Fatalf("AttributeCount must track attrFixedCount+ElementCount")
	}
}
