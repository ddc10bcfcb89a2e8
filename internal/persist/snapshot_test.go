package persist

import (
	"testing"

	"github.com/embervale/worldserver/internal/world"
)

func sampleSnapshot() *CharacterSnapshot {
	s := &CharacterSnapshot{
		AccountLevel:     3,
		Gender:           1,
		HairStyle:        5,
		HairColor:        2,
		Level:            42,
		CharacterPoints:  7,
		CorrectionPoints: 1,
		MapID:            4,
		X:                120,
		Y:                340,
		Money:            99999,
	}
	for i := range s.Attributes {
		s.Attributes[i] = byte(10 + i)
	}
	for i := range s.SkillExp {
		s.SkillExp[i] = int32(100 * (i + 1))
	}
	for i := range s.Equipment {
		s.Equipment[i] = int16(500 + i)
	}
	s.Inventory = []InventorySlotSnapshot{
		{ItemID: 10, Amount: 5},
		{ItemID: 20, Amount: 64},
	}
	return s
}

func TestSnapshotEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleSnapshot()
	got, err := DecodeSnapshot(want.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.AccountLevel != want.AccountLevel ||
		got.Level != want.Level ||
		got.MapID != want.MapID ||
		got.X != want.X || got.Y != want.Y ||
		got.Money != want.Money ||
		got.Attributes != want.Attributes ||
		got.SkillExp != want.SkillExp ||
		got.Equipment != want.Equipment {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}

	if len(got.Inventory) != len(want.Inventory) {
		t.Fatalf("expected %d inventory slots, got %d", len(want.Inventory), len(got.Inventory))
	}
	for i := range want.Inventory {
		if got.Inventory[i] != want.Inventory[i] {
			t.Fatalf("inventory slot %d mismatch: got %+v want %+v", i, got.Inventory[i], want.Inventory[i])
		}
	}
}

func TestSnapshotDecodeToleratesMissingInventoryTail(t *testing.T) {
	want := sampleSnapshot()
	want.Inventory = nil
	encoded := want.Encode()

	got, err := DecodeSnapshot(encoded)
	if err != nil {
		t.Fatalf("expected no error decoding a snapshot with an empty inventory tail: %v", err)
	}
	if len(got.Inventory) != 0 {
		t.Fatalf("expected no inventory slots, got %+v", got.Inventory)
	}
}

func TestSnapshotDecodeRejectsTruncatedInventorySlot(t *testing.T) {
	want := sampleSnapshot()
	want.Inventory = []InventorySlotSnapshot{{ItemID: 1, Amount: 1}}
	encoded := want.Encode()
	// Chop off the last byte of the single inventory slot, leaving 2
	// trailing bytes — short of a full 3-byte slot.
	truncated := encoded[:len(encoded)-1]

	if _, err := DecodeSnapshot(truncated); err == nil {
		t.Fatalf("expected an error decoding a truncated inventory slot")
	}
}

func TestSnapshotAttributeWidthMatchesWorldPackage(t *testing.T) {
	var s CharacterSnapshot
	if len(s.Attributes) != world.AttributeCount {
		t.Fatalf("snapshot attribute width %d must track world.AttributeCount %d", len(s.Attributes), world.AttributeCount)
	}
}
