package world

import "testing"

type fakeClassLookup struct {
	maxStack map[int32]int32
}

func (f fakeClassLookup) MaxStack(itemID int32) int32 {
	if v, ok := f.maxStack[itemID]; ok {
		return v
	}
	return 1
}

func TestInventoryInsertFillsExistingSlotsBeforeNewOnes(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{100: 10}}
	inv := NewInventory(classes)

	if leftover := inv.Insert(100, 6); leftover != 0 {
		t.Fatalf("expected full insert, leftover %d", leftover)
	}
	if leftover := inv.Insert(100, 3); leftover != 0 {
		t.Fatalf("expected second insert to top up the existing slot, leftover %d", leftover)
	}
	if len(inv.Slots) != 1 || inv.Slots[0].Amount != 9 {
		t.Fatalf("expected one slot holding 9, got %+v", inv.Slots)
	}

	if leftover := inv.Insert(100, 5); leftover != 0 {
		t.Fatalf("expected overflow into a new slot, leftover %d", leftover)
	}
	if len(inv.Slots) != 2 {
		t.Fatalf("expected a second slot once the first filled, got %+v", inv.Slots)
	}
}

func TestInventoryInsertReportsLeftoverWhenSlotsExhausted(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{1: 1}}
	inv := NewInventory(classes)

	// Fill every slot with a distinct, non-stacking item id so the next
	// insert has nowhere to go.
	for i := int32(0); i < MaxSlots; i++ {
		inv.Insert(i+1, 1)
	}
	if len(inv.Slots) != MaxSlots {
		t.Fatalf("expected inventory full at %d slots, got %d", MaxSlots, len(inv.Slots))
	}

	leftover := inv.Insert(9999, 3)
	if leftover != 3 {
		t.Fatalf("expected all 3 units rejected once slots are exhausted, got leftover %d", leftover)
	}
}

// TestInventoryRoundTripConservesTotal exercises the inventory-conservation
// testable property: inserting N units and removing N units back out always
// nets to zero net change in total held, regardless of how many slots the
// stack got split across.
func TestInventoryRoundTripConservesTotal(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{7: 5}}
	inv := NewInventory(classes)

	const itemID = int32(7)
	const n = int32(37)

	if leftover := inv.Insert(itemID, n); leftover != 0 {
		t.Fatalf("expected full insert, leftover %d", leftover)
	}
	if got := inv.Total(itemID); got != n {
		t.Fatalf("expected total %d after insert, got %d", n, got)
	}

	if shortfall := inv.RemoveByID(itemID, n); shortfall != 0 {
		t.Fatalf("expected full removal, shortfall %d", shortfall)
	}
	if got := inv.Total(itemID); got != 0 {
		t.Fatalf("expected total 0 after removing everything inserted, got %d", got)
	}
	if len(inv.Slots) != 0 {
		t.Fatalf("expected emptied slots to be compacted away, got %+v", inv.Slots)
	}
}

func TestInventoryRemoveByIDReportsShortfall(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{1: 99}}
	inv := NewInventory(classes)
	inv.Insert(1, 4)

	shortfall := inv.RemoveByID(1, 10)
	if shortfall != 6 {
		t.Fatalf("expected shortfall of 6 removing more than is held, got %d", shortfall)
	}
	if inv.Total(1) != 0 {
		t.Fatalf("expected every held unit consumed, total %d", inv.Total(1))
	}
}

func TestInventoryRemoveBySlotClampsToAmount(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{1: 99}}
	inv := NewInventory(classes)
	inv.Insert(1, 4)

	removed := inv.RemoveBySlot(0, 10)
	if removed != 4 {
		t.Fatalf("expected removal clamped to the slot's amount (4), got %d", removed)
	}
	if len(inv.Slots) != 0 {
		t.Fatalf("expected the emptied slot compacted away, got %+v", inv.Slots)
	}
}
