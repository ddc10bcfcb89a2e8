package world

import "testing"

// TestEquipUnequipRoundTrip exercises the equip round-trip testable
// property: equipping an item from an inventory slot and then unequipping
// it must restore the inventory to an equivalent state (same item, same
// amount), regardless of which inventory slot it lands back in.
func TestEquipUnequipRoundTrip(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{500: 1}}
	inv := NewInventory(classes)
	inv.Insert(500, 1)
	eq := &Equipment{}

	if err := Equip(inv, eq, 0, 500, EquipCategoryTorso); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if inv.Total(500) != 0 {
		t.Fatalf("expected item removed from inventory once equipped, total %d", inv.Total(500))
	}
	if eq.Slots[EquipTorso].ItemID != 500 {
		t.Fatalf("expected torso slot to hold item 500, got %+v", eq.Slots[EquipTorso])
	}

	if err := Unequip(inv, eq, EquipTorso); err != nil {
		t.Fatalf("unequip: %v", err)
	}
	if !eq.Slots[EquipTorso].Empty() {
		t.Fatalf("expected torso slot empty after unequip, got %+v", eq.Slots[EquipTorso])
	}
	if inv.Total(500) != 1 {
		t.Fatalf("expected the single unit back in inventory, total %d", inv.Total(500))
	}
}

func TestEquipPairedSlotPrefersEmptySlotFirst(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{1: 1, 2: 1}}
	inv := NewInventory(classes)
	inv.Insert(1, 1)
	inv.Insert(2, 1)
	eq := &Equipment{}

	if err := Equip(inv, eq, 0, 1, EquipCategoryRing); err != nil {
		t.Fatalf("equip ring 1: %v", err)
	}
	if eq.Slots[EquipRing1].ItemID != 1 {
		t.Fatalf("expected first ring in slot 1, got %+v", eq.Slots[EquipRing1])
	}

	if err := Equip(inv, eq, 0, 2, EquipCategoryRing); err != nil {
		t.Fatalf("equip ring 2: %v", err)
	}
	if eq.Slots[EquipRing2].ItemID != 2 {
		t.Fatalf("expected second ring in slot 2 since slot 1 was occupied, got %+v", eq.Slots[EquipRing2])
	}
}

func TestEquipPairedSlotReplacesSlotOneWhenBothFull(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{1: 1, 2: 1, 3: 1}}
	inv := NewInventory(classes)
	inv.Insert(1, 1)
	inv.Insert(2, 1)
	inv.Insert(3, 1)
	eq := &Equipment{}

	if err := Equip(inv, eq, 0, 1, EquipCategoryRing); err != nil {
		t.Fatalf("equip ring 1: %v", err)
	}
	if err := Equip(inv, eq, 0, 2, EquipCategoryRing); err != nil {
		t.Fatalf("equip ring 2: %v", err)
	}
	// Both ring slots full; a third equip displaces ring 1 back to inventory.
	slot := findSlot(inv, 3)
	if err := Equip(inv, eq, slot, 3, EquipCategoryRing); err != nil {
		t.Fatalf("equip ring 3: %v", err)
	}
	if eq.Slots[EquipRing1].ItemID != 3 {
		t.Fatalf("expected the third ring to replace slot 1, got %+v", eq.Slots[EquipRing1])
	}
	if inv.Total(1) != 1 {
		t.Fatalf("expected the displaced first ring back in inventory, total %d", inv.Total(1))
	}
}

func TestEquipTwoHandedWeaponClearsBothWeaponSlots(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{1: 1, 2: 1}}
	inv := NewInventory(classes)
	inv.Insert(1, 1)
	inv.Insert(2, 1)
	eq := &Equipment{}

	if err := Equip(inv, eq, 0, 1, EquipCategoryWeaponOneHand); err != nil {
		t.Fatalf("equip one-hand: %v", err)
	}
	slot := findSlot(inv, 2)
	if err := Equip(inv, eq, slot, 2, EquipCategoryWeaponTwoHand); err != nil {
		t.Fatalf("equip two-hand: %v", err)
	}
	if eq.Slots[EquipWeapon1].ItemID != 2 {
		t.Fatalf("expected the two-handed weapon in slot 1, got %+v", eq.Slots[EquipWeapon1])
	}
	if !eq.Slots[EquipWeapon2].Empty() {
		t.Fatalf("expected weapon slot 2 cleared by the two-handed equip, got %+v", eq.Slots[EquipWeapon2])
	}
	if inv.Total(1) != 1 {
		t.Fatalf("expected the displaced one-handed weapon back in inventory, total %d", inv.Total(1))
	}
}

func TestUnequipEmptySlotIsNoop(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{}}
	inv := NewInventory(classes)
	eq := &Equipment{}

	if err := Unequip(inv, eq, EquipHead); err != nil {
		t.Fatalf("expected unequipping an empty slot to be a no-op, got %v", err)
	}
	if len(inv.Slots) != 0 {
		t.Fatalf("expected inventory untouched, got %+v", inv.Slots)
	}
}

func findSlot(inv *Inventory, itemID int32) int {
	for i, s := range inv.Slots {
		if s.ItemID == itemID {
			return i
		}
	}
	return -1
}
