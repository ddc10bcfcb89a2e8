package world

// MaxSlots bounds an Inventory's slot count (spec §4.6).
const MaxSlots = 64

// InventorySlot is one (item-class-id, amount) pair. A zero ItemID marks
// an empty slot.
type InventorySlot struct {
	ItemID int32
	Amount int32
}

func (s InventorySlot) Empty() bool { return s.ItemID == 0 || s.Amount == 0 }

// ItemClassLookup resolves an item-class id to its max-stack-per-slot,
// the only Item-Class field the Inventory itself needs to enforce.
type ItemClassLookup interface {
	MaxStack(itemID int32) int32
}

// Inventory is an ordered, slot-bounded list of (item-class-id, amount)
// pairs (spec §4.6).
type Inventory struct {
	Slots   []InventorySlot
	classes ItemClassLookup
}

func NewInventory(classes ItemClassLookup) *Inventory {
	return &Inventory{classes: classes}
}

// Insert fills matching non-full slots in order, then empty slots,
// returning the amount that could not be placed (spec §4.6 insert).
func (inv *Inventory) Insert(itemID, n int32) (leftover int32) {
	leftover = n
	maxStack := inv.classes.MaxStack(itemID)

	for i := range inv.Slots {
		if leftover == 0 {
			return 0
		}
		s := &inv.Slots[i]
		if s.ItemID != itemID || s.Amount >= maxStack {
			continue
		}
		room := maxStack - s.Amount
		take := minInt32(room, leftover)
		s.Amount += take
		leftover -= take
	}

	for leftover > 0 {
		if len(inv.Slots) >= MaxSlots {
			return leftover
		}
		take := minInt32(maxStack, leftover)
		inv.Slots = append(inv.Slots, InventorySlot{ItemID: itemID, Amount: take})
		leftover -= take
	}
	return 0
}

// RemoveByID removes from matching slots in order, returning the amount
// that could not be removed (spec §4.6 remove-by-id).
func (inv *Inventory) RemoveByID(itemID, n int32) (shortfall int32) {
	remaining := n
	for i := range inv.Slots {
		if remaining == 0 {
			break
		}
		s := &inv.Slots[i]
		if s.ItemID != itemID || s.Amount == 0 {
			continue
		}
		take := minInt32(s.Amount, remaining)
		s.Amount -= take
		remaining -= take
		if s.Amount == 0 {
			s.ItemID = 0
		}
	}
	inv.compact()
	return remaining
}

// RemoveBySlot clamps to the slot's amount (spec §4.6 remove-by-slot).
func (inv *Inventory) RemoveBySlot(slot int, n int32) (removed int32) {
	if slot < 0 || slot >= len(inv.Slots) {
		return 0
	}
	s := &inv.Slots[slot]
	removed = minInt32(s.Amount, n)
	s.Amount -= removed
	if s.Amount == 0 {
		s.ItemID = 0
	}
	inv.compact()
	return removed
}

// Total returns the combined amount of an item across all slots.
func (inv *Inventory) Total(itemID int32) int32 {
	var total int32
	for _, s := range inv.Slots {
		if s.ItemID == itemID {
			total += s.Amount
		}
	}
	return total
}

func (inv *Inventory) compact() {
	out := inv.Slots[:0]
	for _, s := range inv.Slots {
		if !s.Empty() {
			out = append(out, s)
		}
	}
	inv.Slots = out
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
