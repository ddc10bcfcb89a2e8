package persist

import (
	"fmt"

	"github.com/embervale/worldserver/internal/net/packet"
	"github.com/embervale/worldserver/internal/world"
)

// InventorySlotSnapshot is one (item-class-id, amount) pair in declared
// slot order.
type InventorySlotSnapshot struct {
	ItemID int16
	Amount byte
}

// CharacterSnapshot is the canonical byte-for-byte representation of a
// character shared between the Broker and a runtime (spec §6 "Character
// snapshot"), and the exact form persisted in characters.snapshot.
type CharacterSnapshot struct {
	AccountLevel     byte
	Gender           byte
	HairStyle        byte
	HairColor        byte
	Level            int16
	CharacterPoints  int16
	CorrectionPoints int16
	Attributes       [world.AttributeCount]byte
	SkillExp         [world.SkillCount]int32
	MapID            int16
	X, Y             int16
	Money            int32
	Equipment        [world.EquipSlotCount]int16
	Inventory        []InventorySlotSnapshot
}

// Encode serializes the snapshot to its canonical byte layout. Order is
// fixed by spec §6 and must never change without a migration: account
// level, gender, hair style/color, level, character/correction points,
// attributes in enumerated order, per-skill experience, map id, x, y,
// money, equipment slots in declared order, then a repeating
// (item-id, amount) inventory tail.
func (s *CharacterSnapshot) Encode() []byte {
	w := packet.NewWriter()
	w.WriteByte(s.AccountLevel)
	w.WriteByte(s.Gender)
	w.WriteByte(s.HairStyle)
	w.WriteByte(s.HairColor)
	w.WriteUint16(uint16(s.Level))
	w.WriteUint16(uint16(s.CharacterPoints))
	w.WriteUint16(uint16(s.CorrectionPoints))
	for _, a := range s.Attributes {
		w.WriteByte(a)
	}
	for _, e := range s.SkillExp {
		w.WriteInt32(e)
	}
	w.WriteUint16(uint16(s.MapID))
	w.WriteUint16(uint16(s.X))
	w.WriteUint16(uint16(s.Y))
	w.WriteInt32(s.Money)
	for _, itemID := range s.Equipment {
		w.WriteUint16(uint16(itemID))
	}
	for _, slot := range s.Inventory {
		w.WriteUint16(uint16(slot.ItemID))
		w.WriteByte(slot.Amount)
	}
	return w.Bytes()
}

// DecodeSnapshot parses the canonical byte layout. The inventory tail is
// read as whole 3-byte slots until none remain, so an empty or missing
// tail decodes fine (spec §6: "the reader must be tolerant of trailing
// inventory"); 1 or 2 leftover bytes (a truncated slot) are an error.
func DecodeSnapshot(data []byte) (*CharacterSnapshot, error) {
	r := packet.NewReader(data)
	var s CharacterSnapshot

	s.AccountLevel = r.ReadByte()
	s.Gender = r.ReadByte()
	s.HairStyle = r.ReadByte()
	s.HairColor = r.ReadByte()
	s.Level = int16(r.ReadUint16())
	s.CharacterPoints = int16(r.ReadUint16())
	s.CorrectionPoints = int16(r.ReadUint16())

	for i := range s.Attributes {
		s.Attributes[i] = r.ReadByte()
	}
	for i := range s.SkillExp {
		s.SkillExp[i] = r.ReadInt32()
	}

	s.MapID = int16(r.ReadUint16())
	s.X = int16(r.ReadUint16())
	s.Y = int16(r.ReadUint16())
	s.Money = r.ReadInt32()

	for i := range s.Equipment {
		s.Equipment[i] = int16(r.ReadUint16())
	}

	for r.Remaining() >= 3 {
		itemID := int16(r.ReadUint16())
		amount := r.ReadByte()
		s.Inventory = append(s.Inventory, InventorySlotSnapshot{ItemID: itemID, Amount: amount})
	}

	if r.Remaining() != 0 {
		return nil, fmt.Errorf("decode snapshot: %d trailing bytes short of a full inventory slot", r.Remaining())
	}
	return &s, nil
}
