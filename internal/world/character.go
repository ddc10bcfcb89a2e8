package world

// DefaultCharacterSpeed is the ms-per-tile walking speed assigned to a
// newly admitted or warped character until equipment or a buff modifier
// changes it (spec §4.2 "speed ... ms/tile").
const DefaultCharacterSpeed int32 = 300

// TxKind distinguishes a Character's mutually-exclusive transaction
// kinds (spec §3 Character invariant 8).
type TxKind int

const (
	TxNone TxKind = iota
	TxTrade
	TxBuySell
)

// Transaction is the handle a Character carries while trading or
// shopping; starting a new one cancels whatever was active (spec §3).
type Transaction struct {
	Kind       TxKind
	PeerCharID int32 // trade: the other character; buy/sell: 0

	// Deprecated fields kept for snapshot compatibility; superseded by
	// State/MyItems/MyMoney below (internal/world/transaction.go).
	OfferedItems  []InventorySlot
	OfferedMoney  int32
	Confirmed     bool
	PeerConfirmed bool

	// Trade state (TxTrade): the acting side's own offer and whether it
	// has confirmed since the offer last changed.
	State   TxState
	MyItems []TradeItem
	MyMoney int32

	// Shop state (TxBuySell): whether the character is selling to or
	// buying from the NPC, and the NPC's remaining stock/price list.
	Selling bool
	Shop    []ShopEntry
}

// Character is a Being owned by a connected client (spec §3 Character).
type Character struct {
	CharID           int32
	AccountID        int32
	Name             string
	AccountLevel     byte
	Gender           byte
	HairStyle        byte
	HairColor        byte
	Level            int16
	SkillExp         [SkillCount]int32
	CharacterPoints  int16
	CorrectionPoints int16

	Inventory *Inventory
	Equipment *Equipment
	Money     int32
	MapID     int32

	Tx *Transaction

	QuestVars map[string]string
}

// StartTransaction cancels any active transaction and installs a new
// one (spec §3 Character invariant).
func (c *Character) StartTransaction(tx *Transaction) {
	c.Tx = tx
}

// CancelTransaction clears the active transaction, e.g. on disconnect,
// map change, or timeout (spec §5 "Cancellation & timeouts").
func (c *Character) CancelTransaction() {
	c.Tx = nil
}
