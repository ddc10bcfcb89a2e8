package world

// TxState is a trade or shop transaction's progress toward completion
// (grounded on original_source/src/game-server/trade.cpp's TradeState
// and _examples/thunderbird-esq-the-construct/pkg/trade/trade.go's
// TradeState, both of which reset confirmation on any offer change and
// complete only once both sides have confirmed).
type TxState int

const (
	TxStateRunning TxState = iota
	TxStateConfirmedByMe
)

// TradeItem is one item-class offered into a trade, by item id and
// amount; a short inventory is detected at completion time by checking
// the offering side's total of that item (mirrors trade.cpp's TradedItem).
type TradeItem struct {
	ItemID int32
	Amount int32
}

// ShopEntry is one line of a shop's buy or sell list: an item class,
// the remaining stock (0 means unlimited), and the per-unit price
// (grounded on original_source/src/game-server/buysell.cpp's
// TradedItem list).
type ShopEntry struct {
	ItemID int32
	Stock  int32
	Cost   int32
}

// StartTrade opens a matching pair of trade transactions between two
// characters, replacing anything either side had active (mirrors
// trade.cpp's Trade constructor, minus the wire GPMSG_TRADE_REQUEST
// send, which the caller handles).
func StartTrade(a, b *Character) {
	a.StartTransaction(&Transaction{Kind: TxTrade, PeerCharID: b.CharID})
	b.StartTransaction(&Transaction{Kind: TxTrade, PeerCharID: a.CharID})
}

// TradeAddItem offers amount units of itemID, drawn from the acting
// character's own inventory, into the active trade, clamping to what
// is actually on hand and resetting both sides' confirmation (mirrors
// trade.cpp::addItem, including its "un-confirm on change" rule).
func TradeAddItem(actor, peer *Character, itemID, amount int32) bool {
	if !tradeActive(actor, peer) || amount <= 0 {
		return false
	}
	have := actor.Inventory.Total(itemID)
	if have <= 0 {
		return false
	}
	if amount > have {
		amount = have
	}
	items := actor.Tx.MyItems
	for i := range items {
		if items[i].ItemID == itemID {
			items[i].Amount = amount
			resetTradeConfirmation(actor.Tx, peer.Tx)
			return true
		}
	}
	actor.Tx.MyItems = append(items, TradeItem{ItemID: itemID, Amount: amount})
	resetTradeConfirmation(actor.Tx, peer.Tx)
	return true
}

// TradeSetMoney sets the amount of money the acting character is
// offering, resetting both sides' confirmation (mirrors
// trade.cpp::setMoney).
func TradeSetMoney(actor, peer *Character, amount int32) bool {
	if !tradeActive(actor, peer) || amount < 0 || amount > actor.Money {
		return false
	}
	actor.Tx.MyMoney = amount
	resetTradeConfirmation(actor.Tx, peer.Tx)
	return true
}

// TradeConfirm marks the acting side confirmed. Once both sides have
// confirmed, the offers are validated and swapped atomically; a lie
// about held items or money cancels the whole trade rather than
// partially applying it (mirrors trade.cpp::agree's two-phase
// first-agreer/second-agreer flow and its "cancel both on failure"
// behavior).
func TradeConfirm(actor, peer *Character) (completed bool, ok bool) {
	if !tradeActive(actor, peer) {
		return false, false
	}
	actor.Tx.State = TxStateConfirmedByMe
	if peer.Tx.State != TxStateConfirmedByMe {
		return false, true
	}
	if !performTradeSwap(actor, peer) {
		CancelTrade(actor, peer)
		return false, false
	}
	actor.CancelTransaction()
	peer.CancelTransaction()
	return true, true
}

// CancelTrade clears both sides' transaction (mirrors trade.cpp's
// cancel(), which always tears down both participants together).
func CancelTrade(a, b *Character) {
	a.CancelTransaction()
	if b != nil {
		b.CancelTransaction()
	}
}

func tradeActive(a, b *Character) bool {
	if a == nil || b == nil || a.Tx == nil || b.Tx == nil {
		return false
	}
	return a.Tx.Kind == TxTrade && b.Tx.Kind == TxTrade && a.Tx.PeerCharID == b.CharID && b.Tx.PeerCharID == a.CharID
}

func resetTradeConfirmation(a, b *Transaction) {
	a.State = TxStateRunning
	b.State = TxStateRunning
}

// performTradeSwap validates both sides still hold what they offered,
// then removes and re-inserts every item and adjusts money in one
// pass. Validation happens before any mutation so a short inventory on
// either side aborts cleanly (mirrors trade.cpp::perform's
// id-still-matches check run before any removal).
func performTradeSwap(a, b *Character) bool {
	if a.Money < a.Tx.MyMoney || b.Money < b.Tx.MyMoney {
		return false
	}
	for _, it := range a.Tx.MyItems {
		if a.Inventory.Total(it.ItemID) < it.Amount {
			return false
		}
	}
	for _, it := range b.Tx.MyItems {
		if b.Inventory.Total(it.ItemID) < it.Amount {
			return false
		}
	}
	for _, it := range a.Tx.MyItems {
		a.Inventory.RemoveByID(it.ItemID, it.Amount)
		b.Inventory.Insert(it.ItemID, it.Amount)
	}
	for _, it := range b.Tx.MyItems {
		b.Inventory.RemoveByID(it.ItemID, it.Amount)
		a.Inventory.Insert(it.ItemID, it.Amount)
	}
	a.Money = a.Money - a.Tx.MyMoney + b.Tx.MyMoney
	b.Money = b.Money - b.Tx.MyMoney + a.Tx.MyMoney
	return true
}

// StartShop installs a buy or sell transaction listing the items an
// NPC offers (mirrors buysell.cpp's BuySell constructor plus
// registerItem calls).
func StartShop(c *Character, selling bool, entries []ShopEntry) {
	c.StartTransaction(&Transaction{Kind: TxBuySell, Selling: selling, Shop: entries})
}

// ShopBuy purchases up to amount units of itemID from the character's
// active buy transaction, clamping to remaining stock and to what the
// character can afford, debiting money and inserting items (mirrors
// buysell.cpp::perform's !mSell branch).
func ShopBuy(c *Character, itemID, amount int32) (bought int32, ok bool) {
	tx := c.Tx
	if tx == nil || tx.Kind != TxBuySell || tx.Selling || amount <= 0 {
		return 0, false
	}
	entry := findShopEntry(tx, itemID)
	if entry == nil {
		return 0, false
	}
	want := amount
	if entry.Stock > 0 && want > entry.Stock {
		want = entry.Stock
	}
	if entry.Cost > 0 {
		if afford := c.Money / entry.Cost; want > afford {
			want = afford
		}
	}
	if want <= 0 {
		return 0, false
	}
	leftover := c.Inventory.Insert(itemID, want)
	placed := want - leftover
	if placed <= 0 {
		return 0, false
	}
	c.Money -= placed * entry.Cost
	depleteShopEntry(tx, entry, placed)
	return placed, true
}

// ShopSell sells up to amount units of itemID from the character's
// inventory into the active sell transaction, clamping to what the
// character holds and to remaining stock, crediting money (mirrors
// buysell.cpp::perform's mSell branch).
func ShopSell(c *Character, itemID, amount int32) (sold int32, ok bool) {
	tx := c.Tx
	if tx == nil || tx.Kind != TxBuySell || !tx.Selling || amount <= 0 {
		return 0, false
	}
	entry := findShopEntry(tx, itemID)
	if entry == nil {
		return 0, false
	}
	want := amount
	if have := c.Inventory.Total(itemID); want > have {
		want = have
	}
	if entry.Stock > 0 && want > entry.Stock {
		want = entry.Stock
	}
	if want <= 0 {
		return 0, false
	}
	shortfall := c.Inventory.RemoveByID(itemID, want)
	removed := want - shortfall
	if removed <= 0 {
		return 0, false
	}
	c.Money += removed * entry.Cost
	depleteShopEntry(tx, entry, removed)
	return removed, true
}

func findShopEntry(tx *Transaction, itemID int32) *ShopEntry {
	for i := range tx.Shop {
		if tx.Shop[i].ItemID == itemID {
			return &tx.Shop[i]
		}
	}
	return nil
}

// depleteShopEntry decrements a finite-stock entry and drops it once
// exhausted (mirrors buysell.cpp::perform removing the TradedItem from
// its list when its amount reaches zero).
func depleteShopEntry(tx *Transaction, entry *ShopEntry, n int32) {
	if entry.Stock <= 0 {
		return
	}
	entry.Stock -= n
	if entry.Stock > 0 {
		return
	}
	for i := range tx.Shop {
		if &tx.Shop[i] == entry {
			tx.Shop = append(tx.Shop[:i], tx.Shop[i+1:]...)
			return
		}
	}
}
