package world

import "testing"

func newTestCharacter(id int32, classes ItemClassLookup) *Character {
	return &Character{
		CharID:    id,
		Inventory: NewInventory(classes),
		Equipment: &Equipment{},
	}
}

func TestTradeSwapExchangesItemsAndMoneyOnDoubleConfirm(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{1: 99, 2: 99}}
	a := newTestCharacter(1, classes)
	b := newTestCharacter(2, classes)
	a.Inventory.Insert(1, 5)
	a.Money = 100
	b.Inventory.Insert(2, 3)
	b.Money = 50

	StartTrade(a, b)
	if !TradeAddItem(a, b, 1, 5) {
		t.Fatalf("expected a to offer item 1")
	}
	if !TradeSetMoney(a, b, 20) {
		t.Fatalf("expected a to offer money")
	}
	if !TradeAddItem(b, a, 2, 3) {
		t.Fatalf("expected b to offer item 2")
	}

	if completed, ok := TradeConfirm(a, b); completed || !ok {
		t.Fatalf("trade should not complete until both sides confirm")
	}
	completed, ok := TradeConfirm(b, a)
	if !ok || !completed {
		t.Fatalf("trade should complete once both sides confirm")
	}

	if a.Inventory.Total(1) != 0 || a.Inventory.Total(2) != 3 {
		t.Fatalf("expected a to hold item 2, got item1=%d item2=%d", a.Inventory.Total(1), a.Inventory.Total(2))
	}
	if b.Inventory.Total(2) != 0 || b.Inventory.Total(1) != 5 {
		t.Fatalf("expected b to hold item 1, got item1=%d item2=%d", b.Inventory.Total(1), b.Inventory.Total(2))
	}
	if a.Money != 100-20+0 || b.Money != 50-0+20 {
		t.Fatalf("expected money swap, got a=%d b=%d", a.Money, b.Money)
	}
	if a.Tx != nil || b.Tx != nil {
		t.Fatalf("expected both transactions cleared after completion")
	}
}

func TestTradeOfferChangeResetsConfirmation(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{1: 99}}
	a := newTestCharacter(1, classes)
	b := newTestCharacter(2, classes)
	a.Inventory.Insert(1, 5)

	StartTrade(a, b)
	TradeAddItem(a, b, 1, 5)
	if completed, ok := TradeConfirm(a, b); completed || !ok {
		t.Fatalf("unexpected completion with only one side confirmed")
	}
	if a.Tx.State != TxStateConfirmedByMe {
		t.Fatalf("expected a's confirmation to stick")
	}

	// Any offer change resets both sides' confirmation (trade.cpp's
	// "un-confirm on change" rule applies to the whole trade, not just
	// the offering side), so a's earlier confirmation must not survive.
	TradeSetMoney(b, a, 0)
	if a.Tx.State != TxStateRunning {
		t.Fatalf("expected a's stale confirmation to be cleared by b's offer change")
	}
	if completed, _ := TradeConfirm(b, a); completed {
		t.Fatalf("trade must not complete on b's confirm alone after the reset")
	}
	if completed, ok := TradeConfirm(a, b); !ok || !completed {
		t.Fatalf("expected trade to complete once a re-confirms")
	}
}

func TestShopBuyClampsToStockAndAffordability(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{5: 99}}
	c := newTestCharacter(1, classes)
	c.Money = 45

	StartShop(c, false, []ShopEntry{{ItemID: 5, Stock: 3, Cost: 10}})

	bought, ok := ShopBuy(c, 5, 10)
	if !ok {
		t.Fatalf("expected a partial purchase to succeed")
	}
	if bought != 3 {
		t.Fatalf("expected purchase clamped to stock of 3, got %d", bought)
	}
	if c.Money != 15 {
		t.Fatalf("expected 30 spent, got balance %d", c.Money)
	}
	if c.Inventory.Total(5) != 3 {
		t.Fatalf("expected 3 units in inventory, got %d", c.Inventory.Total(5))
	}

	if _, ok := ShopBuy(c, 5, 1); ok {
		t.Fatalf("expected purchase to fail once stock is exhausted")
	}
}

func TestShopSellCreditsMoneyAndRemovesStock(t *testing.T) {
	classes := fakeClassLookup{maxStack: map[int32]int32{5: 99}}
	c := newTestCharacter(1, classes)
	c.Inventory.Insert(5, 4)

	StartShop(c, true, []ShopEntry{{ItemID: 5, Stock: 0, Cost: 7}})

	sold, ok := ShopSell(c, 5, 4)
	if !ok || sold != 4 {
		t.Fatalf("expected to sell all 4 units, got sold=%d ok=%v", sold, ok)
	}
	if c.Money != 28 {
		t.Fatalf("expected 28 credited, got %d", c.Money)
	}
	if c.Inventory.Total(5) != 0 {
		t.Fatalf("expected inventory emptied, got %d", c.Inventory.Total(5))
	}
}
