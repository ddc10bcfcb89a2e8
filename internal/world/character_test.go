package world

import "testing"

// TestStartTransactionIsExclusive exercises the transaction-exclusion
// testable property: a Character can have at most one active transaction
// at a time, and starting a new one always supersedes whatever was active
// rather than merging with it.
func TestStartTransactionIsExclusive(t *testing.T) {
	c := &Character{}
	if c.Tx != nil {
		t.Fatalf("expected no active transaction initially")
	}

	first := &Transaction{Kind: TxTrade, PeerCharID: 10}
	c.StartTransaction(first)
	if c.Tx != first {
		t.Fatalf("expected the first transaction installed")
	}

	second := &Transaction{Kind: TxBuySell}
	c.StartTransaction(second)
	if c.Tx != second {
		t.Fatalf("expected starting a new transaction to replace the old one")
	}
	if c.Tx == first {
		t.Fatalf("the superseded transaction must not remain active")
	}

	c.CancelTransaction()
	if c.Tx != nil {
		t.Fatalf("expected no active transaction after cancel")
	}
}
