package session

import (
	"testing"
	"time"
)

type recordedMatch struct {
	client string
	data   string
}

type fakeHandler struct {
	matched        []recordedMatch
	deletedClients []string
	deletedConnect []string
}

func (h *fakeHandler) DeletePendingClient(c string) { h.deletedClients = append(h.deletedClients, c) }
func (h *fakeHandler) DeletePendingConnect(d string) { h.deletedConnect = append(h.deletedConnect, d) }
func (h *fakeHandler) TokenMatched(c string, d string) {
	h.matched = append(h.matched, recordedMatch{client: c, data: d})
}

// TestTokenCollectorMatchesRegardlessOfArrivalOrder exercises the
// token-uniqueness-within-TTL testable property together with the
// collector's core contract: the same token presented from either side
// first still produces exactly one TokenMatched call.
func TestTokenCollectorMatchesRegardlessOfArrivalOrder(t *testing.T) {
	t.Run("client first", func(t *testing.T) {
		h := &fakeHandler{}
		c := NewTokenCollector[*fakeHandler, string, string](h)
		c.AddPendingClient("tok-1", "client-a")
		c.AddPendingConnect("tok-1", "server-a")
		if len(h.matched) != 1 {
			t.Fatalf("expected exactly one match, got %d", len(h.matched))
		}
		if h.matched[0].client != "client-a" || h.matched[0].data != "server-a" {
			t.Fatalf("unexpected match payload: %+v", h.matched[0])
		}
	})

	t.Run("server first", func(t *testing.T) {
		h := &fakeHandler{}
		c := NewTokenCollector[*fakeHandler, string, string](h)
		c.AddPendingConnect("tok-2", "server-b")
		c.AddPendingClient("tok-2", "client-b")
		if len(h.matched) != 1 {
			t.Fatalf("expected exactly one match, got %d", len(h.matched))
		}
	})
}

func TestTokenCollectorDistinctTokensDoNotCrossMatch(t *testing.T) {
	h := &fakeHandler{}
	c := NewTokenCollector[*fakeHandler, string, string](h)
	c.AddPendingClient("tok-a", "client-a")
	c.AddPendingConnect("tok-b", "server-b")
	if len(h.matched) != 0 {
		t.Fatalf("expected no match between distinct tokens, got %+v", h.matched)
	}
}

func TestTokenCollectorSweepExpiresStaleHalvesOnly(t *testing.T) {
	h := &fakeHandler{}
	c := NewTokenCollector[*fakeHandler, string, string](h)
	c.AddPendingClient("stale", "client-stale")

	time.Sleep(5 * time.Millisecond)
	c.AddPendingClient("fresh", "client-fresh")

	c.Sweep(2 * time.Millisecond)

	if len(h.deletedClients) != 1 || h.deletedClients[0] != "client-stale" {
		t.Fatalf("expected only the stale entry swept, got %+v", h.deletedClients)
	}

	// The fresh entry must still be pending and matchable.
	c.AddPendingConnect("fresh", "server-fresh")
	if len(h.matched) != 1 {
		t.Fatalf("expected the unexpired entry to still be pending and match, got %d matches", len(h.matched))
	}
}

func TestTokenCollectorDeletePendingClientByPredicate(t *testing.T) {
	h := &fakeHandler{}
	c := NewTokenCollector[*fakeHandler, string, string](h)
	c.AddPendingClient("tok", "remove-me")
	c.AddPendingClient("tok2", "keep-me")

	c.DeletePendingClient(func(s string) bool { return s == "remove-me" })

	// "remove-me" should be gone: a matching connect for its token must
	// not fire TokenMatched anymore.
	c.AddPendingConnect("tok", "late-server")
	if len(h.matched) != 0 {
		t.Fatalf("expected the explicitly deleted pending client to be gone, got match %+v", h.matched)
	}

	c.AddPendingConnect("tok2", "server-for-keep")
	if len(h.matched) != 1 || h.matched[0].client != "keep-me" {
		t.Fatalf("expected the untouched pending client to still match, got %+v", h.matched)
	}
}
