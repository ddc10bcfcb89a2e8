package ecs

import "testing"

func TestEntityPoolGenerationInvalidatesStaleRef(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	if !p.Alive(a) {
		t.Fatalf("freshly created entity must be alive")
	}
	p.Destroy(a)
	if p.Alive(a) {
		t.Fatalf("destroyed entity must not be alive")
	}

	b := p.Create()
	if b.Index() != a.Index() {
		t.Fatalf("expected index reuse from the free list, got %d want %d", b.Index(), a.Index())
	}
	if b.Generation() == a.Generation() {
		t.Fatalf("expected generation to bump on reuse, both were %d", a.Generation())
	}
	if p.Alive(a) {
		t.Fatalf("stale handle to a recycled index must not read as alive")
	}
	if !p.Alive(b) {
		t.Fatalf("the new handle must be alive")
	}
}

func TestRegistryRemoveAllClearsEveryStore(t *testing.T) {
	type Foo struct{ V int }
	type Bar struct{ V string }

	reg := NewRegistry()
	foos := NewPtrComponentStore[Foo]()
	bars := NewPtrComponentStore[Bar]()
	reg.Register(foos)
	reg.Register(bars)

	id := EntityID(1)
	foos.Set(id, &Foo{V: 1})
	bars.Set(id, &Bar{V: "x"})

	reg.RemoveAll(id)

	if foos.Has(id) || bars.Has(id) {
		t.Fatalf("expected RemoveAll to clear every registered store")
	}
}

func TestWorldFlushDestroyQueue(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()

	w.MarkForDestruction(a)
	w.FlushDestroyQueue()

	if w.Alive(a) {
		t.Fatalf("flushed entity should no longer be alive")
	}
	if !w.Alive(b) {
		t.Fatalf("untouched entity should remain alive")
	}
}

func TestEach2IteratesIntersectionOnly(t *testing.T) {
	type A struct{ V int }
	type B struct{ V int }

	as := NewPtrComponentStore[A]()
	bs := NewPtrComponentStore[B]()

	as.Set(1, &A{V: 1})
	as.Set(2, &A{V: 2})
	bs.Set(2, &B{V: 20})
	bs.Set(3, &B{V: 30})

	var seen []EntityID
	Each2(as, bs, func(id EntityID, a *A, b *B) {
		seen = append(seen, id)
	})

	if len(seen) != 1 || seen[0] != 2 {
		t.Fatalf("expected only entity 2 to have both components, got %v", seen)
	}
}
