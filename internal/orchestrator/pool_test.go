package orchestrator

import (
	"testing"
	"time"
)

func TestPoolLimit(t *testing.T) {
	pool := NewPool(2)
	deadline := time.Now().Add(time.Minute)

	if !pool.HasSlot() {
		t.Fatal("empty pool has no slot")
	}
	pool.Track("a", deadline)
	pool.Track("b", deadline)
	if pool.HasSlot() {
		t.Error("full pool still offers a slot")
	}

	pool.Release("a")
	if !pool.HasSlot() {
		t.Error("no slot after release")
	}
	if pool.Size() != 1 {
		t.Errorf("Size = %d", pool.Size())
	}
}

func TestPoolUnbounded(t *testing.T) {
	pool := NewPool(0)
	deadline := time.Now()

	for i := 0; i < 100; i++ {
		if !pool.HasSlot() {
			t.Fatalf("unbounded pool refused admission at %d", i)
		}
		pool.Track(string(rune('a'+i%26))+string(rune('0'+i/26)), deadline)
	}
}

func TestPoolNamesSorted(t *testing.T) {
	pool := NewPool(0)
	deadline := time.Now()
	pool.Track("c", deadline)
	pool.Track("a", deadline)
	pool.Track("b", deadline)

	names := pool.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("Names() = %v, want sorted", names)
	}
}

func TestPoolDeadline(t *testing.T) {
	pool := NewPool(1)
	deadline := time.Date(2026, 8, 27, 4, 0, 0, 0, time.UTC)
	pool.Track("a", deadline)

	if !pool.Deadline("a").Equal(deadline) {
		t.Errorf("Deadline = %v", pool.Deadline("a"))
	}
}
