package uploader

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestInFlightSet_TryAddClaimsOnce(t *testing.T) {
	s := NewInFlightSet()

	if !s.TryAdd("/books/a.m4b") {
		t.Fatal("first TryAdd should succeed")
	}
	if s.TryAdd("/books/a.m4b") {
		t.Fatal("second TryAdd for the same path should fail")
	}
	if !s.Contains("/books/a.m4b") {
		t.Error("Contains should report a claimed path")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestInFlightSet_RemoveReleases(t *testing.T) {
	s := NewInFlightSet()

	s.TryAdd("/books/a.m4b")
	s.Remove("/books/a.m4b")

	if s.Contains("/books/a.m4b") {
		t.Error("Contains should be false after Remove")
	}
	if !s.TryAdd("/books/a.m4b") {
		t.Error("TryAdd should succeed after Remove")
	}
}

func TestInFlightSet_RemoveUnknownIsNoop(t *testing.T) {
	s := NewInFlightSet()
	s.Remove("/books/never-added.m4b")

	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestInFlightSet_ConcurrentClaimsExactlyOneWinner(t *testing.T) {
	s := NewInFlightSet()

	const goroutines = 50
	var wins int32
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryAdd("/books/contested.m4b") {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
}
