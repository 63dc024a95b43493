package uploader

import (
	"testing"
	"time"
)

func TestBackoff_ExponentialSequence(t *testing.T) {
	b := &Backoff{Base: time.Second}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}

	for i, expected := range want {
		if got := b.Next(); got != expected {
			t.Errorf("Next() call %d = %v, want %v", i+1, got, expected)
		}
	}

	if b.Attempt() != len(want) {
		t.Errorf("Attempt() = %d, want %d", b.Attempt(), len(want))
	}
}

func TestBackoff_CappedAtMax(t *testing.T) {
	b := &Backoff{Base: time.Second, Max: 5 * time.Second}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}

	for i, expected := range want {
		if got := b.Next(); got != expected {
			t.Errorf("Next() call %d = %v, want %v", i+1, got, expected)
		}
	}
}

func TestBackoff_ZeroBaseDefaultsToOneSecond(t *testing.T) {
	b := &Backoff{}

	if got := b.Next(); got != time.Second {
		t.Errorf("Next() = %v, want %v", got, time.Second)
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := &Backoff{Base: time.Second}

	b.Next()
	b.Next()
	b.Reset()

	if b.Attempt() != 0 {
		t.Errorf("Attempt() after Reset = %d, want 0", b.Attempt())
	}
	if got := b.Next(); got != time.Second {
		t.Errorf("Next() after Reset = %v, want %v", got, time.Second)
	}
}

func TestBackoff_NoOverflowOnManyAttempts(t *testing.T) {
	b := &Backoff{Base: time.Second, Max: time.Minute}

	var last time.Duration
	for i := 0; i < 100; i++ {
		last = b.Next()
		if last <= 0 {
			t.Fatalf("Next() call %d = %v, must stay positive", i+1, last)
		}
	}
	if last != time.Minute {
		t.Errorf("final delay = %v, want %v", last, time.Minute)
	}
}
