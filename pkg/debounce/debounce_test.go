package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerCoalescesLastWins(t *testing.T) {
	d := New(30 * time.Millisecond)
	defer d.Stop()

	var got atomic.Int64
	for i := 1; i <= 5; i++ {
		value := int64(i)
		d.Trigger("notes", func() { got.Store(value) })
	}

	time.Sleep(100 * time.Millisecond)
	if got.Load() != 5 {
		t.Fatalf("expected only the last call to run, got %d", got.Load())
	}
}

func TestTriggerKeysAreIndependent(t *testing.T) {
	d := New(20 * time.Millisecond)
	defer d.Stop()

	var a, b atomic.Int64
	d.Trigger("leaderNotes", func() { a.Add(1) })
	d.Trigger("vendorNotes", func() { b.Add(1) })

	time.Sleep(80 * time.Millisecond)
	if a.Load() != 1 || b.Load() != 1 {
		t.Fatalf("expected one run per key, got %d and %d", a.Load(), b.Load())
	}
}

func TestFlushRunsPendingNow(t *testing.T) {
	d := New(time.Hour)
	defer d.Stop()

	var ran atomic.Int64
	d.Trigger("notes", func() { ran.Add(1) })
	d.Flush()

	if ran.Load() != 1 {
		t.Fatalf("flush must run the pending call, got %d", ran.Load())
	}

	// The original timer must not fire the call a second time.
	time.Sleep(20 * time.Millisecond)
	if ran.Load() != 1 {
		t.Fatalf("call ran twice after flush")
	}
}

func TestStopDropsPendingAndRejectsNew(t *testing.T) {
	d := New(10 * time.Millisecond)

	var ran atomic.Int64
	d.Trigger("notes", func() { ran.Add(1) })
	d.Stop()
	d.Trigger("notes", func() { ran.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if ran.Load() != 0 {
		t.Fatalf("stopped debouncer must not run anything, got %d", ran.Load())
	}
}
