package display

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	d := New(0)

	if d.ID == "" {
		t.Error("expected ID to be set")
	}
	if d.Status() != StatusConnecting {
		t.Errorf("expected connecting, got %s", d.Status())
	}
	if cap(d.queue) != DefaultQueueSize {
		t.Errorf("expected queue size %d, got %d", DefaultQueueSize, cap(d.queue))
	}
}

func TestDisplay_EnqueueDropsOldest(t *testing.T) {
	d := New(2)

	for _, msg := range []string{"a", "b"} {
		if n := d.Enqueue([]byte(msg)); n != 0 {
			t.Fatalf("unexpected drop for %s", msg)
		}
	}
	if n := d.Enqueue([]byte("c")); n != 1 {
		t.Errorf("expected one drop when the queue is full, got %d", n)
	}

	got := []string{string(<-d.Queue()), string(<-d.Queue())}
	if got[0] != "b" || got[1] != "c" {
		t.Errorf("expected [b c], got %v", got)
	}
	if info := d.Info(); info.Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", info.Dropped)
	}
}

func TestDisplay_Close(t *testing.T) {
	d := New(1)
	d.SetActive("front desk")

	d.Close()
	d.Close()

	select {
	case <-d.Closed():
	default:
		t.Fatal("expected closed channel")
	}
	if d.Status() != StatusClosed {
		t.Errorf("expected closed, got %s", d.Status())
	}
	d.Enqueue([]byte("late"))
	if len(d.Queue()) != 0 {
		t.Error("closed display should not queue")
	}
	d.SetActive("again")
	if d.Status() != StatusClosed {
		t.Error("closed display must stay closed")
	}
}

func TestDisplay_Heartbeat(t *testing.T) {
	d := New(1)
	before := d.LastHeartbeat()

	time.Sleep(2 * time.Millisecond)
	d.UpdateHeartbeat()

	if !d.LastHeartbeat().After(before) {
		t.Error("expected heartbeat to advance")
	}
}
