package eventbus

import (
	"testing"
	"time"
)

func recvOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func TestPublishFanout(t *testing.T) {
	b := New()

	ch1, unsub1 := b.Subscribe(1)
	defer unsub1()
	ch2, unsub2 := b.Subscribe(1)
	defer unsub2()

	b.Publish(Event{Type: TypeRoomCreated, Data: int64(42)})

	for i, ch := range []<-chan Event{ch1, ch2} {
		e := recvOne(t, ch)
		if e.Type != TypeRoomCreated {
			t.Fatalf("sub %d: got type %q, want %q", i, e.Type, TypeRoomCreated)
		}
		if got, _ := e.Data.(int64); got != 42 {
			t.Fatalf("sub %d: got data %v, want 42", i, e.Data)
		}
		if e.Time.IsZero() {
			t.Fatalf("sub %d: expected publish to stamp time", i)
		}
	}
}

func TestSubscribeTypeFilter(t *testing.T) {
	b := New()

	ch, unsub := b.Subscribe(4, TypeScheduleReload)
	defer unsub()

	b.Publish(Event{Type: TypeRoomCreated})
	b.Publish(Event{Type: TypeScheduleReload})

	e := recvOne(t, ch)
	if e.Type != TypeScheduleReload {
		t.Fatalf("got type %q, want %q", e.Type, TypeScheduleReload)
	}
	select {
	case e := <-ch:
		t.Fatalf("unexpected extra event %q", e.Type)
	default:
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := New()

	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Type: "a"})
	b.Publish(Event{Type: "b"}) // buffer full, must not block

	e := recvOne(t, ch)
	if e.Type != "a" {
		t.Fatalf("got %q, want oldest event %q", e.Type, "a")
	}
	select {
	case e := <-ch:
		t.Fatalf("second event should have been dropped, got %q", e.Type)
	default:
	}
}

func TestPublishAfterUnsubscribe(t *testing.T) {
	b := New()

	_, unsub := b.Subscribe(1)
	unsub()
	unsub() // idempotent

	// Must not panic even though the channel is closed.
	b.Publish(Event{Type: "x"})
}
