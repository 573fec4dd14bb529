package events

import (
	"testing"
	"time"

	"github.com/TWeb79/appscout/internal/logger"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubFansOutToAllObservers(t *testing.T) {
	h := NewHub(logger.Nop())
	defer h.Stop()

	a := h.Subscribe("a")
	b := h.Subscribe("b")

	h.Emit(New(TypeScanStart, map[string]any{"mode": "quick"}))

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		e := recv(t, ch)
		if e.Type != TypeScanStart {
			t.Errorf("observer %s got type %q, want scan_start", name, e.Type)
		}
		if e.Data["mode"] != "quick" {
			t.Errorf("observer %s got mode %v, want quick", name, e.Data["mode"])
		}
		if e.Timestamp.IsZero() {
			t.Errorf("observer %s got zero timestamp", name)
		}
	}
}

func TestLateObserverMissesEarlierEvents(t *testing.T) {
	h := NewHub(logger.Nop())
	defer h.Stop()

	early := h.Subscribe("early")
	h.Emit(New(TypeAppAdded, nil))
	recv(t, early) // delivered to the connected observer

	late := h.Subscribe("late")
	select {
	case e := <-late:
		t.Errorf("late observer received %q, want nothing (no replay)", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(logger.Nop())
	defer h.Stop()

	ch := h.Subscribe("x")
	h.Unsubscribe("x")

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received event on unsubscribed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Unsubscribe")
	}

	// Emitting with zero observers must not block or panic.
	h.Emit(New(TypeAppRemoved, map[string]any{"id": "1"}))
}

func TestSlowObserverLosesEventsButHubKeepsGoing(t *testing.T) {
	h := NewHub(logger.Nop())
	defer h.Stop()

	slow := h.Subscribe("slow")
	fast := h.Subscribe("fast")

	// Overflow the slow observer's buffer without draining it.
	for i := 0; i < observerBuffer*2; i++ {
		h.Emit(New(TypeHealthUpdate, map[string]any{"n": i}))
		// Keep the fast observer drained so only "slow" backs up.
		recv(t, fast)
	}

	// The slow observer still holds at most a buffer's worth.
	drained := 0
	for {
		select {
		case <-slow:
			drained++
			continue
		default:
		}
		break
	}
	if drained == 0 || drained > observerBuffer {
		t.Errorf("slow observer drained %d events, want 1..%d", drained, observerBuffer)
	}
}

func TestStopClosesAllObservers(t *testing.T) {
	h := NewHub(logger.Nop())
	ch := h.Subscribe("x")
	h.Stop()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received event after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Stop")
	}
}
