package events

import (
	"testing"
	"time"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if bus.StateChanges == nil {
		t.Fatal("StateChanges channel is nil")
	}
	if bus.Ticks == nil {
		t.Fatal("Ticks channel is nil")
	}
}

func TestBus_SendReceive(t *testing.T) {
	bus := NewBus()
	ev := StateChangeEvent{State: "running"}

	go func() {
		bus.StateChanges <- ev
	}()

	select {
	case received := <-bus.StateChanges:
		if received.State != "running" {
			t.Errorf("received State = %q, want %q", received.State, "running")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_Buffered(t *testing.T) {
	bus := NewBus()

	// Should be able to send up to 10 without blocking
	for i := 0; i < 10; i++ {
		bus.StateChanges <- StateChangeEvent{State: "running"}
		bus.Ticks <- TickEvent{TimeLeft: i}
	}

	// Drain
	for i := 0; i < 10; i++ {
		<-bus.StateChanges
		<-bus.Ticks
	}
}
