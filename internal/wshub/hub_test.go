package wshub

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRegisterAndBroadcast(t *testing.T) {
	h := NewHub()

	c1 := &Client{UserID: "u1", Send: make(chan []byte, 16)}
	c2 := &Client{UserID: "u1", Send: make(chan []byte, 16)}

	h.Register(c1)
	h.Register(c2)

	ok := true
	msg := ServerMessage{Type: "verdict", Square: "e4", Correct: &ok, Score: 3, Attempts: 5}
	h.Broadcast(msg)

	for i, c := range []*Client{c1, c2} {
		select {
		case data := <-c.Send:
			var got ServerMessage
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "verdict" || got.Square != "e4" || got.Correct == nil || !*got.Correct {
				t.Fatalf("client %d unexpected message: %+v", i, got)
			}
			if got.Score != 3 || got.Attempts != 5 {
				t.Fatalf("client %d counters = %d/%d, want 3/5", i, got.Score, got.Attempts)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client %d did not receive message", i)
		}
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub()

	c := &Client{UserID: "u1", Send: make(chan []byte, 16)}
	h.Register(c)
	h.Unregister(c)

	if _, ok := <-c.Send; ok {
		t.Fatal("Send should be closed after Unregister")
	}

	// A second Unregister must not panic.
	h.Unregister(c)
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := NewHub()

	// Channel with capacity 1
	c := &Client{UserID: "u1", Send: make(chan []byte, 1)}
	h.Register(c)

	// Fill the channel
	c.Send <- []byte("filler")

	// This should not block — message dropped
	h.Broadcast(ServerMessage{Type: "target", Square: "d5"})

	// Only the filler should be in the channel
	data := <-c.Send
	if string(data) != "filler" {
		t.Fatalf("expected filler, got: %s", data)
	}

	select {
	case <-c.Send:
		t.Fatal("should be empty after draining filler")
	default:
		// expected
	}
}

func TestCorrectFieldOmittedWhenNil(t *testing.T) {
	data, err := json.Marshal(ServerMessage{Type: "target", Square: "a1"})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, present := raw["ok"]; present {
		t.Error("ok field should be omitted for target messages")
	}
}
