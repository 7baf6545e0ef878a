package events

// StateChangeEvent announces a trainer state transition (idle, running,
// finished).
type StateChangeEvent struct {
	State string
}

// TickEvent carries remaining seconds in timed sessions. Ticks are lossy UI
// updates; producers drop them when the channel is full.
type TickEvent struct {
	TimeLeft int
}

type Bus struct {
	StateChanges chan StateChangeEvent
	Ticks        chan TickEvent
}

func NewBus() *Bus {
	return &Bus{
		StateChanges: make(chan StateChangeEvent, 10),
		Ticks:        make(chan TickEvent, 10),
	}
}
