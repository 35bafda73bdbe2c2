package showcase

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// EventRotated is the wire name of a rotation event.
const EventRotated = "showcase:rotated"

var (
	ErrBusClosed          = errors.New("showcase: bus is closed")
	ErrSubscriberExists   = errors.New("showcase: subscriber already exists")
	ErrSubscriberNotFound = errors.New("showcase: subscriber not found")
)

// RotationEvent is published after every completed content swap.
type RotationEvent struct {
	Indices        []int
	RotateInterval time.Duration
	NumberOfCards  int
}

type rotationWire struct {
	Type           string `json:"type"`
	Indices        []int  `json:"indices"`
	RotateInterval int64  `json:"rotateInterval"` // milliseconds
	NumberOfCards  int    `json:"numberOfCards"`
}

func (e RotationEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(rotationWire{
		Type:           EventRotated,
		Indices:        e.Indices,
		RotateInterval: e.RotateInterval.Milliseconds(),
		NumberOfCards:  e.NumberOfCards,
	})
}

func (e *RotationEvent) UnmarshalJSON(b []byte) error {
	var w rotationWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	e.Indices = w.Indices
	e.RotateInterval = time.Duration(w.RotateInterval) * time.Millisecond
	e.NumberOfCards = w.NumberOfCards
	return nil
}

// Publisher receives rotation events.
type Publisher interface {
	Publish(ev RotationEvent)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ev RotationEvent)

func (f PublisherFunc) Publish(ev RotationEvent) { f(ev) }

// BusStats counts deliveries for one subscriber.
type BusStats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

type busSubscriber struct {
	ch      chan RotationEvent
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Bus fans rotation events out to buffered channels. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type Bus struct {
	mu        sync.RWMutex
	subs      map[string]*busSubscriber
	published atomic.Uint64
	closed    bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]*busSubscriber)}
}

func (b *Bus) Subscribe(id string, buffer int) (<-chan RotationEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	if _, exists := b.subs[id]; exists {
		return nil, ErrSubscriberExists
	}
	if buffer < 1 {
		buffer = 1
	}
	s := &busSubscriber{ch: make(chan RotationEvent, buffer)}
	b.subs[id] = s
	return s.ch, nil
}

func (b *Bus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.subs[id]
	if !ok {
		return ErrSubscriberNotFound
	}
	close(s.ch)
	delete(b.subs, id)
	return nil
}

func (b *Bus) Publish(ev RotationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	b.published.Add(1)

	for _, s := range b.subs {
		select {
		case s.ch <- ev:
			s.sent.Add(1)
		default:
			s.dropped.Add(1)
		}
	}
}

func (b *Bus) Stats(id string) (BusStats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.subs[id]
	if !ok {
		return BusStats{}, ErrSubscriberNotFound
	}
	return BusStats{Sent: s.sent.Load(), Dropped: s.dropped.Load()}, nil
}

func (b *Bus) Published() uint64 {
	return b.published.Load()
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		close(s.ch)
		delete(b.subs, id)
	}
}
