package showcase

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestBusFanOut(t *testing.T) {
	b := NewBus()
	a, err := b.Subscribe("a", 2)
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	c, err := b.Subscribe("c", 1)
	if err != nil {
		t.Fatalf("subscribe c: %v", err)
	}
	if _, err := b.Subscribe("a", 1); !errors.Is(err, ErrSubscriberExists) {
		t.Fatalf("duplicate: got %v", err)
	}

	b.Publish(RotationEvent{Indices: []int{1}})
	b.Publish(RotationEvent{Indices: []int{2}})

	if ev := <-a; ev.Indices[0] != 1 {
		t.Fatalf("a first: %v", ev.Indices)
	}
	if ev := <-c; ev.Indices[0] != 1 {
		t.Fatalf("c first: %v", ev.Indices)
	}

	st, err := b.Stats("c")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Sent != 1 || st.Dropped != 1 {
		t.Fatalf("c stats: %+v", st)
	}
	if b.Published() != 2 {
		t.Fatalf("published: %d", b.Published())
	}
}

func TestBusUnsubscribeAndClose(t *testing.T) {
	b := NewBus()
	a, _ := b.Subscribe("a", 1)
	if err := b.Unsubscribe("a"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if _, ok := <-a; ok {
		t.Fatal("channel not closed on unsubscribe")
	}
	if err := b.Unsubscribe("a"); !errors.Is(err, ErrSubscriberNotFound) {
		t.Fatalf("second unsubscribe: %v", err)
	}

	c, _ := b.Subscribe("c", 1)
	b.Close()
	if _, ok := <-c; ok {
		t.Fatal("channel not closed on bus close")
	}
	if _, err := b.Subscribe("d", 1); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("subscribe after close: %v", err)
	}
	b.Publish(RotationEvent{})
	b.Close()
}

func TestRotationEventWireFormat(t *testing.T) {
	ev := RotationEvent{Indices: []int{4, 0, 2}, RotateInterval: 10 * time.Second, NumberOfCards: 3}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"showcase:rotated","indices":[4,0,2],"rotateInterval":10000,"numberOfCards":3}`
	if string(b) != want {
		t.Fatalf("got %s\nwant %s", b, want)
	}

	var back RotationEvent
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.RotateInterval != 10*time.Second || back.NumberOfCards != 3 || !sameIndices(back.Indices, ev.Indices) {
		t.Fatalf("round trip: %+v", back)
	}
}
