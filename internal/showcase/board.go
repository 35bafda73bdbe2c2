package showcase

import (
	"fmt"
	"sync"
)

// Mark is the focus highlight of a slot.
type Mark int

const (
	MarkNone Mark = iota
	MarkFocused
	MarkDimmed
)

func (m Mark) String() string {
	switch m {
	case MarkFocused:
		return "focused"
	case MarkDimmed:
		return "dimmed"
	default:
		return "none"
	}
}

func (m Mark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mark) UnmarshalText(b []byte) error {
	switch string(b) {
	case "focused":
		*m = MarkFocused
	case "dimmed":
		*m = MarkDimmed
	case "none", "":
		*m = MarkNone
	default:
		return fmt.Errorf("unknown mark %q", b)
	}
	return nil
}

// Slot is one visible card. Index is -1 until the first rotation lands.
type Slot struct {
	Index         int    `json:"index"`
	Src           string `json:"src"`
	Alt           string `json:"alt"`
	Desc          string `json:"desc"`
	Mark          Mark   `json:"mark"`
	Transitioning bool   `json:"transitioning"`

	gen uint64
}

// Snapshot is a copy of the board at a version.
type Snapshot struct {
	Version uint64 `json:"version"`
	Slots   []Slot `json:"slots"`
}

// Board holds the display slots. Content is written by the Rotator and
// marks by the FocusCycle; neither touches the other's fields.
type Board struct {
	mu       sync.Mutex
	slots    []Slot
	version  uint64
	onChange func(Snapshot)
}

func NewBoard(n int) *Board {
	slots := make([]Slot, n)
	for i := range slots {
		slots[i].Index = -1
	}
	return &Board{slots: slots}
}

// OnChange registers fn to receive a snapshot after every mutation.
// fn runs outside the board lock.
func (b *Board) OnChange(fn func(Snapshot)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}

func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() Snapshot {
	return Snapshot{Version: b.version, Slots: append([]Slot(nil), b.slots...)}
}

// mutate runs fn under the lock and notifies the listener when fn reports a change.
func (b *Board) mutate(fn func() bool) bool {
	b.mu.Lock()
	if !fn() {
		b.mu.Unlock()
		return false
	}
	b.version++
	snap := b.snapshotLocked()
	notify := b.onChange
	b.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
	return true
}

// SetTransitioning flags every slot as fading (or not).
func (b *Board) SetTransitioning(on bool) {
	b.mutate(func() bool {
		changed := false
		for i := range b.slots {
			if b.slots[i].Transitioning != on {
				b.slots[i].Transitioning = on
				changed = true
			}
		}
		return changed
	})
}

// Assign points slot i at a manifest index and updates its description.
// The returned generation must be passed to SetImage.
func (b *Board) Assign(i, index int, desc string) uint64 {
	var gen uint64
	b.mutate(func() bool {
		if i < 0 || i >= len(b.slots) {
			return false
		}
		s := &b.slots[i]
		s.gen++
		s.Index = index
		s.Desc = desc
		gen = s.gen
		return true
	})
	return gen
}

// SetImage swaps the visible image of slot i if no newer Assign happened.
func (b *Board) SetImage(i int, gen uint64, src, alt string) bool {
	return b.mutate(func() bool {
		if i < 0 || i >= len(b.slots) || b.slots[i].gen != gen {
			return false
		}
		b.slots[i].Src = src
		b.slots[i].Alt = alt
		return true
	})
}

// Focus marks slot i focused and every other slot dimmed.
func (b *Board) Focus(i int) {
	b.mutate(func() bool {
		if i < 0 || i >= len(b.slots) {
			return false
		}
		changed := false
		for j := range b.slots {
			want := MarkDimmed
			if j == i {
				want = MarkFocused
			}
			if b.slots[j].Mark != want {
				b.slots[j].Mark = want
				changed = true
			}
		}
		return changed
	})
}

func (b *Board) ClearMarks() {
	b.mutate(func() bool {
		changed := false
		for j := range b.slots {
			if b.slots[j].Mark != MarkNone {
				b.slots[j].Mark = MarkNone
				changed = true
			}
		}
		return changed
	})
}

// Focused returns the focused slot, or -1.
func (b *Board) Focused() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.slots {
		if s.Mark == MarkFocused {
			return i
		}
	}
	return -1
}
