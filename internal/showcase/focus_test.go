package showcase

import (
	"context"
	"testing"
	"time"
)

type focusFixture struct {
	clock *manualClock
	gate  *gate
	board *Board
	focus *FocusCycle
}

func newFocusFixture(slots int) *focusFixture {
	f := &focusFixture{clock: &manualClock{}, gate: &gate{}, board: NewBoard(slots)}
	f.focus = NewFocusCycle(Config{Slots: slots}, f.board, FocusOptions{Clock: f.clock, Gate: f.gate})
	return f
}

func TestStepDuration(t *testing.T) {
	tests := []struct {
		period time.Duration
		n      int
		want   time.Duration
	}{
		{6 * time.Second, 3, 2 * time.Second},
		{10 * time.Second, 3, 3333 * time.Millisecond},
		{900 * time.Millisecond, 3, 400 * time.Millisecond},
		{5 * time.Second, 0, 5 * time.Second},
		{1001 * time.Millisecond, 2, 501 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := StepDuration(tt.period, tt.n, DefaultMinStep); got != tt.want {
			t.Errorf("StepDuration(%s, %d) = %s, want %s", tt.period, tt.n, got, tt.want)
		}
	}
}

func TestFocusCycleFollowsRotationPeriod(t *testing.T) {
	f := newFocusFixture(3)
	f.focus.Resync(RotationEvent{Indices: []int{0, 1, 2}, RotateInterval: 6 * time.Second, NumberOfCards: 3})

	if got := f.focus.Stats().Step; got != 2*time.Second {
		t.Fatalf("step: got %s, want 2s", got)
	}
	if got := f.board.Focused(); got != 0 {
		t.Fatalf("t=0: focused %d, want 0", got)
	}
	for i, s := range f.board.Snapshot().Slots {
		if i != 0 && s.Mark != MarkDimmed {
			t.Fatalf("t=0: slot %d mark %s, want dimmed", i, s.Mark)
		}
	}

	f.clock.Advance(1999 * time.Millisecond)
	if got := f.board.Focused(); got != 0 {
		t.Fatalf("t=1999ms: focused %d, want 0", got)
	}
	f.clock.Advance(time.Millisecond)
	if got := f.board.Focused(); got != 1 {
		t.Fatalf("t=2s: focused %d, want 1", got)
	}
	f.clock.Advance(2 * time.Second)
	if got := f.board.Focused(); got != 2 {
		t.Fatalf("t=4s: focused %d, want 2", got)
	}

	f.clock.Advance(2*time.Second + 50*time.Millisecond)
	if f.focus.Stats().Stepping {
		t.Fatal("t=6050ms: cycle still stepping")
	}
	steps := f.focus.Stats().Steps
	f.clock.Advance(30 * time.Second)
	if got := f.focus.Stats().Steps; got != steps {
		t.Fatalf("steps advanced after expiry: %d -> %d", steps, got)
	}
}

func TestFocusCycleDefaultPeriodOnZeroInterval(t *testing.T) {
	f := newFocusFixture(3)
	f.focus.Resync(RotationEvent{})
	if got := f.focus.Stats().Step; got != 3333*time.Millisecond {
		t.Fatalf("step: got %s", got)
	}
}

func TestFocusCyclePauseAndResume(t *testing.T) {
	f := newFocusFixture(3)
	f.focus.StartCycle(6 * time.Second)
	f.clock.Advance(100 * time.Millisecond)

	f.focus.PointerEnter(2)
	st := f.focus.Stats()
	if !st.Paused || st.Stepping {
		t.Fatalf("after enter: %+v", st)
	}
	// hover highlight follows the pointer
	if got := f.board.Focused(); got != 2 {
		t.Fatalf("hover: focused %d, want 2", got)
	}
	f.clock.Advance(20 * time.Second)
	if got := f.board.Focused(); got != 2 {
		t.Fatalf("paused walk moved focus to %d", got)
	}

	f.focus.PointerLeave(2)
	if got := f.board.Focused(); got != -1 {
		t.Fatalf("after leave: focused %d, want none", got)
	}
	f.clock.Advance(DefaultResumeDelay - time.Millisecond)
	if f.focus.Stats().Stepping {
		t.Fatal("resumed before the settle delay")
	}
	f.clock.Advance(time.Millisecond)
	if got := f.board.Focused(); got != 0 {
		t.Fatalf("after resume: focused %d, want 0", got)
	}
	if st := f.focus.Stats(); !st.Stepping || st.Paused {
		t.Fatalf("after resume: %+v", st)
	}
}

func TestFocusCycleRepeatedHoverSuppressesStaleResume(t *testing.T) {
	f := newFocusFixture(3)
	f.focus.Start()
	cycles := f.focus.Stats().Cycles

	f.focus.PointerEnter(0)
	f.focus.PointerLeave(0)
	f.clock.Advance(300 * time.Millisecond)
	f.focus.FocusIn(1)
	// the first resume would have fired at 600ms
	f.clock.Advance(400 * time.Millisecond)
	if st := f.focus.Stats(); !st.Paused || st.Cycles != cycles {
		t.Fatalf("stale resume restarted the cycle: %+v", st)
	}

	f.focus.FocusOut(1)
	f.clock.Advance(DefaultResumeDelay)
	if st := f.focus.Stats(); st.Paused || st.Cycles != cycles+1 {
		t.Fatalf("resume: %+v", st)
	}
}

func TestFocusCycleRespectsOverlay(t *testing.T) {
	f := newFocusFixture(3)
	f.gate.set(true)
	f.focus.StartCycle(3 * time.Second)
	if got := f.board.Focused(); got != -1 {
		t.Fatalf("focused %d under overlay", got)
	}
	f.clock.Advance(time.Second)
	if got := f.board.Focused(); got != -1 {
		t.Fatalf("step focused %d under overlay", got)
	}

	f.gate.set(false)
	f.clock.Advance(time.Second)
	if got := f.board.Focused(); got != 2 {
		t.Fatalf("after overlay closed: focused %d, want 2", got)
	}

	f.gate.set(true)
	f.focus.PointerEnter(1)
	if got := f.board.Focused(); got != 2 {
		t.Fatalf("hover highlight applied under overlay: focused %d", got)
	}
}

func TestFocusCycleOverlayDismissedRestarts(t *testing.T) {
	f := newFocusFixture(3)
	f.focus.StartCycle(3 * time.Second)
	f.clock.Advance(2 * time.Second)
	if got := f.board.Focused(); got != 2 {
		t.Fatalf("focused %d, want 2", got)
	}
	f.focus.ClearMarks()
	if got := f.board.Focused(); got != -1 {
		t.Fatalf("marks not cleared: %d", got)
	}

	f.focus.OverlayDismissed()
	if got := f.board.Focused(); got != 0 {
		t.Fatalf("after dismiss: focused %d, want 0", got)
	}
	if st := f.focus.Stats(); st.Step != 3333*time.Millisecond {
		t.Fatalf("dismiss restarted with step %s", st.Step)
	}
}

func TestFocusCycleFollow(t *testing.T) {
	f := newFocusFixture(3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan RotationEvent, 1)
	done := make(chan struct{})
	go func() {
		f.focus.Follow(ctx, ch)
		close(done)
	}()

	ch <- RotationEvent{RotateInterval: 6 * time.Second, NumberOfCards: 3}
	waitFor(t, "resync", func() bool { return f.focus.Stats().Cycles == 1 })

	close(ch)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not return after channel close")
	}
}

func TestFocusCycleStop(t *testing.T) {
	f := newFocusFixture(3)
	f.focus.Start()
	f.focus.PointerLeave(0)
	f.focus.Stop()
	cycles := f.focus.Stats().Cycles

	f.clock.Advance(time.Minute)
	if st := f.focus.Stats(); st.Stepping || st.Cycles != cycles {
		t.Fatalf("after stop: %+v", st)
	}
}
