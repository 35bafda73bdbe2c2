package showcase

import (
	"testing"
	"time"
)

func newModalsFixture() (*manualClock, *Board, *Modals) {
	clock := &manualClock{}
	board := NewBoard(3)
	for i := 0; i < 3; i++ {
		gen := board.Assign(i, i, "desc")
		board.SetImage(i, gen, string(rune('a'+i))+".jpg", "alt")
	}
	return clock, board, NewModals(board, clock, DefaultClickDelay)
}

func TestModalsSingleClickOpensSpotlight(t *testing.T) {
	clock, _, m := newModalsFixture()
	opened := 0
	m.OnOpen(func() { opened++ })

	m.Click(1)
	clock.Advance(DefaultClickDelay - time.Millisecond)
	if m.OverlayOpen() {
		t.Fatal("spotlight opened before the click delay")
	}
	clock.Advance(time.Millisecond)
	st := m.State()
	if !st.Spotlight.Shown || st.Spotlight.Slot != 1 || st.Spotlight.Src != "b.jpg" {
		t.Fatalf("spotlight: %+v", st.Spotlight)
	}
	if st.Lightbox.Shown {
		t.Fatal("lightbox opened on single click")
	}
	if opened != 1 {
		t.Fatalf("open hook: got %d calls", opened)
	}
}

func TestModalsDoubleClickOpensLightbox(t *testing.T) {
	clock, _, m := newModalsFixture()

	m.Click(2)
	m.Click(2)
	clock.Advance(100 * time.Millisecond)
	m.DoubleClick(2)
	clock.Advance(time.Second)

	st := m.State()
	if !st.Lightbox.Shown || st.Lightbox.Src != "c.jpg" {
		t.Fatalf("lightbox: %+v", st.Lightbox)
	}
	if st.Spotlight.Shown {
		t.Fatal("pending single click was not cancelled")
	}
}

func TestModalsDismissal(t *testing.T) {
	clock, _, m := newModalsFixture()
	dismissed := 0
	m.OnDismiss(func() { dismissed++ })

	m.DoubleClick(0)
	m.Close(Lightbox)
	if m.OverlayOpen() || dismissed != 0 {
		t.Fatalf("close button: open=%v dismissed=%d", m.OverlayOpen(), dismissed)
	}

	m.Click(0)
	clock.Advance(DefaultClickDelay)
	m.BackdropClick(Spotlight)
	if m.OverlayOpen() || dismissed != 1 {
		t.Fatalf("backdrop: open=%v dismissed=%d", m.OverlayOpen(), dismissed)
	}

	m.DoubleClick(1)
	m.Click(2)
	clock.Advance(DefaultClickDelay)
	m.Escape()
	if m.OverlayOpen() || dismissed != 2 {
		t.Fatalf("escape: open=%v dismissed=%d", m.OverlayOpen(), dismissed)
	}
}

func TestModalsIgnoreUnknownSlot(t *testing.T) {
	_, _, m := newModalsFixture()
	m.DoubleClick(7)
	if m.OverlayOpen() {
		t.Fatal("opened a surface for a missing slot")
	}
}
