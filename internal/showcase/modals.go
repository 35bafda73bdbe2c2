package showcase

import (
	"sync"
	"time"
)

// OverlayGate reports whether any modal surface is shown. Controllers ask it
// before every visible change instead of caching the answer.
type OverlayGate interface {
	OverlayOpen() bool
}

// Overlay names one modal surface.
type Overlay string

const (
	Lightbox  Overlay = "lightbox"
	Spotlight Overlay = "spotlight"
)

// OverlayView is the state of one modal surface.
type OverlayView struct {
	Shown bool   `json:"shown"`
	Src   string `json:"src,omitempty"`
	Alt   string `json:"alt,omitempty"`
	Slot  int    `json:"slot"`
}

// ModalState is a copy of both surfaces.
type ModalState struct {
	Lightbox  OverlayView `json:"lightbox"`
	Spotlight OverlayView `json:"spotlight"`
}

// Modals owns the lightbox and spotlight flags.
//
// A single click opens the spotlight after the click delay unless a double
// click on the same slot arrives first, in which case the lightbox opens.
// The delay is a heuristic kept for parity with the page, not a timing contract.
type Modals struct {
	mu         sync.Mutex
	board      *Board
	clock      Clock
	clickDelay time.Duration

	lightbox  OverlayView
	spotlight OverlayView

	seq     uint64
	pending map[int]pendingClick

	onOpen  func()
	onClose func()
}

type pendingClick struct {
	token uint64
	timer Timer
}

func NewModals(board *Board, clock Clock, clickDelay time.Duration) *Modals {
	if clock == nil {
		clock = RealClock
	}
	if clickDelay <= 0 {
		clickDelay = DefaultClickDelay
	}
	return &Modals{
		board:      board,
		clock:      clock,
		clickDelay: clickDelay,
		lightbox:   OverlayView{Slot: -1},
		spotlight:  OverlayView{Slot: -1},
		pending:    make(map[int]pendingClick),
	}
}

// OnOpen sets the hook run after a surface opens.
func (m *Modals) OnOpen(fn func()) {
	m.mu.Lock()
	m.onOpen = fn
	m.mu.Unlock()
}

// OnDismiss sets the hook run after a backdrop click or Escape.
func (m *Modals) OnDismiss(fn func()) {
	m.mu.Lock()
	m.onClose = fn
	m.mu.Unlock()
}

func (m *Modals) OverlayOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lightbox.Shown || m.spotlight.Shown
}

func (m *Modals) State() ModalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ModalState{Lightbox: m.lightbox, Spotlight: m.spotlight}
}

// Click schedules the spotlight for slot.
func (m *Modals) Click(slot int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pending[slot]; ok {
		stopTimer(p.timer)
	}
	m.seq++
	token := m.seq
	t := m.clock.AfterFunc(m.clickDelay, func() { m.fireClick(slot, token) })
	m.pending[slot] = pendingClick{token: token, timer: t}
}

func (m *Modals) fireClick(slot int, token uint64) {
	m.mu.Lock()
	p, ok := m.pending[slot]
	if !ok || p.token != token {
		m.mu.Unlock()
		return
	}
	delete(m.pending, slot)
	opened := m.openLocked(&m.spotlight, slot)
	hook := m.onOpen
	m.mu.Unlock()

	if opened && hook != nil {
		hook()
	}
}

// DoubleClick cancels a pending single click on slot and opens the lightbox.
func (m *Modals) DoubleClick(slot int) {
	m.mu.Lock()
	if p, ok := m.pending[slot]; ok {
		stopTimer(p.timer)
		delete(m.pending, slot)
	}
	opened := m.openLocked(&m.lightbox, slot)
	hook := m.onOpen
	m.mu.Unlock()

	if opened && hook != nil {
		hook()
	}
}

func (m *Modals) openLocked(v *OverlayView, slot int) bool {
	snap := m.board.Snapshot()
	if slot < 0 || slot >= len(snap.Slots) {
		return false
	}
	s := snap.Slots[slot]
	*v = OverlayView{Shown: true, Src: s.Src, Alt: s.Alt, Slot: slot}
	return true
}

// Close hides one surface, as the close button does. It does not run the
// dismiss hook.
func (m *Modals) Close(o Overlay) {
	m.mu.Lock()
	m.closeLocked(o)
	m.mu.Unlock()
}

// BackdropClick hides one surface and runs the dismiss hook.
func (m *Modals) BackdropClick(o Overlay) {
	m.mu.Lock()
	m.closeLocked(o)
	hook := m.onClose
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Escape hides both surfaces and runs the dismiss hook.
func (m *Modals) Escape() {
	m.mu.Lock()
	m.closeLocked(Lightbox)
	m.closeLocked(Spotlight)
	hook := m.onClose
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (m *Modals) closeLocked(o Overlay) {
	switch o {
	case Lightbox:
		m.lightbox = OverlayView{Slot: -1}
	case Spotlight:
		m.spotlight = OverlayView{Slot: -1}
	}
}
