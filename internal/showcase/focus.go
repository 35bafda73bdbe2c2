package showcase

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

// FocusStats describes the focus cycle.
type FocusStats struct {
	Current  int           `json:"current"`
	Paused   bool          `json:"paused"`
	Stepping bool          `json:"stepping"`
	Step     time.Duration `json:"step"`
	Cycles   uint64        `json:"cycles"`
	Steps    uint64        `json:"steps"`
}

type FocusOptions struct {
	Clock  Clock
	Gate   OverlayGate
	Logger *slog.Logger
}

// FocusCycle walks the focus highlight across the slots within one rotation
// period and restarts from slot 0 on every rotation.
//
// Pointer or keyboard interaction with a slot pauses the walk. Leaving the
// slot resumes it after ResumeDelay, unless another interaction happened in
// between. While paused or while an overlay is open the walk never marks a slot.
type FocusCycle struct {
	mu     sync.Mutex
	cfg    Config
	board  *Board
	clock  Clock
	gate   OverlayGate
	logger *slog.Logger

	current  int
	paused   bool
	stepping bool
	stepDur  time.Duration
	// cycle invalidates step and stop callbacks of an earlier cycle.
	cycle uint64
	// gen invalidates pending resumes when a newer interaction arrives.
	gen  uint64
	step Timer
	stop Timer

	cycles uint64
	steps  uint64
}

func NewFocusCycle(cfg Config, board *Board, opts FocusOptions) *FocusCycle {
	cfg.defaults()
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &FocusCycle{
		cfg:    cfg,
		board:  board,
		clock:  opts.Clock,
		gate:   opts.Gate,
		logger: opts.Logger,
	}
}

// StepDuration spreads period over n slots, rounded to the millisecond and
// never shorter than minStep.
func StepDuration(period time.Duration, n int, minStep time.Duration) time.Duration {
	if n < 1 {
		n = 1
	}
	ms := math.Round(float64(period.Milliseconds()) / float64(n))
	return max(minStep, time.Duration(ms)*time.Millisecond)
}

// StartCycle restarts the walk from slot 0 for one period.
func (c *FocusCycle) StartCycle(period time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked(period)
}

// Start begins the first cycle at the default period.
func (c *FocusCycle) Start() {
	c.StartCycle(c.cfg.RotateInterval)
}

// Stop cancels the walk and any pending resume.
func (c *FocusCycle) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.gen++
}

// Resync restarts the walk in lockstep with a rotation.
func (c *FocusCycle) Resync(ev RotationEvent) {
	period := ev.RotateInterval
	if period <= 0 {
		period = c.cfg.RotateInterval
	}
	c.StartCycle(period)
}

// Follow resyncs on every event from ch until ctx ends or ch closes.
func (c *FocusCycle) Follow(ctx context.Context, ch <-chan RotationEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			c.Resync(ev)
		}
	}
}

func (c *FocusCycle) startLocked(period time.Duration) {
	c.cancelLocked()

	n := c.board.Len()
	if n == 0 {
		return
	}
	if period <= 0 {
		period = c.cfg.RotateInterval
	}
	step := StepDuration(period, n, c.cfg.MinStep)

	c.current = 0
	c.applyLocked(c.current)

	cycle := c.cycle
	c.stepping = true
	c.stepDur = step
	c.cycles++
	c.step = c.clock.AfterFunc(step, func() { c.advance(cycle) })
	c.stop = c.clock.AfterFunc(period+c.cfg.CycleGrace, func() { c.expire(cycle) })
}

func (c *FocusCycle) cancelLocked() {
	c.cycle++
	c.stepping = false
	stopTimer(c.step)
	stopTimer(c.stop)
	c.step, c.stop = nil, nil
}

func (c *FocusCycle) advance(cycle uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cycle != cycle || !c.stepping {
		return
	}
	c.step = c.clock.AfterFunc(c.stepDur, func() { c.advance(cycle) })
	if c.paused {
		return
	}

	c.current = (c.current + 1) % c.board.Len()
	c.steps++
	c.applyLocked(c.current)
}

// expire ends the walk once the period is over so it cannot overlap the next rotation.
func (c *FocusCycle) expire(cycle uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cycle != cycle {
		return
	}
	c.stepping = false
	stopTimer(c.step)
	c.step = nil
}

func (c *FocusCycle) applyLocked(slot int) {
	if c.paused || c.overlayOpen() {
		return
	}
	c.board.Focus(slot)
}

func (c *FocusCycle) overlayOpen() bool {
	return c.gate != nil && c.gate.OverlayOpen()
}

// PointerEnter pauses the walk and highlights the hovered slot.
func (c *FocusCycle) PointerEnter(slot int) { c.engage(slot) }

// FocusIn is PointerEnter for keyboard focus.
func (c *FocusCycle) FocusIn(slot int) { c.engage(slot) }

// PointerLeave clears the highlight and schedules a resume.
func (c *FocusCycle) PointerLeave(slot int) { c.disengage(slot) }

// FocusOut is PointerLeave for keyboard focus.
func (c *FocusCycle) FocusOut(slot int) { c.disengage(slot) }

func (c *FocusCycle) engage(slot int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paused = true
	c.gen++
	c.cancelLocked()

	// hover highlight; skipped under an overlay like the walk itself
	if !c.overlayOpen() {
		c.board.Focus(slot)
	}
}

func (c *FocusCycle) disengage(slot int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paused = false
	c.gen++
	c.board.ClearMarks()

	gen := c.gen
	c.clock.AfterFunc(c.cfg.ResumeDelay, func() { c.resume(gen) })
	c.logger.Debug("showcase: focus resume scheduled", "slot", slot, "delay", c.cfg.ResumeDelay)
}

func (c *FocusCycle) resume(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused || c.gen != gen {
		return
	}
	c.startLocked(c.cfg.RotateInterval)
}

// OverlayDismissed restarts the walk from slot 0 after a modal closes.
func (c *FocusCycle) OverlayDismissed() {
	c.StartCycle(c.cfg.RotateInterval)
}

// ClearMarks removes every highlight, used when a modal opens.
func (c *FocusCycle) ClearMarks() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.board.ClearMarks()
}

func (c *FocusCycle) Stats() FocusStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FocusStats{
		Current:  c.current,
		Paused:   c.paused,
		Stepping: c.stepping,
		Step:     c.stepDur,
		Cycles:   c.cycles,
		Steps:    c.steps,
	}
}
