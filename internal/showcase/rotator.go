package showcase

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"

	"inspirewall/pkg/models"
)

var (
	ErrEmptyManifest  = errors.New("showcase: manifest is empty")
	ErrAlreadyStarted = errors.New("showcase: rotator already started")
)

// RotatorState is Idle until Start and again after Stop.
type RotatorState string

const (
	RotatorIdle   RotatorState = "idle"
	RotatorActive RotatorState = "active"
)

// RotatorStats counts what the rotation timer did.
type RotatorStats struct {
	State     RotatorState `json:"state"`
	Current   []int        `json:"current"`
	Rotations uint64       `json:"rotations"`
	Skipped   uint64       `json:"skipped"` // overlay was open
	Ignored   uint64       `json:"ignored"` // transition still in flight
	Redraws   uint64       `json:"redraws"`
}

type RotatorOptions struct {
	Clock     Clock
	Rand      *rand.Rand
	Gate      OverlayGate
	Publisher Publisher
	// Preloader is optional; without it images swap immediately.
	Preloader Preloader
	Logger    *slog.Logger
}

// Rotator swaps the wallpapers shown on the board every RotateInterval.
type Rotator struct {
	mu       sync.Mutex
	cfg      Config
	manifest []models.Wallpaper
	board    *Board

	clock   Clock
	rng     *rand.Rand
	gate    OverlayGate
	pub     Publisher
	preload Preloader
	logger  *slog.Logger

	state    RotatorState
	current  []int
	inFlight bool
	// run invalidates callbacks scheduled by an earlier Start.
	run   uint64
	timer Timer
	stats RotatorStats
}

func NewRotator(cfg Config, manifest []models.Wallpaper, board *Board, opts RotatorOptions) *Rotator {
	cfg.defaults()
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Rotator{
		cfg:      cfg,
		manifest: manifest,
		board:    board,
		clock:    opts.Clock,
		rng:      opts.Rand,
		gate:     opts.Gate,
		pub:      opts.Publisher,
		preload:  opts.Preloader,
		logger:   opts.Logger,
		state:    RotatorIdle,
	}
}

// Start shows an initial selection without consulting the overlay gate and
// arms the rotation timer.
func (r *Rotator) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RotatorActive {
		return ErrAlreadyStarted
	}
	if len(r.manifest) == 0 {
		return ErrEmptyManifest
	}

	r.state = RotatorActive
	r.run++
	r.current = ChooseUniqueIndices(r.rng, len(r.manifest), r.board.Len())
	r.beginTransitionLocked(r.current)
	r.armLocked()

	r.logger.Info("showcase: rotator started",
		"entries", len(r.manifest), "slots", r.board.Len(), "interval", r.cfg.RotateInterval)
	return nil
}

// Stop cancels the timer and any transition in flight.
func (r *Rotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RotatorIdle {
		return
	}
	r.state = RotatorIdle
	r.run++
	stopTimer(r.timer)
	r.timer = nil
	if r.inFlight {
		r.inFlight = false
		r.board.SetTransitioning(false)
	}
}

func (r *Rotator) Stats() RotatorStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.stats
	st.State = r.state
	st.Current = append([]int(nil), r.current...)
	return st
}

func (r *Rotator) armLocked() {
	run := r.run
	r.timer = r.clock.AfterFunc(r.cfg.RotateInterval, func() { r.tick(run) })
}

func (r *Rotator) tick(run uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.run != run || r.state != RotatorActive {
		return
	}
	r.armLocked()

	if r.gate != nil && r.gate.OverlayOpen() {
		r.stats.Skipped++
		r.logger.Debug("showcase: rotation skipped, overlay open")
		return
	}
	if r.inFlight {
		r.stats.Ignored++
		r.logger.Warn("showcase: rotation ignored, transition in flight")
		return
	}

	next := ChooseUniqueIndices(r.rng, len(r.manifest), r.board.Len())
	for retries := 0; sameIndices(next, r.current) && retries < r.cfg.MaxRetries; retries++ {
		r.stats.Redraws++
		next = ChooseUniqueIndices(r.rng, len(r.manifest), r.board.Len())
	}
	// rotate even when the selection came out unchanged
	r.current = next
	r.beginTransitionLocked(next)
}

// beginTransitionLocked fades the slots out; the swap lands after FadeDuration.
func (r *Rotator) beginTransitionLocked(indices []int) {
	r.inFlight = true
	r.board.SetTransitioning(true)
	run := r.run
	indices = append([]int(nil), indices...)
	r.clock.AfterFunc(r.cfg.FadeDuration, func() { r.swap(run, indices) })
}

func (r *Rotator) swap(run uint64, indices []int) {
	r.mu.Lock()
	if r.run != run {
		r.mu.Unlock()
		return
	}

	for i, idx := range indices {
		if idx < 0 || idx >= len(r.manifest) {
			continue
		}
		entry := r.manifest[idx]
		gen := r.board.Assign(i, idx, entry.Desc)
		r.loadImage(i, gen, entry)
	}
	r.stats.Rotations++
	r.clock.AfterFunc(r.cfg.SettleDelay, func() { r.settle(run) })

	ev := RotationEvent{
		Indices:        append([]int(nil), indices...),
		RotateInterval: r.cfg.RotateInterval,
		NumberOfCards:  len(indices),
	}
	pub := r.pub
	r.mu.Unlock()

	if pub != nil {
		pub.Publish(ev)
	}
}

func (r *Rotator) settle(run uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.run != run {
		return
	}
	r.board.SetTransitioning(false)
	r.inFlight = false
}

// loadImage assigns the new image once it is fetched. A failed preload
// leaves the previous image in place.
func (r *Rotator) loadImage(slot int, gen uint64, entry models.Wallpaper) {
	alt := entry.Alt
	if alt == "" {
		alt = entry.Desc
	}
	if r.preload == nil {
		r.board.SetImage(slot, gen, entry.Src, alt)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RotateInterval)
		defer cancel()
		if err := r.preload.Preload(ctx, entry.Src); err != nil {
			r.logger.Warn("showcase: preload failed", "slot", slot, "src", entry.Src, "error", err)
			return
		}
		r.board.SetImage(slot, gen, entry.Src, alt)
	}()
}
