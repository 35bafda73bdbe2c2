package showcase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"inspirewall/pkg/models"
)

// ErrUnknownInput is returned by Dispatch for input it cannot route.
var ErrUnknownInput = errors.New("showcase: unknown input")

const focusSubscriber = "focus-cycle"

type Options struct {
	Clock     Clock
	Rand      *rand.Rand
	Preloader Preloader
	Logger    *slog.Logger
}

// Engine wires the board, both controllers, the modals and the rotation bus.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	Board   *Board
	Rotator *Rotator
	Focus   *FocusCycle
	Modals  *Modals
	Bus     *Bus

	mu      sync.Mutex
	running bool
}

func NewEngine(cfg Config, manifest []models.Wallpaper, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(manifest) == 0 {
		return nil, ErrEmptyManifest
	}
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	board := NewBoard(cfg.Slots)
	modals := NewModals(board, opts.Clock, cfg.ClickDelay)
	bus := NewBus()
	focus := NewFocusCycle(cfg, board, FocusOptions{
		Clock:  opts.Clock,
		Gate:   modals,
		Logger: opts.Logger,
	})
	rotator := NewRotator(cfg, manifest, board, RotatorOptions{
		Clock:     opts.Clock,
		Rand:      opts.Rand,
		Gate:      modals,
		Publisher: bus,
		Preloader: opts.Preloader,
		Logger:    opts.Logger,
	})

	modals.OnOpen(focus.ClearMarks)
	modals.OnDismiss(focus.OverlayDismissed)

	return &Engine{
		cfg:     cfg,
		logger:  opts.Logger,
		Board:   board,
		Rotator: rotator,
		Focus:   focus,
		Modals:  modals,
		Bus:     bus,
	}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Run starts the showcase and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.running = true
	e.mu.Unlock()

	events, err := e.Bus.Subscribe(focusSubscriber, 4)
	if err != nil {
		return fmt.Errorf("subscribe focus cycle: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.Focus.Follow(ctx, events)
	}()

	e.Focus.Start()
	if err := e.Rotator.Start(); err != nil {
		e.Focus.Stop()
		_ = e.Bus.Unsubscribe(focusSubscriber)
		wg.Wait()
		return fmt.Errorf("start rotator: %w", err)
	}

	<-ctx.Done()

	e.Rotator.Stop()
	e.Focus.Stop()
	e.Bus.Close()
	wg.Wait()
	e.logger.Info("showcase: engine stopped")
	return nil
}

// Input is a page event forwarded by a client.
type Input struct {
	Type    string `json:"type"`
	Slot    int    `json:"slot"`
	Key     string `json:"key,omitempty"`
	Overlay string `json:"overlay,omitempty"`
}

// Dispatch routes one client event to the controller that owns it.
func (e *Engine) Dispatch(in Input) error {
	slots := e.Board.Len()
	needsSlot := func() error {
		if in.Slot < 0 || in.Slot >= slots {
			return fmt.Errorf("slot %d out of range [0,%d)", in.Slot, slots)
		}
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case "pointer.enter", "mouseenter":
		if err := needsSlot(); err != nil {
			return err
		}
		e.Focus.PointerEnter(in.Slot)
	case "pointer.leave", "mouseleave":
		if err := needsSlot(); err != nil {
			return err
		}
		e.Focus.PointerLeave(in.Slot)
	case "focus.in", "focusin":
		if err := needsSlot(); err != nil {
			return err
		}
		e.Focus.FocusIn(in.Slot)
	case "focus.out", "focusout":
		if err := needsSlot(); err != nil {
			return err
		}
		e.Focus.FocusOut(in.Slot)
	case "click":
		if err := needsSlot(); err != nil {
			return err
		}
		e.Modals.Click(in.Slot)
	case "dblclick":
		if err := needsSlot(); err != nil {
			return err
		}
		e.Modals.DoubleClick(in.Slot)
	case "backdrop":
		o, err := parseOverlay(in.Overlay)
		if err != nil {
			return err
		}
		e.Modals.BackdropClick(o)
	case "close":
		o, err := parseOverlay(in.Overlay)
		if err != nil {
			return err
		}
		e.Modals.Close(o)
	case "key", "keydown":
		if in.Key == "Escape" {
			e.Modals.Escape()
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInput, in.Type)
	}
	return nil
}

func parseOverlay(s string) (Overlay, error) {
	switch Overlay(strings.ToLower(strings.TrimSpace(s))) {
	case Lightbox:
		return Lightbox, nil
	case Spotlight:
		return Spotlight, nil
	default:
		return "", fmt.Errorf("%w: overlay %q", ErrUnknownInput, s)
	}
}

// State is the payload of GET /api/showcase.
type State struct {
	Board   Snapshot     `json:"board"`
	Modals  ModalState   `json:"modals"`
	Rotator RotatorStats `json:"rotator"`
	Focus   FocusStats   `json:"focus"`
}

func (e *Engine) State() State {
	return State{
		Board:   e.Board.Snapshot(),
		Modals:  e.Modals.State(),
		Rotator: e.Rotator.Stats(),
		Focus:   e.Focus.Stats(),
	}
}
