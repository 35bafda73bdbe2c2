package sync

import (
	"time"

	"inspirewall/internal/showcase"
)

const (
	TypeWelcome = "welcome"
	TypeBoard   = "showcase.board"
	TypeError   = "error"
)

// BoardEvent carries the board after every change. Rotation events go out
// as showcase.RotationEvent, which marshals itself.
type BoardEvent struct {
	Type  string            `json:"type"`
	Board showcase.Snapshot `json:"board"`
	At    time.Time         `json:"at"`
}

func NewBoardEvent(s showcase.Snapshot) BoardEvent {
	return BoardEvent{Type: TypeBoard, Board: s, At: time.Now().UTC()}
}

type WelcomeEvent struct {
	Type      string          `json:"type"`
	Transport string          `json:"transport"`
	Clients   int             `json:"clients"`
	State     *showcase.State `json:"state,omitempty"`
}

// ErrorEvent answers a client input that could not be applied.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
