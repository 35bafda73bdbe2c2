package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inspirewall/internal/showcase"
)

const (
	writeTimeout  = 2 * time.Second
	outboxSize    = 64
	busSubscriber = "sync-hub"
)

// Hub fans showcase events out to TCP and WebSocket clients. Publish only
// enqueues; Run does the network writes.
type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]struct{}

	outbox  chan any
	dropped uint64
}

type Stats struct {
	TCPClients int    `json:"tcp_clients"`
	WSClients  int    `json:"ws_clients"`
	Dropped    uint64 `json:"dropped"`
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]struct{}),
		outbox:    make(chan any, outboxSize),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Attach streams the engine's board changes and rotation events through the hub.
// It must be called before the engine runs.
func (h *Hub) Attach(e *showcase.Engine) error {
	e.Board.OnChange(func(s showcase.Snapshot) {
		h.Publish(NewBoardEvent(s))
	})
	events, err := e.Bus.Subscribe(busSubscriber, outboxSize)
	if err != nil {
		return fmt.Errorf("subscribe hub: %w", err)
	}
	go func() {
		for ev := range events {
			h.Publish(ev)
		}
	}()
	return nil
}

// Publish queues v for every client. When the queue is full v is dropped.
func (h *Hub) Publish(v any) {
	select {
	case h.outbox <- v:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
}

// Run writes queued events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-h.outbox:
			h.BroadcastJSON(v)
		}
	}
}

func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("[hub] marshal event: %v", err)
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	// TCP clients
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		w := bufio.NewWriter(c)
		if _, err := w.Write(b); err != nil {
			_ = c.Close()
			delete(h.clients, c)
			continue
		}
		if err := w.Flush(); err != nil {
			_ = c.Close()
			delete(h.clients, c)
			continue
		}
	}

	// WebSocket clients
	for ws := range h.wsClients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

// SendWS writes one message to a single WebSocket client. Writes share the
// hub lock with broadcasts since a connection allows one writer at a time.
func (h *Hub) SendWS(ws *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return ws.WriteMessage(websocket.TextMessage, append(b, '\n'))
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
		Dropped:    h.dropped,
	}
}

// Welcome greets a TCP client with the current showcase state.
func (h *Hub) Welcome(conn net.Conn, state *showcase.State) {
	msg := WelcomeEvent{Type: TypeWelcome, Transport: "tcp", Clients: h.Count() + 1, State: state}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, _ = conn.Write(append(b, '\n'))
}
