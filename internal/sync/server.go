package sync

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"sync"

	"inspirewall/internal/showcase"
)

// StateFunc returns the state sent to newly connected clients. It may be nil.
type StateFunc func() showcase.State

// Server is the line-delimited JSON stream for terminal watchers.
type Server struct {
	Addr  string
	Hub   *Hub
	State StateFunc

	mu sync.Mutex
	ln net.Listener
}

func NewServer(addr string, hub *Hub, state StateFunc) *Server {
	return &Server{Addr: addr, Hub: hub, State: state}
}

// Listen binds the address so errors surface before Serve.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return ln.Addr(), nil
}

// Run listens if needed and accepts clients until ctx is done or Close is called.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		ln = s.ln
		s.mu.Unlock()
	}
	log.Printf("[tcp-sync] listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			continue
		}

		var state *showcase.State
		if s.State != nil {
			st := s.State()
			state = &st
		}
		s.Hub.Welcome(conn, state)
		s.Hub.Add(conn)
		log.Printf("[tcp-sync] client connected: %s", conn.RemoteAddr())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				log.Printf("[tcp-sync] client disconnected: %s", c.RemoteAddr())
			}()

			// the stream is one-way; drain whatever the client sends
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
