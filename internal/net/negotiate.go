package net

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"
)

// DialTimeout bounds the outbound connect attempt made during negotiation.
const DialTimeout = 2 * time.Second

var (
	ErrBind    = errors.New("cannot listen")
	ErrOffline = errors.New("no role available")
)

type Role int

const (
	RoleNone Role = iota
	RoleClient
	RoleServer
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	default:
		return "offline"
	}
}

// Session is the outcome of negotiation. Upstream is set for a client,
// Listener for a server.
type Session struct {
	Role     Role
	Addr     string
	Upstream net.Conn
	Listener net.Listener
}

// Negotiate picks this node's role once. A successful connect makes it a
// client. A refused connect means nobody is serving addr yet, so it listens
// there instead. Any other failure leaves the node offline and is returned.
func Negotiate(ctx context.Context, addr string, timeout time.Duration) (*Session, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err == nil {
		log.Printf("[NEGOTIATE] Connected to %s, running as client", addr)
		return &Session{Role: RoleClient, Addr: addr, Upstream: conn}, nil
	}
	if !isRefused(err) {
		return &Session{Role: RoleNone, Addr: addr}, fmt.Errorf("%w: connect %s: %v", ErrOffline, addr, err)
	}

	log.Printf("[NEGOTIATE] No server at %s, switching to server mode", addr)
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return &Session{Role: RoleNone, Addr: addr}, fmt.Errorf("%w on %s: %v", ErrBind, addr, err)
	}
	return &Session{Role: RoleServer, Addr: addr, Listener: ln}, nil
}

// Close releases whatever the session holds.
func (s *Session) Close() error {
	switch {
	case s.Upstream != nil:
		return s.Upstream.Close()
	case s.Listener != nil:
		return s.Listener.Close()
	}
	return nil
}
