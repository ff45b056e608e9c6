package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"LanBoard/internal/state"
)

// MaxPeers is how many data connections a server accepts at once.
const MaxPeers = 10

// admitGrace is how long an accepted socket may stay silent before it is
// taken to be a data peer rather than a heartbeat link.
const admitGrace = 250 * time.Millisecond

var ErrHubFull = errors.New("peer limit reached")

// Applier receives every operation decoded from a peer. *state.Board
// implements it.
type Applier interface {
	Remote(op state.Op)
}

// Hub owns the PeerSet and fans operations out to it. A server hub holds every
// accepted peer and relays what one peer sends to all the others. A client hub
// holds only its upstream link and never relays.
//
// Heartbeat links that clients open to the same address are kept apart from
// the PeerSet: they take no peer slot, are not counted and get no broadcasts.
type Hub struct {
	role  Role
	board Applier

	peers      map[string]*Conn
	heartbeats map[string]*Conn
	closed     bool
	mu         sync.RWMutex
	wg         sync.WaitGroup

	// Held across a PeerSet change and its notification so callbacks see
	// counts in the order the changes happened.
	notifyMu sync.Mutex

	// OnPeersChanged and OnDisconnect must be set before Serve or Attach.
	OnPeersChanged func(n int)
	OnDisconnect   func(c *Conn)
}

func NewHub(role Role, board Applier) *Hub {
	return &Hub{
		role:       role,
		board:      board,
		peers:      make(map[string]*Conn),
		heartbeats: make(map[string]*Conn),
	}
}

func (h *Hub) Role() Role { return h.role }

func (h *Hub) Add(c *Conn) error {
	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return net.ErrClosed
	}
	if len(h.peers) >= MaxPeers {
		h.mu.Unlock()
		return fmt.Errorf("%w: %d connected", ErrHubFull, MaxPeers)
	}
	h.peers[c.ID] = c
	n := len(h.peers)
	h.mu.Unlock()

	log.Printf("[HUB] Added connection %s, %d connected", c, n)
	h.notify(n)
	return nil
}

func (h *Hub) Remove(c *Conn) {
	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()

	h.mu.Lock()
	if _, ok := h.peers[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.peers, c.ID)
	n := len(h.peers)
	h.mu.Unlock()

	log.Printf("[HUB] Removed connection %s, %d connected", c, n)
	h.notify(n)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Heartbeats is the number of open heartbeat links.
func (h *Hub) Heartbeats() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.heartbeats)
}

func (h *Hub) notify(n int) {
	if h.OnPeersChanged != nil {
		h.OnPeersChanged(n)
	}
}

func (h *Hub) snapshot(exclude *Conn) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Conn, 0, len(h.peers))
	for _, c := range h.peers {
		if c != exclude {
			out = append(out, c)
		}
	}
	return out
}

// Broadcast sends line to every peer except exclude and reports how many
// writes succeeded. The first timed-out write only marks a peer suspected; a
// second failure, or any other write error, closes it and its receive loop
// then removes it. The other peers still get the line.
func (h *Hub) Broadcast(line []byte, exclude *Conn) int {
	sent := 0
	for _, c := range h.snapshot(exclude) {
		if err := c.Send(line); err != nil {
			if errors.Is(err, ErrSlowPeer) {
				log.Printf("[HUB] %s is suspected: %v", c, err)
				continue
			}
			log.Printf("[HUB] Error sending to %s: %v", c, err)
			c.Close()
			continue
		}
		sent++
	}
	return sent
}

// Publish sends a locally originated operation to every peer.
func (h *Hub) Publish(op state.Op) {
	h.Broadcast(Encode(op), nil)
}

// Serve accepts peers on ln until ctx is cancelled or ln is closed.
func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	log.Printf("[HUB] Server listening on %s", ln.Addr())
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("[HUB] Failed to accept connection: %v", err)
			continue
		}

		h.wg.Add(1)
		go h.admit(newConn(nc, h.role))
	}
}

// admit decides what an accepted socket is. A monitor writes its sentinel
// as soon as it connects, so a first byte of Sentinel within the grace period
// marks a heartbeat link; anything else, including silence, is a data peer.
func (h *Hub) admit(c *Conn) {
	defer h.wg.Done()

	first, err := c.readFirst(admitGrace)
	if err != nil {
		log.Printf("[HUB] %s left before joining: %v", c, err)
		c.Close()
		return
	}
	if len(first) > 0 && first[0] == Sentinel {
		h.drainHeartbeat(c)
		return
	}

	if err := h.Add(c); err != nil {
		log.Printf("[HUB] Rejecting %s: %v", c, err)
		c.Close()
		return
	}
	if len(first) > 0 {
		c.dec.Write(first)
		h.dispatch(c)
	}
	h.receive(c)
}

func (h *Hub) drainHeartbeat(c *Conn) {
	h.mu.Lock()
	if h.closed || len(h.heartbeats) >= MaxPeers {
		h.mu.Unlock()
		log.Printf("[HUB] Rejecting heartbeat %s", c)
		c.Close()
		return
	}
	h.heartbeats[c.ID] = c
	h.mu.Unlock()

	log.Printf("[HUB] %s is a heartbeat link", c)
	defer func() {
		c.Close()
		h.mu.Lock()
		delete(h.heartbeats, c.ID)
		h.mu.Unlock()
	}()
	io.Copy(io.Discard, c.conn)
}

// Attach registers an already established link (the client's upstream) and
// starts its receive loop.
func (h *Hub) Attach(nc net.Conn) (*Conn, error) {
	c := newConn(nc, h.role)
	if err := h.Add(c); err != nil {
		c.Close()
		return nil, err
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.receive(c)
	}()
	return c, nil
}

// Close drops every peer and heartbeat link and waits for their loops to
// finish. Connections accepted afterwards are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	links := make([]*Conn, 0, len(h.peers)+len(h.heartbeats))
	for _, c := range h.peers {
		links = append(links, c)
	}
	for _, c := range h.heartbeats {
		links = append(links, c)
	}
	h.mu.Unlock()

	for _, c := range links {
		c.Close()
	}
	h.wg.Wait()
}

func (h *Hub) receive(c *Conn) {
	defer func() {
		c.Close()
		h.Remove(c)
		if h.OnDisconnect != nil {
			h.OnDisconnect(c)
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.dec.Write(buf[:n])
			h.dispatch(c)
		}
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				log.Printf("[HUB] %s disconnected", c)
			case errors.Is(err, net.ErrClosed):
			default:
				log.Printf("[HUB] Receive error from %s: %v", c, err)
			}
			return
		}
	}
}

func (h *Hub) dispatch(from *Conn) {
	for {
		op, err := from.dec.Next()
		if errors.Is(err, ErrIncomplete) {
			return
		}
		if err != nil {
			log.Printf("[HUB] Discarding line from %s: %v", from, err)
			continue
		}

		log.Printf("[HUB] Received '%s' from %s", op, from)
		if h.role == RoleServer {
			h.Broadcast(Encode(op), from)
		}
		h.board.Remote(op)
	}
}
