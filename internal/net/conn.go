package net

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const writeDeadline = 3 * time.Second

// ErrSlowPeer is returned by the first write that times out on a link. The
// link stays open, suspected, and the next failure is reported as is.
var ErrSlowPeer = errors.New("peer is not reading")

// Liveness is what we currently believe about a peer link.
type Liveness int32

const (
	Alive Liveness = iota
	Suspected
	Dead
)

func (l Liveness) String() string {
	switch l {
	case Alive:
		return "alive"
	case Suspected:
		return "suspected"
	default:
		return "dead"
	}
}

// Conn is one peer link. Writes are serialized; reads belong to the single
// receive loop the Hub runs for it.
type Conn struct {
	ID   string
	Role Role

	conn         net.Conn
	dec          Decoder
	writeMu      sync.Mutex
	writeTimeout time.Duration
	state        atomic.Int32

	closeOnce sync.Once
}

func newConn(c net.Conn, role Role) *Conn {
	return &Conn{
		ID:           uuid.NewString(),
		Role:         role,
		conn:         c,
		writeTimeout: writeDeadline,
	}
}

func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *Conn) State() Liveness {
	return Liveness(c.state.Load())
}

func (c *Conn) String() string {
	return fmt.Sprintf("%s (%s)", c.RemoteAddr(), c.ID[:8])
}

// Send writes one encoded line. The first timed-out write on a healthy link
// marks it suspected and returns ErrSlowPeer; a later successful write makes
// it alive again. Any other failure is left to the caller, which is expected
// to Close.
func (c *Conn) Send(line []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.State() == Dead {
		return net.ErrClosed
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	if _, err := c.conn.Write(line); err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() &&
			c.state.CompareAndSwap(int32(Alive), int32(Suspected)) {
			return fmt.Errorf("%w: %v", ErrSlowPeer, err)
		}
		return err
	}
	c.state.CompareAndSwap(int32(Suspected), int32(Alive))
	return nil
}

// readFirst waits up to grace for the first bytes a newly accepted link
// sends. A link that stays silent yields no bytes and no error.
func (c *Conn) readFirst(grace time.Duration) ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(grace)); err != nil {
		return nil, err
	}
	buf := make([]byte, 4096)
	n, err := c.conn.Read(buf)
	if err != nil {
		var ne net.Error
		if !errors.As(err, &ne) || !ne.Timeout() {
			return nil, err
		}
	}
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(int32(Dead))
		err = c.conn.Close()
	})
	return err
}
