package net

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"time"
)

// HeartbeatInterval is the pause between two sentinel bytes.
const HeartbeatInterval = 10 * time.Second

// Monitor probes the well-known address over its own connection so a link
// that died without a FIN is still noticed. It is a best-effort check and
// plays no part in the data protocol.
type Monitor struct {
	Addr     string
	Interval time.Duration
	// OnDown is called once, with the failure, when the probe stops working.
	OnDown func(err error)
}

func NewMonitor(addr string, onDown func(err error)) *Monitor {
	return &Monitor{Addr: addr, Interval: HeartbeatInterval, OnDown: onDown}
}

// Run sends sentinels until a send fails or ctx is cancelled. It returns nil
// on cancellation and the failure otherwise.
func (m *Monitor) Run(ctx context.Context) error {
	d := net.Dialer{Timeout: DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", m.Addr)
	if err != nil {
		return m.down(ctx, fmt.Errorf("heartbeat connect %s: %w", m.Addr, err))
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	// The server only drains this socket; nothing is expected back.
	go io.Copy(io.Discard, conn)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		err = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err == nil {
			_, err = conn.Write([]byte{Sentinel})
		}
		if err != nil {
			return m.down(ctx, fmt.Errorf("heartbeat to %s: %w", m.Addr, err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) down(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	log.Printf("[PING] %v", err)
	if m.OnDown != nil {
		m.OnDown(err)
	}
	return err
}
