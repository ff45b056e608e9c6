package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LanBoard/internal/export"
	boardnet "LanBoard/internal/net"
	"LanBoard/internal/state"
	"LanBoard/internal/ui"
)

func main() {
	config, err := ParseConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	surface := ui.NewBoardWidget()
	board := state.NewBoard(surface)
	surface.OnStroke = func(s state.Stroke) {
		board.Local(state.NewStrokeOp(s))
	}

	window := ui.NewApp(surface,
		func() { board.Local(state.NewClearOp()) },
		func() { board.Local(state.NewUndoOp(state.OpNone)) },
	)
	window.Save = func(w io.Writer) error {
		snapCtx, done := context.WithTimeout(ctx, 5*time.Second)
		defer done()
		ops, err := board.Snapshot(snapCtx)
		if err != nil {
			return fmt.Errorf("read drawing: %w", err)
		}
		return export.PDF(w, ops)
	}

	go board.Run(ctx)
	go connect(ctx, config.Addr(), board, window)
	go func() {
		<-ctx.Done()
		window.Quit()
	}()

	log.Printf("Starting LAN WhiteBoard on %s", config.Addr())
	window.Run()
}

// connect negotiates the node's role and keeps its network side running
// until ctx ends or, for a client, the upstream link is lost. Drawing keeps
// working locally whatever happens here.
func connect(ctx context.Context, addr string, board *state.Board, window *ui.App) {
	session, err := boardnet.Negotiate(ctx, addr, boardnet.DialTimeout)
	if err != nil {
		log.Printf("Networking disabled: %v", err)
		window.SetStatus("Offline: " + err.Error())
		return
	}
	defer session.Close()

	hub := boardnet.NewHub(session.Role, board)
	board.SetPublisher(hub)
	defer hub.Close()

	switch session.Role {
	case boardnet.RoleServer:
		hub.OnPeersChanged = func(n int) {
			window.SetStatus(fmt.Sprintf("%d client(s) connected", n))
		}
		window.SetStatus("Server started, waiting for connection...")
		if err := hub.Serve(ctx, session.Listener); err != nil {
			log.Printf("Server stopped: %v", err)
			window.SetStatus("Server stopped")
		}

	case boardnet.RoleClient:
		lost := make(chan struct{})
		hub.OnDisconnect = func(*boardnet.Conn) { close(lost) }
		upstream, err := hub.Attach(session.Upstream)
		if err != nil {
			window.SetStatus("Offline: " + err.Error())
			return
		}
		window.SetStatus("Connected to server")

		monitorCtx, stopMonitor := context.WithCancel(ctx)
		defer stopMonitor()
		monitor := boardnet.NewMonitor(addr, func(error) {
			window.SetStatus("Disconnected")
			upstream.Close()
		})
		go monitor.Run(monitorCtx)

		select {
		case <-ctx.Done():
		case <-lost:
			window.SetStatus("Disconnected")
		}
	}
}
