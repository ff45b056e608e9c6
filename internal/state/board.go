package state

import (
	"context"
	"errors"
	"log"
	"sync"
)

// DefaultQueueSize bounds how many operations may wait for the Board before
// Local/Remote start to block the caller.
const DefaultQueueSize = 256

var ErrStopped = errors.New("board stopped")

// Surface is the drawing target. The Board is the only caller, from its own
// goroutine; implementations that render elsewhere must hand the work over
// themselves.
type Surface interface {
	ApplyStroke(s Stroke)
	ApplyClear()
}

// Publisher receives every locally originated operation after it has been
// applied. The network hub implements it.
type Publisher interface {
	Publish(op Op)
}

type origin int

const (
	fromLocal origin = iota
	fromRemote
)

type request struct {
	op     Op
	origin origin
	query  func(*Log)
	done   chan struct{}
}

// Board owns the Operation Log and the Surface. Network workers and the UI
// never touch either directly; they enqueue operations and the Board applies
// them one at a time in arrival order.
type Board struct {
	surface Surface
	log     *Log
	inbox   chan request

	stopped  chan struct{}
	stopOnce sync.Once

	mu        sync.RWMutex
	publisher Publisher
}

func NewBoard(surface Surface) *Board {
	return &Board{
		surface: surface,
		log:     NewLog(),
		inbox:   make(chan request, DefaultQueueSize),
		stopped: make(chan struct{}),
	}
}

func (b *Board) SetPublisher(p Publisher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publisher = p
}

// Local queues an operation produced by this node's user. Once applied it is
// handed to the Publisher.
func (b *Board) Local(op Op) {
	b.enqueue(request{op: op, origin: fromLocal})
}

// Remote queues an operation received from a peer. It is applied and logged
// but never published again.
func (b *Board) Remote(op Op) {
	b.enqueue(request{op: op, origin: fromRemote})
}

func (b *Board) enqueue(r request) bool {
	select {
	case b.inbox <- r:
		return true
	case <-b.stopped:
		return false
	}
}

// Run applies queued operations until ctx is cancelled.
func (b *Board) Run(ctx context.Context) error {
	defer b.stopOnce.Do(func() { close(b.stopped) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-b.inbox:
			b.handle(r)
		}
	}
}

// Snapshot returns a copy of the log as seen by the Board, after every
// operation queued before the call has been applied.
func (b *Board) Snapshot(ctx context.Context) ([]Op, error) {
	var out []Op
	if err := b.query(ctx, func(l *Log) { out = l.Snapshot() }); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Board) Len(ctx context.Context) (int, error) {
	var n int
	if err := b.query(ctx, func(l *Log) { n = l.Len() }); err != nil {
		return 0, err
	}
	return n, nil
}

func (b *Board) query(ctx context.Context, fn func(*Log)) error {
	done := make(chan struct{})
	if !b.enqueue(request{query: fn, done: done}) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

func (b *Board) handle(r request) {
	if r.query != nil {
		r.query(b.log)
		close(r.done)
		return
	}

	op := r.op
	switch op.Type {
	case OpStroke:
		if err := op.Stroke.Validate(); err != nil {
			log.Printf("[BOARD] Dropping %s: %v", op, err)
			return
		}
		b.surface.ApplyStroke(op.Stroke)
		b.log.Push(op)
		if r.origin == fromLocal {
			b.publish(op)
		}
	case OpClear:
		b.clear()
		if r.origin == fromLocal {
			b.publish(op)
		}
	case OpUndo:
		undone, ok := b.undo()
		if !ok {
			return
		}
		if r.origin == fromLocal {
			if undone == OpClear {
				b.publish(NewClearOp())
			}
			b.publish(NewUndoOp(undone))
		}
	case OpNone:
	default:
		log.Printf("[BOARD] Ignoring unknown operation %q", op.Type)
	}
}

func (b *Board) clear() {
	b.surface.ApplyClear()
	b.log.Reset()
}

// undo pops the newest log entry. A stroke is removed by clearing the surface
// and replaying what is left. Undoing a clear clears again: the strokes it
// removed are already gone from the log.
func (b *Board) undo() (OpType, bool) {
	last, ok := b.log.Pop()
	if !ok {
		return OpNone, false
	}
	switch last.Type {
	case OpStroke:
		b.surface.ApplyClear()
		for _, s := range b.log.Strokes() {
			b.surface.ApplyStroke(s)
		}
	case OpClear:
		b.clear()
	}
	log.Printf("[BOARD] Undid %s, %d entries left", last.Type, b.log.Len())
	return last.Type, true
}

func (b *Board) publish(op Op) {
	b.mu.RLock()
	p := b.publisher
	b.mu.RUnlock()
	if p != nil {
		p.Publish(op)
	}
}
