package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSurface struct {
	mu      sync.Mutex
	strokes []Stroke
	clears  int
}

func (s *recordingSurface) ApplyStroke(st Stroke) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = append(s.strokes, st)
}

func (s *recordingSurface) ApplyClear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = nil
	s.clears++
}

func (s *recordingSurface) rendered() []Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Stroke, len(s.strokes))
	copy(out, s.strokes)
	return out
}

type recordingPublisher struct {
	mu  sync.Mutex
	ops []Op
}

func (p *recordingPublisher) Publish(op Op) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, op)
}

func (p *recordingPublisher) published() []Op {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Op, len(p.ops))
	copy(out, p.ops)
	return out
}

func stroke(i int) Stroke {
	return Stroke{X1: i, Y1: i, X2: i + 10, Y2: i + 10, Color: "black", Width: 5}
}

func newTestBoard() (*Board, *recordingSurface, *recordingPublisher) {
	surface := &recordingSurface{}
	pub := &recordingPublisher{}
	b := NewBoard(surface)
	b.SetPublisher(pub)
	return b, surface, pub
}

// drain handles everything queued so far on the test goroutine, in place of Run.
func (b *Board) drain() int {
	n := 0
	for {
		select {
		case r := <-b.inbox:
			b.handle(r)
			n++
		default:
			return n
		}
	}
}

func TestUndoAfterNStrokes(t *testing.T) {
	for _, n := range []int{1, 2, 5, 20} {
		b, surface, _ := newTestBoard()
		for i := 0; i < n; i++ {
			b.Local(NewStrokeOp(stroke(i)))
		}
		b.Local(NewUndoOp(OpNone))
		b.drain()

		assert.Equal(t, n-1, b.log.Len(), "log length after %d strokes", n)
		rendered := surface.rendered()
		require.Len(t, rendered, n-1)
		for i, s := range rendered {
			assert.Equal(t, stroke(i), s)
		}
	}
}

func TestClearEmptiesSurfaceAndLog(t *testing.T) {
	b, surface, _ := newTestBoard()
	b.Local(NewStrokeOp(stroke(1)))
	b.Remote(NewStrokeOp(stroke(2)))
	b.Local(NewUndoOp(OpNone))
	b.Remote(NewStrokeOp(stroke(3)))
	b.Local(NewClearOp())
	b.drain()

	assert.Equal(t, 0, b.log.Len())
	assert.Empty(t, surface.rendered())
}

func TestLocalOperationsArePublished(t *testing.T) {
	b, _, pub := newTestBoard()
	b.Local(NewStrokeOp(stroke(1)))
	b.Local(NewClearOp())
	b.drain()

	assert.Equal(t, []Op{NewStrokeOp(stroke(1)), NewClearOp()}, pub.published())
}

func TestRemoteOperationsAreAppliedButNotPublished(t *testing.T) {
	b, surface, pub := newTestBoard()
	b.Remote(NewStrokeOp(stroke(1)))
	b.Remote(NewStrokeOp(stroke(2)))
	b.Remote(NewUndoOp(OpStroke))
	b.drain()

	assert.Empty(t, pub.published())
	assert.Equal(t, []Stroke{stroke(1)}, surface.rendered())
	assert.Equal(t, 1, b.log.Len())
}

func TestLocalUndoPublishesKind(t *testing.T) {
	b, _, pub := newTestBoard()
	b.Local(NewStrokeOp(stroke(1)))
	b.Local(NewUndoOp(OpNone))
	b.drain()

	ops := pub.published()
	require.Len(t, ops, 2)
	assert.Equal(t, NewUndoOp(OpStroke), ops[1])
}

func TestUndoOnEmptyLogIsSilent(t *testing.T) {
	b, surface, pub := newTestBoard()
	b.Local(NewUndoOp(OpNone))
	b.Remote(NewUndoOp(OpStroke))
	b.drain()

	assert.Empty(t, pub.published())
	assert.Zero(t, surface.clears)
}

func TestUndoOfLoggedClearClearsAgain(t *testing.T) {
	b, surface, pub := newTestBoard()
	b.log.Push(NewStrokeOp(stroke(1)))
	b.log.Push(NewClearOp())
	b.Local(NewUndoOp(OpNone))
	b.drain()

	assert.Equal(t, 0, b.log.Len())
	assert.Equal(t, 1, surface.clears)
	assert.Equal(t, []Op{NewClearOp(), NewUndoOp(OpClear)}, pub.published())
}

func TestInvalidStrokeIsDropped(t *testing.T) {
	b, surface, pub := newTestBoard()
	b.Local(NewStrokeOp(Stroke{X2: 1, Y2: 1, Color: "red", Width: 0}))
	b.drain()

	assert.Empty(t, surface.rendered())
	assert.Empty(t, pub.published())
	assert.Equal(t, 0, b.log.Len())
}

func TestRunServesQueries(t *testing.T) {
	b, _, _ := newTestBoard()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- b.Run(ctx) }()

	b.Remote(NewStrokeOp(stroke(1)))
	b.Remote(NewStrokeOp(stroke(2)))

	qctx, qcancel := context.WithTimeout(context.Background(), time.Second)
	defer qcancel()
	n, err := b.Len(qctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snap, err := b.Snapshot(qctx)
	require.NoError(t, err)
	assert.Equal(t, []Op{NewStrokeOp(stroke(1)), NewStrokeOp(stroke(2))}, snap)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	_, err = b.Len(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}
