package state

// Log is the ordered history of applied Stroke and Clear operations,
// most-recent-last. It is not safe for concurrent use; the Board owns it.
type Log struct {
	entries []Op
}

func NewLog() *Log {
	return &Log{entries: make([]Op, 0, 64)}
}

// Push records an applied operation. Anything other than a Stroke or Clear is
// ignored: Undo mutates the log but is never stored in it.
func (l *Log) Push(op Op) bool {
	if op.Type != OpStroke && op.Type != OpClear {
		return false
	}
	l.entries = append(l.entries, op)
	return true
}

// Pop removes and returns the most recent entry.
func (l *Log) Pop() (Op, bool) {
	if len(l.entries) == 0 {
		return Op{}, false
	}
	last := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return last, true
}

func (l *Log) Reset() {
	l.entries = l.entries[:0]
}

func (l *Log) Len() int {
	return len(l.entries)
}

// Strokes returns the logged strokes in application order.
func (l *Log) Strokes() []Stroke {
	strokes := make([]Stroke, 0, len(l.entries))
	for _, op := range l.entries {
		if op.Type == OpStroke {
			strokes = append(strokes, op.Stroke)
		}
	}
	return strokes
}

// Snapshot copies the entries so they can leave the owning goroutine.
func (l *Log) Snapshot() []Op {
	out := make([]Op, len(l.entries))
	copy(out, l.entries)
	return out
}
