package net

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"LanBoard/internal/state"
)

const (
	delimiter = '\n'
	// MaxLineLength caps how much a peer may send without a delimiter before
	// the partial line is thrown away.
	MaxLineLength = 4096
	// Sentinel is the heartbeat byte. It never appears in an encoded line.
	Sentinel byte = 0x00
)

var (
	ErrDecode     = errors.New("malformed line")
	ErrIncomplete = errors.New("no complete line buffered")
)

// Encode renders op as one protocol line, including the trailing delimiter.
func Encode(op state.Op) []byte {
	var line string
	switch op.Type {
	case state.OpStroke:
		s := op.Stroke
		line = fmt.Sprintf("LINE %d %d %d %d %s %d", s.X1, s.Y1, s.X2, s.Y2, s.Color, s.Width)
	case state.OpClear:
		line = "CLEAR"
	case state.OpUndo:
		line = "UNDO"
		if op.UndoOf != state.OpNone {
			line += " " + string(op.UndoOf)
		}
	default:
		line = ""
	}
	return append([]byte(line), delimiter)
}

// Decode consumes buf up to and including the first delimiter. It returns
// ErrIncomplete, with rest == buf, when no full line is buffered yet. An empty
// line decodes to a zero Op. A malformed line is consumed and reported with an
// error wrapping ErrDecode so the caller can move on to rest.
func Decode(buf []byte) (op state.Op, rest []byte, err error) {
	i := bytes.IndexByte(buf, delimiter)
	if i < 0 {
		return state.Op{}, buf, ErrIncomplete
	}
	line := buf[:i]
	op, err = ParseLine(string(line))
	return op, buf[i+1:], err
}

// ParseLine decodes a single line without its delimiter.
func ParseLine(line string) (state.Op, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return state.Op{}, nil
	}

	switch state.OpType(fields[0]) {
	case state.OpStroke:
		return parseStroke(line, fields[1:])
	case state.OpClear:
		return state.NewClearOp(), nil
	case state.OpUndo:
		var of state.OpType
		if len(fields) > 1 {
			of = state.OpType(fields[1])
		}
		return state.NewUndoOp(of), nil
	default:
		return state.Op{}, fmt.Errorf("%w: unknown command %q", ErrDecode, fields[0])
	}
}

func parseStroke(line string, args []string) (state.Op, error) {
	if len(args) != 6 {
		return state.Op{}, fmt.Errorf("%w: %q: want 6 fields, got %d", ErrDecode, line, len(args))
	}
	var coords [4]int
	for i := range coords {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return state.Op{}, fmt.Errorf("%w: %q: coordinate %d: %v", ErrDecode, line, i+1, err)
		}
		coords[i] = v
	}
	width, err := strconv.Atoi(args[5])
	if err != nil {
		return state.Op{}, fmt.Errorf("%w: %q: width: %v", ErrDecode, line, err)
	}

	s := state.Stroke{
		X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3],
		Color: args[4],
		Width: width,
	}
	if err := s.Validate(); err != nil {
		return state.Op{}, fmt.Errorf("%w: %q: %v", ErrDecode, line, err)
	}
	return state.NewStrokeOp(s), nil
}

// Decoder accumulates bytes from a stream and yields complete operations.
// Heartbeat sentinels are dropped on the way in, so a heartbeat sent on the
// data connection never corrupts framing.
type Decoder struct {
	buf []byte
}

func (d *Decoder) Write(p []byte) (int, error) {
	for _, c := range p {
		if c != Sentinel {
			d.buf = append(d.buf, c)
		}
	}
	return len(p), nil
}

// Next returns the next operation in the buffer, skipping empty lines. It
// returns ErrIncomplete once only a partial line (or nothing) is left.
func (d *Decoder) Next() (state.Op, error) {
	for {
		op, rest, err := Decode(d.buf)
		if errors.Is(err, ErrIncomplete) {
			if len(d.buf) > MaxLineLength {
				n := len(d.buf)
				d.buf = nil
				return state.Op{}, fmt.Errorf("%w: %d bytes without a line break", ErrDecode, n)
			}
			d.compact()
			return state.Op{}, err
		}
		d.buf = rest
		if err != nil {
			return state.Op{}, err
		}
		if op.Type != state.OpNone {
			return op, nil
		}
	}
}

// Buffered is the number of bytes held for a line that has not ended yet.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) compact() {
	if len(d.buf) == 0 {
		d.buf = nil
		return
	}
	if cap(d.buf)-len(d.buf) > 4096 {
		d.buf = append([]byte(nil), d.buf...)
	}
}
