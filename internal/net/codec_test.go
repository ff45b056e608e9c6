package net

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LanBoard/internal/state"
)

func TestStrokeRoundTrip(t *testing.T) {
	strokes := []state.Stroke{
		{X1: 10, Y1: 10, X2: 20, Y2: 20, Color: "black", Width: 5},
		{X1: 0, Y1: 0, X2: 0, Y2: 0, Color: "white", Width: 1},
		{X1: -4, Y1: 7, X2: 1200, Y2: -900, Color: "#ff8800", Width: 20},
	}
	for _, s := range strokes {
		op := state.NewStrokeOp(s)
		got, rest, err := Decode(Encode(op))
		require.NoError(t, err)
		assert.Empty(t, rest)
		assert.Equal(t, op, got)
	}
}

func TestEncodeFormat(t *testing.T) {
	assert.Equal(t, "LINE 10 10 20 20 black 5\n",
		string(Encode(state.NewStrokeOp(state.Stroke{X1: 10, Y1: 10, X2: 20, Y2: 20, Color: "black", Width: 5}))))
	assert.Equal(t, "CLEAR\n", string(Encode(state.NewClearOp())))
	assert.Equal(t, "UNDO LINE\n", string(Encode(state.NewUndoOp(state.OpStroke))))
	assert.Equal(t, "UNDO\n", string(Encode(state.NewUndoOp(state.OpNone))))
}

func TestPartialLineBuffering(t *testing.T) {
	line := "LINE 1 2 3 4 red 5\n"
	want := state.NewStrokeOp(state.Stroke{X1: 1, Y1: 2, X2: 3, Y2: 4, Color: "red", Width: 5})

	for i := 0; i < len(line); i++ {
		for j := i; j < len(line); j++ {
			var d Decoder
			var got []state.Op
			for _, part := range []string{line[:i], line[i:j], line[j:]} {
				d.Write([]byte(part))
				for {
					op, err := d.Next()
					if err != nil {
						assert.ErrorIs(t, err, ErrIncomplete)
						break
					}
					got = append(got, op)
				}
			}
			require.Len(t, got, 1, "split at %d/%d", i, j)
			assert.Equal(t, want, got[0])
			assert.Zero(t, d.Buffered())
		}
	}
}

func TestDecodeIncompleteKeepsBuffer(t *testing.T) {
	buf := []byte("LINE 1 2")
	_, rest, err := Decode(buf)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, buf, rest)
}

func TestMalformedLineDoesNotStopDecoding(t *testing.T) {
	var d Decoder
	d.Write([]byte("LINE abc\nLINE 1 2 3 4 red 5\n"))

	_, err := d.Next()
	assert.ErrorIs(t, err, ErrDecode)

	op, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, state.OpStroke, op.Type)

	_, err = d.Next()
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{
		"LINE abc",
		"LINE 1 2 3 4 red",
		"LINE 1 2 3 4 red 5 6",
		"LINE 1 2 3 x red 5",
		"LINE 1 2 3 4 red five",
		"LINE 1 2 3 4 red 0",
		"CIRCLE 1 2 3",
		"line 1 2 3 4 red 5",
	} {
		_, err := ParseLine(line)
		assert.ErrorIs(t, err, ErrDecode, line)
	}
}

func TestEmptyLinesAreNoops(t *testing.T) {
	op, rest, err := Decode([]byte("\nCLEAR\n"))
	require.NoError(t, err)
	assert.Equal(t, state.OpNone, op.Type)
	assert.Equal(t, "CLEAR\n", string(rest))

	var d Decoder
	d.Write([]byte("\n\n   \nCLEAR\n"))
	op, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, state.NewClearOp(), op)
}

func TestUndoWordIsInformational(t *testing.T) {
	op, err := ParseLine("UNDO LINE")
	require.NoError(t, err)
	assert.Equal(t, state.NewUndoOp(state.OpStroke), op)

	op, err = ParseLine("UNDO SOMETHING")
	require.NoError(t, err)
	assert.Equal(t, state.OpUndo, op.Type)

	op, err = ParseLine("UNDO")
	require.NoError(t, err)
	assert.Equal(t, state.NewUndoOp(state.OpNone), op)
}

func TestDecoderDropsSentinels(t *testing.T) {
	var d Decoder
	d.Write([]byte{Sentinel, Sentinel})
	d.Write([]byte("CLE"))
	d.Write([]byte{Sentinel})
	d.Write([]byte("AR\n"))

	op, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, state.NewClearOp(), op)
}

func TestOverlongLineIsDiscarded(t *testing.T) {
	var d Decoder
	d.Write([]byte(strings.Repeat("x", MaxLineLength+1)))
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrDecode)
	assert.Zero(t, d.Buffered())

	d.Write([]byte("CLEAR\n"))
	op, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, state.OpClear, op.Type)
}
