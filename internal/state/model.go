package state

import "fmt"

// OpType tags the variant carried by an Op.
type OpType string

const (
	OpNone   OpType = ""
	OpStroke OpType = "LINE"
	OpClear  OpType = "CLEAR"
	OpUndo   OpType = "UNDO"
)

// Stroke is one line segment of a freehand path, in surface-local coordinates.
type Stroke struct {
	X1, Y1 int
	X2, Y2 int
	Color  string
	Width  int
}

func (s Stroke) Validate() error {
	if s.Width < 1 {
		return fmt.Errorf("stroke width %d must be at least 1", s.Width)
	}
	if s.Color == "" {
		return fmt.Errorf("stroke color is empty")
	}
	return nil
}

// Op is a single whiteboard mutation. Stroke is only meaningful for OpStroke,
// UndoOf only for OpUndo (it names the kind of entry that was undone and is
// informational).
type Op struct {
	Type   OpType
	Stroke Stroke
	UndoOf OpType
}

func NewStrokeOp(s Stroke) Op { return Op{Type: OpStroke, Stroke: s} }

func NewClearOp() Op { return Op{Type: OpClear} }

func NewUndoOp(of OpType) Op { return Op{Type: OpUndo, UndoOf: of} }

func (o Op) String() string {
	switch o.Type {
	case OpStroke:
		s := o.Stroke
		return fmt.Sprintf("LINE %d %d %d %d %s %d", s.X1, s.Y1, s.X2, s.Y2, s.Color, s.Width)
	case OpUndo:
		if o.UndoOf == OpNone {
			return "UNDO"
		}
		return "UNDO " + string(o.UndoOf)
	case OpNone:
		return "NOOP"
	default:
		return string(o.Type)
	}
}
