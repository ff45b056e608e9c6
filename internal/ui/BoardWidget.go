package ui

import (
	"image/color"
	"sync"

	"LanBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	defaultColor = "black"
	defaultWidth = 5
	eraserColor  = "white"
)

// BoardWidget is the drawing surface. Pointer drags become one Stroke per
// motion event through OnStroke; what is actually shown is driven only by
// ApplyStroke and ApplyClear, which the Board calls.
type BoardWidget struct {
	widget.BaseWidget

	mu      sync.RWMutex
	strokes []state.Stroke

	drawing      bool
	last         *fyne.Position
	currentColor string
	currentWidth int

	OnStroke func(s state.Stroke)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ state.Surface = (*BoardWidget)(nil)

func NewBoardWidget() *BoardWidget {
	b := &BoardWidget{
		strokes:      make([]state.Stroke, 0),
		currentColor: defaultColor,
		currentWidth: defaultWidth,
	}
	b.ExtendBaseWidget(b)
	return b
}

// ApplyStroke and ApplyClear may be called from any goroutine; the change is
// handed to the fyne main goroutine in call order.
func (b *BoardWidget) ApplyStroke(s state.Stroke) {
	fyne.Do(func() {
		b.mu.Lock()
		b.strokes = append(b.strokes, s)
		b.mu.Unlock()
		b.Refresh()
	})
}

func (b *BoardWidget) ApplyClear() {
	fyne.Do(func() {
		b.mu.Lock()
		b.strokes = b.strokes[:0]
		b.mu.Unlock()
		b.Refresh()
	})
}

func (b *BoardWidget) SetColor(name string) {
	b.currentColor = name
}

func (b *BoardWidget) SetWidth(w int) {
	if w < 1 {
		w = 1
	}
	b.currentWidth = w
}

func (b *BoardWidget) Width() int { return b.currentWidth }

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.drawing = true
		pos := e.Position
		b.last = &pos
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.drawing = false
		b.last = nil
	}
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if !b.drawing {
		return
	}
	pos := e.Position
	if b.last == nil {
		b.last = &pos
		return
	}
	s := state.Stroke{
		X1: int(b.last.X), Y1: int(b.last.Y),
		X2: int(pos.X), Y2: int(pos.Y),
		Color: b.currentColor,
		Width: b.currentWidth,
	}
	b.last = &pos
	if s.X1 == s.X2 && s.Y1 == s.Y2 {
		return
	}
	if b.OnStroke != nil {
		b.OnStroke(s)
	}
}

func (b *BoardWidget) DragEnd() {
	b.last = nil
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}
func (b *BoardWidget) MouseOut() {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b}
	r.background = canvas.NewRectangle(color.White)
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	r.board.mu.RLock()
	defer r.board.mu.RUnlock()

	objects := make([]fyne.CanvasObject, 0, len(r.board.strokes)+1)
	objects = append(objects, r.background)
	for _, s := range r.board.strokes {
		segment := canvas.NewLine(state.ParseColor(s.Color))
		segment.StrokeWidth = float32(s.Width)
		segment.Position1 = fyne.NewPos(float32(s.X1), float32(s.Y1))
		segment.Position2 = fyne.NewPos(float32(s.X2), float32(s.Y2))
		objects = append(objects, segment)
	}
	return objects
}

func (r *boardWidgetRenderer) Refresh() {
	canvas.Refresh(r.board)
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(600, 400)
}

func (r *boardWidgetRenderer) Destroy() {}
