package ui

import (
	"image/color"

	"LanBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Actions are the toolbar commands that reach beyond the widget itself.
type Actions struct {
	OnClear func()
	OnUndo  func()
	OnSave  func()
}

// Remember the last colour so switching back from the eraser restores it.
var lastSelectedColor color.Color = color.Black

type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

func NewToolbar(board *BoardWidget, actions Actions) fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			board.SetColor(state.ColorName(lastSelectedColor))
		}), // Pen
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			board.SetColor(eraserColor)
		}), // Eraser
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), call(actions.OnUndo)),
		widget.NewToolbarAction(theme.DeleteIcon(), call(actions.OnClear)),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), call(actions.OnSave)),
	)

	onColorTapped := func(c color.Color) {
		lastSelectedColor = c
		board.SetColor(state.ColorName(c))
	}
	colorBox := container.NewHBox(
		newColorSwatch(color.Black, onColorTapped),
		newColorSwatch(color.NRGBA{R: 255, A: 255}, onColorTapped),
		newColorSwatch(color.NRGBA{G: 255, A: 255}, onColorTapped),
		newColorSwatch(color.NRGBA{B: 255, A: 255}, onColorTapped),
		newColorSwatch(color.NRGBA{R: 255, G: 255, A: 255}, onColorTapped),
	)

	sizeSlider := widget.NewSlider(1, 20)
	sizeSlider.Step = 1
	sizeSlider.SetValue(float64(board.Width()))
	sizeSlider.OnChanged = func(v float64) {
		board.SetWidth(int(v))
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), sizeSlider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
	)
}

func call(fn func()) func() {
	return func() {
		if fn != nil {
			fn()
		}
	}
}
