package ui

import (
	"fmt"
	"io"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const windowTitle = "LAN WhiteBoard"

// App is the desktop window around the board.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	board   *BoardWidget
	status  *widget.Label

	// Save writes the current drawing; it is set before Run.
	Save func(w io.Writer) error
}

func NewApp(board *BoardWidget, onClear, onUndo func()) *App {
	a := &App{
		fyneApp: app.New(),
		board:   board,
		status:  widget.NewLabel("Waiting for connection..."),
	}
	a.window = a.fyneApp.NewWindow(windowTitle + " - Waiting for connection...")
	a.window.Resize(fyne.NewSize(800, 560))

	toolbar := NewToolbar(board, Actions{
		OnClear: onClear,
		OnUndo:  onUndo,
		OnSave:  a.showSaveDialog,
	})
	a.window.SetContent(container.NewBorder(toolbar, a.status, nil, nil, board))

	undo := &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	a.window.Canvas().AddShortcut(undo, func(fyne.Shortcut) { call(onUndo)() })
	return a
}

// SetStatus updates the title and status line. Safe from any goroutine.
func (a *App) SetStatus(text string) {
	fyne.Do(func() {
		a.window.SetTitle(windowTitle + " - " + text)
		a.status.SetText(text)
	})
}

// Run blocks on the fyne event loop until the window closes.
func (a *App) Run() {
	a.window.ShowAndRun()
}

func (a *App) Quit() {
	fyne.Do(a.fyneApp.Quit)
}

func (a *App) showSaveDialog() {
	if a.Save == nil {
		a.status.SetText("Save not available")
		return
	}
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if w == nil {
			return
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Printf("[UI] Error closing %s: %v", w.URI(), err)
			}
		}()
		if err := a.Save(w); err != nil {
			log.Printf("[UI] Save to %s failed: %v", w.URI(), err)
			dialog.ShowError(err, a.window)
			return
		}
		a.status.SetText(fmt.Sprintf("Saved %s", w.URI().Name()))
	}, a.window)
	d.SetFileName("whiteboard.pdf")
	d.Show()
}
