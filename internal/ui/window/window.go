package window

import (
	"image/color"
	"log/slog"

	"timetracker/internal/core/tracker"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	title       = "Simple Time Tracker"
	placeholder = "Type a quick description of what is being undertaken..."
)

// Controller is the tracker surface the window drives.
type Controller interface {
	Start(description string) error
	Stop() error
	Lap(description string) error
	Close() error
	SetLogText(text string)
	Snapshot() tracker.Snapshot
}

// Window is the main tracker window.
type Window struct {
	window      fyne.Window
	controller  Controller
	description *widget.Entry
	display     *canvas.Text
	log         *widget.Entry
	startButton *widget.Button
	stopButton  *widget.Button
	lapButton   *widget.Button
	onClosed    func()
	rendering   bool
}

// New builds the window. It is not shown until Show is called.
func New(app fyne.App, controller Controller) *Window {
	window := app.NewWindow(title)

	description := widget.NewMultiLineEntry()
	description.SetPlaceHolder(placeholder)
	description.Wrapping = fyne.TextWrapWord
	description.SetMinRowsVisible(2)

	display := canvas.NewText("00:00:00", theme.Color(theme.ColorNameForeground))
	display.Alignment = fyne.TextAlignCenter
	display.TextStyle = fyne.TextStyle{Bold: true}
	display.TextSize = 28

	logEntry := widget.NewMultiLineEntry()
	logEntry.Wrapping = fyne.TextWrapWord

	view := &Window{
		window:      window,
		controller:  controller,
		description: description,
		display:     display,
		log:         logEntry,
	}

	view.startButton = widget.NewButton("Start", view.handleStart)
	view.stopButton = widget.NewButton("Stop", view.handleStop)
	view.lapButton = widget.NewButton("Lap", view.handleLap)
	logEntry.OnChanged = view.handleLogEdit

	top := container.NewVBox(
		description,
		display,
		view.startButton,
		view.stopButton,
		view.lapButton,
		widget.NewLabel("Log:"),
	)
	window.SetContent(container.NewBorder(top, nil, nil, nil, logEntry))
	window.Resize(fyne.NewSize(400, 480))
	window.SetMaster()
	window.SetCloseIntercept(view.handleClose)

	view.Render()
	return view
}

// Show displays the window.
func (view *Window) Show() {
	view.window.Show()
	view.window.RequestFocus()
}

// SetOnClosed registers the handler run after the tracker has been closed.
func (view *Window) SetOnClosed(handler func()) {
	view.onClosed = handler
}

// Start, Stop and Lap run the same handlers as the buttons.
func (view *Window) Start() { view.handleStart() }
func (view *Window) Stop()  { view.handleStop() }
func (view *Window) Lap()   { view.handleLap() }

// Close runs the close handler as if the user closed the window.
func (view *Window) Close() { view.handleClose() }

// Render redraws the window from the controller state. Must run on the UI thread.
func (view *Window) Render() {
	snapshot := view.controller.Snapshot()

	view.display.Text = snapshot.Display
	view.display.Color = displayColor(snapshot.State)
	view.display.Refresh()

	if view.log.Text != snapshot.LogText {
		view.rendering = true
		view.log.SetText(snapshot.LogText)
		view.rendering = false
	}
}

func (view *Window) handleStart() {
	view.report(view.controller.Start(view.description.Text))
	view.Render()
}

func (view *Window) handleStop() {
	view.report(view.controller.Stop())
	view.Render()
}

func (view *Window) handleLap() {
	view.report(view.controller.Lap(view.description.Text))
	view.Render()
}

func (view *Window) handleLogEdit(text string) {
	if view.rendering {
		return
	}
	view.controller.SetLogText(text)
}

func (view *Window) handleClose() {
	if err := view.controller.Close(); err != nil {
		slog.Error("close tracker", "err", err)
	}
	if view.onClosed != nil {
		view.onClosed()
		return
	}
	view.window.Close()
}

func (view *Window) report(err error) {
	if err == nil {
		return
	}
	slog.Error("tracker action failed", "err", err)
	dialog.ShowError(err, view.window)
}

func displayColor(state tracker.State) color.Color {
	if state == tracker.StateRunning {
		return theme.Color(theme.ColorNameError)
	}
	return theme.Color(theme.ColorNameForeground)
}
