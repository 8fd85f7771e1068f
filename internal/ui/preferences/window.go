package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"timetracker/internal/core/model"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Window edits the saved settings. Changes apply on the next start; the
// running tracker keeps the configuration it was started with.
type Window struct {
	window      fyne.Window
	config      model.TrackerConfig
	onSave      func(model.TrackerConfig) error
	interval    *widget.Entry
	policy      *widget.Select
	stopOnClose *widget.Check
	logDir      *widget.Entry
	status      *widget.Label
}

// New creates a preferences window.
func New(app fyne.App, config model.TrackerConfig, onSave func(model.TrackerConfig) error) *Window {
	window := app.NewWindow("Simple Time Tracker Settings")

	interval := widget.NewEntry()
	policy := widget.NewSelect([]string{string(model.BreakPolicyWallClock), string(model.BreakPolicyElapsed)}, nil)
	stopOnClose := widget.NewCheck("Close the running session when the window closes", nil)
	logDir := widget.NewEntry()
	status := widget.NewLabel("Changes apply on next start.")

	form := container.NewVBox(
		widget.NewLabelWithStyle("Breaks", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Remind me every"), interval, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Reminder policy"), policy),
		widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Directory"), nil, logDir),
		stopOnClose,
		status,
	)

	saveButton := widget.NewButton("Save", nil)
	cancelButton := widget.NewButton("Cancel", nil)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 300))

	prefs := &Window{
		window:      window,
		onSave:      onSave,
		interval:    interval,
		policy:      policy,
		stopOnClose: stopOnClose,
		logDir:      logDir,
		status:      status,
	}
	prefs.UpdateConfig(config)

	saveButton.OnTapped = prefs.handleSave
	cancelButton.OnTapped = func() {
		prefs.UpdateConfig(prefs.config)
		window.Hide()
	}
	window.SetCloseIntercept(window.Hide)

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateConfig replaces window values.
func (prefs *Window) UpdateConfig(config model.TrackerConfig) {
	prefs.config = config
	prefs.interval.SetText(fmt.Sprintf("%d", int(config.BreakInterval/time.Minute)))
	prefs.policy.SetSelected(string(config.BreakPolicy))
	prefs.stopOnClose.SetChecked(config.StopOnClose)
	prefs.logDir.SetText(config.LogDir)
}

func (prefs *Window) handleSave() {
	config := prefs.config

	minutes, ok := parsePositiveInt(prefs.interval.Text)
	if !ok {
		prefs.status.SetText("Break interval must be a positive number of minutes.")
		return
	}
	config.BreakInterval = time.Duration(minutes) * time.Minute
	config.BreakPolicy = model.BreakPolicy(prefs.policy.Selected)
	config.StopOnClose = prefs.stopOnClose.Checked
	if dir := strings.TrimSpace(prefs.logDir.Text); dir != "" {
		config.LogDir = dir
	}

	if err := config.Validate(); err != nil {
		prefs.status.SetText(err.Error())
		return
	}
	if prefs.onSave != nil {
		if err := prefs.onSave(config); err != nil {
			prefs.status.SetText(err.Error())
			return
		}
	}

	prefs.config = config
	prefs.status.SetText("Saved. Changes apply on next start.")
	prefs.window.Hide()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
