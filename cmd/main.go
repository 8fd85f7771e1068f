package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"timetracker/internal/cli"
	"timetracker/internal/core/tracker"
	"timetracker/internal/core/model"
	"timetracker/internal/core/worklog"
	"timetracker/internal/storage"
	"timetracker/internal/ui/notify"
	"timetracker/internal/ui/preferences"
	"timetracker/internal/ui/tray"
	"timetracker/internal/ui/window"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
)

type renderer interface {
	Render()
}

type statusView interface {
	SetRunning(running bool)
	SetStatus(status string)
}

func main() {
	rootCmd := cli.NewRootCommand(run)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(_ context.Context, options cli.Options) error {
	fyneApp := app.NewWithID("com.simpletimetracker.app")

	sink := worklog.NewFileSink(options.LogPath)
	keeper := tracker.New(options.Config, worklog.New(sink), tracker.Config{TickInterval: time.Second})
	keeper.SetNotifier(notify.New(fyneApp))

	mainWindow := window.New(fyneApp, keeper)
	mainWindow.SetOnClosed(fyneApp.Quit)

	prefsWindow := preferences.New(fyneApp, options.Config, func(config model.TrackerConfig) error {
		if options.SettingsPath == "" {
			return errors.New("no settings file location on this system")
		}
		if err := storage.SaveSettings(options.SettingsPath, config); err != nil {
			return err
		}
		slog.Info("settings saved", "path", options.SettingsPath)
		return nil
	})

	var status statusView
	if desktopApp, ok := fyneApp.(desktop.App); ok {
		status = tray.New(desktopApp, tray.Callbacks{
			OnStart: mainWindow.Start,
			OnStop:  mainWindow.Stop,
			OnLap:   mainWindow.Lap,
			OnShow:  mainWindow.Show,
			OnQuit:  mainWindow.Close,

			OnPreferences: prefsWindow.Show,
		})
	} else {
		slog.Info("system tray unsupported on this platform")
	}

	events := keeper.Subscribe(16)
	go func() {
		for event := range events {
			fyne.Do(func() {
				handleEvent(event, mainWindow, status)
			})
		}
	}()

	slog.Info("time tracker ready",
		"log_file", sink.Path(),
		"break_interval", options.Config.BreakInterval,
		"policy", options.Config.BreakPolicy,
	)
	mainWindow.Show()
	fyneApp.Run()

	// Quitting from outside the window (OS session end) skips the close intercept.
	if err := keeper.Close(); err != nil {
		slog.Error("final log write failed", "err", err)
		return err
	}
	return nil
}

func handleEvent(event tracker.Event, view renderer, status statusView) {
	switch event.Type {
	case tracker.EventStarted, tracker.EventTick:
		if event.Type == tracker.EventStarted {
			slog.Info("session started", "description", event.Description)
		}
		view.Render()
		if status != nil {
			status.SetRunning(true)
			status.SetStatus(worklog.FormatDuration(event.Elapsed) + " " + event.Description)
		}
	case tracker.EventStopped:
		slog.Info("session ended", "description", event.Description, "duration", event.Duration)
		view.Render()
		if status != nil {
			status.SetRunning(false)
			status.SetStatus("idle")
		}
	case tracker.EventBreakDue:
		slog.Info("break reminder sent", "elapsed", event.Elapsed)
	case tracker.EventPersistError:
		slog.Debug("persist error event", "message", event.Message)
	}
}
