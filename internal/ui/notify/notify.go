package notify

import "fyne.io/fyne/v2"

// Notifier sends break reminders through the desktop notification service.
type Notifier struct {
	app fyne.App
}

// New creates a notifier bound to app.
func New(app fyne.App) *Notifier {
	return &Notifier{app: app}
}

// Notify posts a notification. It may be called from any goroutine.
// Fyne exposes no per-notification display timeout; the platform default applies.
func (notifier *Notifier) Notify(title, message string) {
	notification := fyne.NewNotification(title, message)
	fyne.Do(func() {
		notifier.app.SendNotification(notification)
	})
}
