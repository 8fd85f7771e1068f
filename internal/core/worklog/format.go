package worklog

import (
	"fmt"
	"time"
)

const (
	// TimestampLayout is used for the times written into log lines.
	TimestampLayout = "2006-01-02 15:04:05"
	fileStampLayout = "2006-01-02_15-04-05"
)

// FormatSeconds renders a second count as HH:MM:SS. Hours do not wrap at 24.
func FormatSeconds(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatDuration truncates the duration to whole seconds and formats it.
func FormatDuration(duration time.Duration) string {
	return FormatSeconds(int(duration / time.Second))
}

// StartedLine is the log entry written when a session opens.
func StartedLine(at time.Time, description string) string {
	return fmt.Sprintf("Started at %s: %s", at.Format(TimestampLayout), description)
}

// EndedLine is the log entry written when a session closes.
func EndedLine(at time.Time, duration time.Duration, description string) string {
	return fmt.Sprintf("Ended at %s (Duration: %s): %s", at.Format(TimestampLayout), FormatDuration(duration), description)
}

// FileName derives the log file name from the program start time.
func FileName(startedAt time.Time) string {
	return "time_tracker_log_" + startedAt.Format(fileStampLayout) + ".txt"
}
