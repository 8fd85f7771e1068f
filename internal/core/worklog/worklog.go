package worklog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink persists the full log text.
type Sink interface {
	Write(text string) error
}

// Log is the append-only activity log. The program only appends; the user
// may replace the text wholesale through SetText.
type Log struct {
	mu   sync.Mutex
	text string
	sink Sink
}

// New creates an empty log mirrored to sink. A nil sink keeps the log in memory.
func New(sink Sink) *Log {
	return &Log{sink: sink}
}

// Append adds a line and persists the whole buffer.
func (log *Log) Append(line string) error {
	log.mu.Lock()
	if log.text == "" {
		log.text = line
	} else {
		log.text += "\n" + line
	}
	text := log.text
	log.mu.Unlock()

	return log.write(text)
}

// SetText replaces the buffer with user-edited text without persisting it.
func (log *Log) SetText(text string) {
	log.mu.Lock()
	log.text = text
	log.mu.Unlock()
}

// Text returns the current buffer.
func (log *Log) Text() string {
	log.mu.Lock()
	defer log.mu.Unlock()
	return log.text
}

// Flush persists the current buffer.
func (log *Log) Flush() error {
	return log.write(log.Text())
}

func (log *Log) write(text string) error {
	if log.sink == nil {
		return nil
	}
	return log.sink.Write(text)
}

// FileSink overwrites a single file with the full log on every write.
type FileSink struct {
	path string
}

// NewFileSink returns a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the destination file.
func (sink *FileSink) Path() string {
	return sink.path
}

// Write truncates the file and writes text to it.
func (sink *FileSink) Write(text string) (err error) {
	if dir := filepath.Dir(sink.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	file, err := os.Create(sink.path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close log file: %w", closeErr)
		}
	}()

	if _, err := file.WriteString(text); err != nil {
		return fmt.Errorf("write log file: %w", err)
	}
	return nil
}
