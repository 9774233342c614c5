package moodlog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
)

// DateLayout is the calendar date format written to the log.
const DateLayout = "2006-01-02"

var (
	ErrWriteFailed = errors.New("mood log write failed")
	ErrEmptyLabel  = errors.New("mood log requires an emotion label")
)

// Entry is one immutable mood record.
type Entry struct {
	Date    time.Time     `json:"date"`
	Emotion emotion.Label `json:"emotion"`
}

// Line renders the entry exactly as it is stored.
func (e Entry) Line() string {
	return fmt.Sprintf("%s | %s\n", e.Date.Format(DateLayout), e.Emotion)
}

// Logger appends entries to a flat text file. Appends are serialised within
// the process; the file is never truncated or rewritten.
type Logger struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Option customises a Logger.
type Option func(*Logger)

// WithClock overrides the time source used to date entries.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// New returns a Logger writing to path.
func New(path string, opts ...Option) *Logger {
	l := &Logger{path: path, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the log file location.
func (l *Logger) Path() string {
	return l.path
}

// Append writes one line for label and returns the recorded entry.
func (l *Logger) Append(label emotion.Label) (Entry, error) {
	if strings.TrimSpace(string(label)) == "" {
		return Entry{}, ErrEmptyLabel
	}

	entry := Entry{Date: l.now(), Emotion: label}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := appendLine(l.path, entry.Line()); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return entry, nil
}

func appendLine(path, line string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err = f.WriteString(line); err != nil {
		return err
	}
	return f.Sync()
}
