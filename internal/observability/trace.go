// Package observability provides the progress log and request metrics of a run.
package observability

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a progress line.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger writes human-readable, timestamped progress lines.
// Format: [15:04:05] INFO: message
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
	now    func() time.Time
}

// NewLoggerTo creates a Logger that writes to the given writer.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{writer: w, now: time.Now}
}

// SetClock replaces the time source (for testing).
func (l *Logger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Log writes one line at the given level.
func (l *Logger) Log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.writer, "[%s] %s: %s\n", l.now().Format("15:04:05"), level, msg)
}

// Info logs a progress or success line.
func (l *Logger) Info(format string, args ...any) { l.Log(LevelInfo, format, args...) }

// Warn logs a non-critical finding.
func (l *Logger) Warn(format string, args ...any) { l.Log(LevelWarn, format, args...) }

// Error logs a failure line.
func (l *Logger) Error(format string, args ...any) { l.Log(LevelError, format, args...) }

// Section writes a blank line followed by an upper-cased section header.
func (l *Logger) Section(title string) {
	l.mu.Lock()
	fmt.Fprintln(l.writer)
	l.mu.Unlock()
	l.Info("%s", strings.ToUpper(title))
}

// sensitiveParams are query parameter names redacted from logged URLs.
var sensitiveParams = map[string]bool{
	"access_token": true,
	"token":        true,
	"api_key":      true,
	"apikey":       true,
	"password":     true,
	"secret":       true,
}

// ScrubURL redacts sensitive query parameters from a URL for safe logging.
// Returns a safe placeholder if the URL cannot be parsed.
func ScrubURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "[unparseable URL]"
	}

	query := u.Query()
	modified := false
	for key := range query {
		if sensitiveParams[strings.ToLower(key)] {
			query.Set(key, "[REDACTED]")
			modified = true
		}
	}

	if !modified {
		return rawURL
	}

	u.RawQuery = query.Encode()
	return u.String()
}
