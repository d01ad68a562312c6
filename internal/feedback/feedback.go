// Package feedback appends user ratings of agent output to a JSONL audit log.
package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Rating is a thumbs up or down.
type Rating string

const (
	Up   Rating = "up"
	Down Rating = "down"
)

// ParseRating accepts up/down, yes/no and the thumb emoji.
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "yes", "+", "👍":
		return Up, nil
	case "down", "no", "-", "👎":
		return Down, nil
	}
	return "", fmt.Errorf("invalid rating %q: want up or down", s)
}

// Entry is one log record.
type Entry struct {
	Timestamp time.Time `json:"-"`
	RFPFile   string    `json:"rfp_file"`
	Agent     string    `json:"agent"`
	Output    string    `json:"output"`
	Rating    Rating    `json:"rating"`
	Comment   string    `json:"comment"`
}

// MarshalJSON writes the timestamp first, in RFC 3339 UTC.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return json.Marshal(struct {
		Timestamp string `json:"timestamp"`
		plain
	}{e.Timestamp.UTC().Format(time.RFC3339Nano), plain(e)})
}

// Logger appends entries to a file.
type Logger struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewLogger creates a logger writing to path.
func NewLogger(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Path returns the log file location.
func (l *Logger) Path() string { return l.path }

// Log validates e, stamps it when no timestamp is set and appends one line.
func (l *Logger) Log(e Entry) error {
	if e.Rating != Up && e.Rating != Down {
		return fmt.Errorf("invalid rating %q", e.Rating)
	}
	if strings.TrimSpace(e.RFPFile) == "" || strings.TrimSpace(e.Agent) == "" {
		return errors.New("feedback needs an rfp file and an agent")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating feedback directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening feedback log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("writing feedback: %w", err)
	}
	return f.Close()
}
