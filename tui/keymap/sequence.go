package keymap

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// SequenceState tracks a pending multi-key sequence such as gg.
type SequenceState struct {
	buffer     string
	lastUpdate time.Time
	timeout    time.Duration
}

// NewSequenceState creates a sequence handler with a 1 second timeout.
func NewSequenceState() *SequenceState {
	return NewSequenceStateWithTimeout(time.Second)
}

// NewSequenceStateWithTimeout creates a sequence handler with a custom timeout.
func NewSequenceStateWithTimeout(timeout time.Duration) *SequenceState {
	return &SequenceState{timeout: timeout}
}

// SequenceResult is the outcome of feeding one key to a SequenceState.
type SequenceResult int

const (
	// SequenceNone means the buffer cannot complete any sequence.
	SequenceNone SequenceResult = iota
	// SequencePending means more keys may complete a sequence.
	SequencePending
	// SequenceMatch means a sequence completed.
	SequenceMatch
)

// Process appends msg to the buffer and matches it against bindings. The
// buffer is cleared on a match or when nothing can match any more.
func (s *SequenceState) Process(msg tea.KeyMsg, bindings ...key.Binding) (SequenceResult, int) {
	if s.timeout > 0 && time.Since(s.lastUpdate) > s.timeout {
		s.buffer = ""
	}
	s.lastUpdate = time.Now()
	s.buffer += msg.String()

	for i, b := range bindings {
		for _, k := range b.Keys() {
			if k == s.buffer {
				s.buffer = ""
				return SequenceMatch, i
			}
		}
	}
	for _, b := range bindings {
		for _, k := range b.Keys() {
			if IsSequence(k) && len(s.buffer) < len(k) && strings.HasPrefix(k, s.buffer) {
				return SequencePending, -1
			}
		}
	}
	s.buffer = ""
	return SequenceNone, -1
}

// Pending reports whether a sequence is in progress.
func (s *SequenceState) Pending() bool {
	return s.buffer != ""
}

// Clear drops the pending sequence.
func (s *SequenceState) Clear() {
	s.buffer = ""
}

var namedKeys = map[string]bool{
	"up": true, "down": true, "left": true, "right": true,
	"home": true, "end": true, "pgup": true, "pgdown": true,
	"enter": true, "esc": true, "tab": true, "space": true,
	"delete": true, "backspace": true, "insert": true,
}

// IsSequence reports whether keyStr is several plain key presses, like
// "gg", rather than one named key like "enter" or "ctrl+s".
func IsSequence(keyStr string) bool {
	if len([]rune(keyStr)) < 2 || strings.Contains(keyStr, "+") || namedKeys[keyStr] {
		return false
	}
	return !strings.HasPrefix(keyStr, "f") || strings.Trim(keyStr[1:], "0123456789") != ""
}
