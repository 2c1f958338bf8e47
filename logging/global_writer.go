package logging

import (
	"io"
	"os"
	"sync"
)

// globalWriter is the stderr sink shared by every logger. Its target can be
// swapped at runtime, and it goes quiet while the TUI owns the terminal.
type globalWriter struct {
	mu    sync.RWMutex
	w     io.Writer
	muted bool
}

// Write implements the io.Writer interface.
func (gw *globalWriter) Write(p []byte) (n int, err error) {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	if gw.muted {
		return len(p), nil
	}
	return gw.w.Write(p)
}

// Set changes the underlying writer.
func (gw *globalWriter) Set(w io.Writer) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.w = w
}

func (gw *globalWriter) mute(on bool) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.muted = on
}

var defaultGlobalWriter = &globalWriter{w: os.Stderr}

// SetGlobalOutput redirects the stderr sink of all loggers.
func SetGlobalOutput(w io.Writer) {
	defaultGlobalWriter.Set(w)
}
