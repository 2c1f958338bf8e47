package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/console/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates an error handler writing to stderr.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message for err based on its code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	w := h.Out

	var details map[string]interface{}
	if consoleErr, ok := err.(*errors.ConsoleError); ok {
		details = consoleErr.Details
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(w, "❌ Configuration not found. Create console.yml with a server.url or pass --config.\n")

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(w, "❌ Invalid configuration: %v\n", err)
		fmt.Fprintf(w, "Run 'console config schema' to see the accepted fields.\n")

	case errors.ErrCodeBackendUnavailable:
		fmt.Fprintf(w, "❌ Backend not reachable")
		if url, ok := details["url"]; ok {
			fmt.Fprintf(w, " at %v", url)
		}
		fmt.Fprintf(w, ". Check server.url, or start one with 'console devserver'.\n")

	case errors.ErrCodeBackendStatus:
		fmt.Fprintf(w, "❌ Backend rejected the request: %v\n", err)

	case errors.ErrCodePermissionDenied:
		fmt.Fprintf(w, "❌ %v\n", err)
		fmt.Fprintf(w, "Select a group, or set scope.global_permission if you may view everything.\n")

	default:
		fmt.Fprintf(w, "❌ Error: %v\n", err)
	}

	if h.Verbose {
		if consoleErr, ok := err.(*errors.ConsoleError); ok {
			fmt.Fprintf(w, "\nError details:\n%s\n", consoleErr.ToJSON())
		}
	}
	return err
}
