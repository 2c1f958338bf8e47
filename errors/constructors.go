package errors

import (
	"fmt"
	"strings"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *ConsoleError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *ConsoleError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// BackendUnavailable creates an error for a backend that cannot be reached
func BackendUnavailable(url string, err error) *ConsoleError {
	return Wrap(err, ErrCodeBackendUnavailable, fmt.Sprintf("backend not reachable at %s", url)).
		WithDetail("url", url)
}

// BackendStatus creates an error for an unexpected HTTP status
func BackendStatus(path string, status int) *ConsoleError {
	return New(ErrCodeBackendStatus, fmt.Sprintf("backend returned status %d for %s", status, path)).
		WithDetail("path", path).
		WithDetail("status", status)
}

// FeedClosed creates an error for a change-event connection that went away
func FeedClosed(scope []string, err error) *ConsoleError {
	return Wrap(err, ErrCodeFeedClosed, "change-event feed closed").
		WithDetail("scope", strings.Join(scope, "/"))
}

// SaveFailed creates an error for a dirty region whose save did not succeed
func SaveFailed(region string, err error) *ConsoleError {
	return Wrap(err, ErrCodeSaveFailed, fmt.Sprintf("saving the %s region failed", region)).
		WithDetail("region", region)
}

// PermissionDenied creates an error for an operation the user may not perform
func PermissionDenied(what string) *ConsoleError {
	return New(ErrCodePermissionDenied, fmt.Sprintf("permission denied: %s", what))
}
