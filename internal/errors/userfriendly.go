// Package errors provides user-friendly error wrapping for the CLI surface.
package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapCaptureError wraps capture file open/read errors with context.
func WrapCaptureError(err error, path string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to read capture file %s", path),
		Reason:  extractCaptureReason(err),
		Hint:    "The file must be a pcap capture readable by libpcap",
		Try:     fmt.Sprintf("tcpdump -r %s -c 1", path),
		Err:     err,
	}
}

// WrapCacheError wraps cache load failures with context. Version mismatches
// stay fatal: the caller asked for historical state the engine can no longer
// interpret.
func WrapCacheError(err error, path string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to load cached dissection for %s", path),
		Reason:  err.Error(),
		Hint:    "The cache was written by an incompatible engine version",
		Try:     "Delete the cache file and re-run, or run without -C",
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with context.
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Known dissection levels are count-only, through-ip and detailed",
		Err:     err,
	}
}

func extractCaptureReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "no such file") {
		return "File does not exist"
	}
	if strings.Contains(errStr, "permission denied") {
		return "Permission denied reading the file"
	}
	if strings.Contains(errStr, "bad dump file format") || strings.Contains(errStr, "truncated") {
		return "File is not a valid pcap capture or is corrupt"
	}
	return errStr
}
