package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// InvalidInputError reports a blank target.
type InvalidInputError struct {
	Input string
}

func (e *InvalidInputError) Error() string {
	return "Please enter a URL"
}

// MalformedURLError reports a normalized target that does not parse as a URL.
type MalformedURLError struct {
	URL string
	Err error
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed URL %q: %v", e.URL, e.Err)
}

func (e *MalformedURLError) Unwrap() error { return e.Err }

// TransportError reports a failed attempt. Attempt is zero-based.
type TransportError struct {
	Attempt int
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("attempt %d: %v", e.Attempt+1, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the attempt failed because a deadline passed.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, ErrReadTimeout) || errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// EmptyInputError is returned by Summarize when given no durations.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "no durations to summarize"
}

// ConfigError reports a Config field outside its allowed range.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Reason
}

// ErrReadTimeout is the cause when the body stalls longer than the timeout.
var ErrReadTimeout = errors.New("read timed out")

// FormatError renders err the way callers display a failed probe: a short
// line in place of the summary and a descriptive block in place of the detail.
// A blank target is reported as a bare prompt without the "Error: " prefix.
func FormatError(err error) (summary, detail string) {
	if err == nil {
		return "", ""
	}
	detail = "Error occurred: " + errorKind(err) + ": " + err.Error()
	var ie *InvalidInputError
	if errors.As(err, &ie) {
		return ie.Error(), detail
	}
	return "Error: " + err.Error(), detail
}

func errorKind(err error) string {
	var (
		ie *InvalidInputError
		me *MalformedURLError
		te *TransportError
		ee *EmptyInputError
		ce *ConfigError
	)
	switch {
	case errors.As(err, &ie):
		return "invalid input"
	case errors.As(err, &me):
		return "malformed url"
	case errors.As(err, &te):
		if te.Timeout() {
			return "transport timeout"
		}
		return "transport error"
	case errors.As(err, &ee):
		return "empty input"
	case errors.As(err, &ce):
		return "invalid config"
	}
	return "error"
}
