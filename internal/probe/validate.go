package probe

import (
	"fmt"

	"go.uber.org/multierr"
)

// ParseMethod accepts the four supported methods, upper-case only.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodGet, MethodPost, MethodHead, MethodOptions:
		return m, nil
	}
	return "", &ConfigError{Field: "method", Reason: fmt.Sprintf("unsupported method %q (want GET, POST, HEAD or OPTIONS)", s)}
}

// Validate checks method, attempts and timeout and returns every violation
// combined. Use multierr.Errors to split them.
func (c Config) Validate() error {
	var err error
	if _, e := ParseMethod(string(c.Method)); e != nil {
		err = multierr.Append(err, e)
	}
	if c.Attempts < MinAttempts || c.Attempts > MaxAttempts {
		err = multierr.Append(err, &ConfigError{
			Field:  "attempts",
			Reason: fmt.Sprintf("%d out of range [%d, %d]", c.Attempts, MinAttempts, MaxAttempts),
		})
	}
	if c.TimeoutMS < MinTimeoutMS || c.TimeoutMS > MaxTimeoutMS {
		err = multierr.Append(err, &ConfigError{
			Field:  "timeout_ms",
			Reason: fmt.Sprintf("%d out of range [%d, %d]", c.TimeoutMS, MinTimeoutMS, MaxTimeoutMS),
		})
	}
	return err
}
