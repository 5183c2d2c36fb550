package probe

import (
	"errors"
	"net/url"
	"strings"
)

// NormalizeTarget trims raw and prefixes http:// unless it already carries
// an http:// or https:// scheme. No further validation happens here.
func NormalizeTarget(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &InvalidInputError{Input: raw}
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "http://" + s
	}
	return s, nil
}

func parseTarget(target string) (*url.URL, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, &MalformedURLError{URL: target, Err: err}
	}
	if u.Host == "" {
		return nil, &MalformedURLError{URL: target, Err: errors.New("missing host")}
	}
	return u, nil
}
