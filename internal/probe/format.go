package probe

import (
	"fmt"
	"strings"
)

// FormatSummary renders "Min: 1 ms, Max: 3 ms, Avg: 2.0 ms".
func FormatSummary(s Summary) string {
	return fmt.Sprintf("Min: %d ms, Max: %d ms, Avg: %.1f ms", s.MinMS, s.MaxMS, s.AvgMS)
}

// FormatDetail renders the status code, headers and, for GET, the body preview.
func FormatDetail(method Method, snap Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Response Code: %d\n\n", snap.StatusCode)
	b.WriteString("Headers:\n")
	for _, h := range snap.Headers {
		fmt.Fprintf(&b, "%s: %s\n", h.Name, h.Value)
	}
	if method == MethodGet {
		fmt.Fprintf(&b, "\nResponse Body (first %d chars):\n", PreviewLimit)
		b.WriteString(snap.BodyPreview)
	} else {
		fmt.Fprintf(&b, "\nResponse Body: not captured for %s requests\n", method)
	}
	return b.String()
}
