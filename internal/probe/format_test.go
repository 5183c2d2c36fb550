package probe

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatSummary(t *testing.T) {
	got := FormatSummary(Summary{MinMS: 12, MaxMS: 40, AvgMS: 23.333})
	if want := "Min: 12 ms, Max: 40 ms, Avg: 23.3 ms"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestFormatDetail(t *testing.T) {
	snap := Snapshot{
		StatusCode:  200,
		Headers:     []Header{{Name: "Content-Type", Value: "text/html"}, {Name: "Server", Value: "nginx"}},
		BodyPreview: "<html>",
	}
	got := FormatDetail(MethodGet, snap)
	want := "Response Code: 200\n\nHeaders:\nContent-Type: text/html\nServer: nginx\n\nResponse Body (first 1000 chars):\n<html>"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}

	got = FormatDetail(MethodHead, snap)
	if strings.Contains(got, "<html>") {
		t.Fatalf("HEAD detail must not include body: %q", got)
	}
	if !strings.Contains(got, "not captured for HEAD") {
		t.Fatalf("HEAD detail should explain missing body: %q", got)
	}
}

func TestFormatError(t *testing.T) {
	sum, detail := FormatError(&TransportError{Attempt: 0, Err: errors.New("connection refused")})
	if sum != "Error: attempt 1: connection refused" {
		t.Fatalf("summary %q", sum)
	}
	if detail != "Error occurred: transport error: attempt 1: connection refused" {
		t.Fatalf("detail %q", detail)
	}

	sum, detail = FormatError(&InvalidInputError{})
	if sum != "Please enter a URL" || detail != "Error occurred: invalid input: Please enter a URL" {
		t.Fatalf("got %q / %q", sum, detail)
	}

	if _, d := FormatError(&TransportError{Err: ErrReadTimeout}); !strings.Contains(d, "transport timeout") {
		t.Fatalf("timeout detail %q", d)
	}

	if s, d := FormatError(nil); s != "" || d != "" {
		t.Fatalf("nil error should format empty")
	}
}
