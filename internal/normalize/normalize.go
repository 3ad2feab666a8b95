// Package normalize holds the pure field-normalization helpers shared by
// every source adapter: email extraction, whitespace cleanup, deadline
// canonicalization and open/closed classification.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

var emailRe = regexp.MustCompile(`[A-Za-z0-9_.+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)+`)

// ExtractEmails returns every syntactically valid email address in text, in
// order of first appearance.
func ExtractEmails(text string) []string {
	return emailRe.FindAllString(text, -1)
}

// FirstEmail returns the first email address found in text, or "".
func FirstEmail(text string) string {
	return emailRe.FindString(text)
}

// FormatDescription collapses any run of whitespace (including NBSP) to a
// single space and trims both ends. Idempotent.
func FormatDescription(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.Join(strings.Fields(text), " ")
}

// UniformDate canonicalizes raw to YYYY-MM-DD when it parses as a calendar
// date. Unparseable input comes back verbatim; parse failure is a normal
// outcome, not an error.
func UniformDate(raw string) string {
	t, err := dateparse.ParseAny(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}

// Status classifies a deadline as open or closed relative to the current
// date. Closed only when raw parses and falls strictly before today;
// unparseable, absent and future deadlines are open.
func Status(raw string) string {
	return statusAt(raw, time.Now().UTC())
}

func statusAt(raw string, now time.Time) string {
	t, err := dateparse.ParseAny(strings.TrimSpace(raw))
	if err != nil {
		return StatusOpen
	}
	y, m, d := t.Date()
	deadline := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if deadline.Before(today) {
		return StatusClosed
	}
	return StatusOpen
}
