// Package normalize holds the pure field-cleaning functions applied to every
// raw value read from the legacy spreadsheet export. Absence is always the
// (value, false) form; an empty string is never used as an absent marker.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/equilibrar/migratr/internal/migratr/logger"
)

// CleanText trims whitespace. Blank or missing input is absent.
func CleanText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// TitleCase converts a human name to Spanish title case ("MARÍA JOSÉ" →
// "María José"). Absent input stays absent.
func TitleCase(s string) (string, bool) {
	c, ok := CleanText(s)
	if !ok {
		return "", false
	}
	return cases.Title(language.Spanish).String(c), true
}

// CleanRUT strips formatting punctuation from a Chilean RUT and upper-cases
// the verifier digit ("12.345.678-k" → "12345678K"). The check digit is not
// validated: malformed RUTs are accepted and duplicate detection downstream
// is the safety net.
func CleanRUT(s string) (string, bool) {
	c, ok := CleanText(s)
	if !ok {
		return "", false
	}
	c = strings.ReplaceAll(c, ".", "")
	c = strings.ReplaceAll(c, "-", "")
	return CleanText(strings.ToUpper(c))
}

// Accepted source date layouts. The legacy sheets are day-first; the only
// year-first form accepted is ISO.
var dateLayouts = []struct {
	sep    string
	layout string
}{
	{"/", "2/1/2006"},
	{"-", "2-1-2006"},
}

// ParseDate canonicalizes a source date to YYYY-MM-DD. Accepted inputs are
// DD/MM/YYYY, DD-MM-YYYY (one- or two-digit day and month) and YYYY-MM-DD.
// Anything else is absent: a malformed date must never abort the batch, so
// the rejection is logged for manual review instead of returned as an error.
func ParseDate(s string) (string, bool) {
	c, ok := CleanText(s)
	if !ok {
		return "", false
	}

	// Already ISO.
	if len(c) == 10 && c[4] == '-' {
		if t, err := time.Parse("2006-01-02", c); err == nil {
			return t.Format("2006-01-02"), true
		}
		logger.L().Warnw("unparseable date", "value", c)
		return "", false
	}

	for _, l := range dateLayouts {
		if !strings.Contains(c, l.sep) {
			continue
		}
		if t, err := time.Parse(l.layout, c); err == nil {
			return t.Format("2006-01-02"), true
		}
	}

	logger.L().Warnw("unparseable date", "value", c)
	return "", false
}

// CombineDateTime joins a source date and time-of-day into
// "YYYY-MM-DD HH:MM:SS". A missing or malformed time defaults to midnight;
// an absent date makes the whole result absent.
func CombineDateTime(dateStr, timeStr string) (string, bool) {
	d, ok := ParseDate(dateStr)
	if !ok {
		return "", false
	}

	tod := "00:00"
	if c, ok := CleanText(timeStr); ok {
		if t, err := time.Parse("15:04", c); err == nil {
			tod = t.Format("15:04")
		}
	}
	return d + " " + tod + ":00", true
}

// CleanAmount coerces a money string to whole currency units. Currency
// symbols and thousands separators are stripped, decimals truncated, and
// anything unparseable becomes zero. Zero-on-garbage is the migration's
// best-effort policy: a bad amount must not drop the row.
func CleanAmount(s string) int {
	c, ok := CleanText(s)
	if !ok {
		return 0
	}
	c = strings.ReplaceAll(c, "$", "")
	c = strings.ReplaceAll(c, ",", "")
	c = strings.ReplaceAll(c, " ", "")
	f, err := strconv.ParseFloat(c, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// CleanPercent parses a lenient percentage field ("40", "40.5", "40%").
// Unparseable input is zero, matching the amount policy.
func CleanPercent(s string) float64 {
	c, ok := CleanText(s)
	if !ok {
		return 0
	}
	c = strings.TrimSuffix(c, "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
	if err != nil {
		return 0
	}
	return f
}
