// Package dates parses the date strings date rules compare: values in an
// explicit PHP-style format ("Y-m-d H:i") and free-form relative expressions
// ("tomorrow", "+1 week", "2024-01-31").
package dates

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrUnparseable is returned when a value cannot be read as a date.
var ErrUnparseable = errors.New("dates: unparseable value")

// Parser is the date facility rule evaluators depend on.
type Parser interface {
	// Parse reads value strictly in format; the value must round-trip.
	Parse(value, format string) (time.Time, error)
	// Format renders t in format.
	Format(t time.Time, format string) string
	// Guess reads value in format when given, free-form otherwise.
	Guess(value, format string) (time.Time, error)
	// StrToTime resolves absolute or relative text against now.
	StrToTime(text string) (time.Time, error)
}

// Option configures the default parser.
type Option func(*Default)

// WithLocation sets the zone values are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(d *Default) {
		if loc != nil {
			d.location = loc
		}
	}
}

// WithClock overrides the reference time used by relative expressions.
func WithClock(now func() time.Time) Option {
	return func(d *Default) {
		if now != nil {
			d.now = now
		}
	}
}

// Default implements Parser with PHP format translation and dateparse for
// free-form input.
type Default struct {
	location *time.Location
	now      func() time.Time
}

var _ Parser = (*Default)(nil)

// New constructs the default parser.
func New(opts ...Option) *Default {
	d := &Default{location: time.UTC, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Parse reads value strictly against a PHP date format.
func (d *Default) Parse(value, format string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" || format == "" {
		return time.Time{}, ErrUnparseable
	}
	if format == "U" {
		secs, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return time.Time{}, ErrUnparseable
		}
		return time.Unix(secs, 0).In(d.location), nil
	}
	layout := Layout(format)
	t, err := time.ParseInLocation(layout, value, d.location)
	if err != nil {
		return time.Time{}, ErrUnparseable
	}
	if d.Format(t, format) != value {
		return time.Time{}, ErrUnparseable
	}
	return t, nil
}

// Format renders t with a PHP date format.
func (d *Default) Format(t time.Time, format string) string {
	if format == "U" {
		return strconv.FormatInt(t.Unix(), 10)
	}
	return t.Format(Layout(format))
}

// Guess parses value using format when one is given and falls back to
// free-form parsing otherwise.
func (d *Default) Guess(value, format string) (time.Time, error) {
	if format != "" {
		return d.Parse(value, format)
	}
	return d.StrToTime(value)
}

// StrToTime resolves keywords ("now", "today", "tomorrow", "yesterday",
// "midnight"), relative offsets ("+2 days", "-1 week", "next month",
// "last year") and absolute dates, optionally combined ("tomorrow +1 hour").
func (d *Default) StrToTime(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, ErrUnparseable
	}

	if t, ok := d.relative(strings.ToLower(text)); ok {
		return t, nil
	}
	t, err := dateparse.ParseIn(text, d.location)
	if err != nil {
		return time.Time{}, ErrUnparseable
	}
	return t, nil
}

func (d *Default) relative(text string) (time.Time, bool) {
	base := d.now().In(d.location)
	tokens := strings.Fields(text)
	matched := false

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		switch token {
		case "now":
			matched = true
		case "today", "midnight":
			base = truncateDay(base)
			matched = true
		case "tomorrow":
			base = truncateDay(base).AddDate(0, 0, 1)
			matched = true
		case "yesterday":
			base = truncateDay(base).AddDate(0, 0, -1)
			matched = true
		case "next", "last":
			if i+1 >= len(tokens) {
				return time.Time{}, false
			}
			amount := 1
			if token == "last" {
				amount = -1
			}
			shifted, ok := shift(base, amount, tokens[i+1])
			if !ok {
				return time.Time{}, false
			}
			base = shifted
			matched = true
			i++
		default:
			amount, err := strconv.Atoi(token)
			if err != nil || i+1 >= len(tokens) {
				return time.Time{}, false
			}
			shifted, ok := shift(base, amount, tokens[i+1])
			if !ok {
				return time.Time{}, false
			}
			base = shifted
			matched = true
			i++
		}
	}
	return base, matched
}

func shift(t time.Time, amount int, unit string) (time.Time, bool) {
	unit = strings.TrimSuffix(unit, "s")
	switch unit {
	case "sec", "second":
		return t.Add(time.Duration(amount) * time.Second), true
	case "min", "minute":
		return t.Add(time.Duration(amount) * time.Minute), true
	case "hour":
		return t.Add(time.Duration(amount) * time.Hour), true
	case "day":
		return t.AddDate(0, 0, amount), true
	case "week":
		return t.AddDate(0, 0, 7*amount), true
	case "fortnight":
		return t.AddDate(0, 0, 14*amount), true
	case "month":
		return t.AddDate(0, amount, 0), true
	case "year":
		return t.AddDate(amount, 0, 0), true
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
