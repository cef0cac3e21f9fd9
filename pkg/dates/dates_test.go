package dates_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-formguard/pkg/dates"
)

func fixedParser() *dates.Default {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	return dates.New(dates.WithClock(func() time.Time { return now }))
}

func TestLayoutTranslatesPHPTokens(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Y-m-d":      "2006-01-02",
		"d/m/Y H:i":  "02/01/2006 15:04",
		`Y-m-d\TH:i`: "2006-01-02T15:04",
		"D, j M Y":   "Mon, 2 Jan 2006",
		"g:i a":      "3:04 pm",
	}
	for format, want := range cases {
		if got := dates.Layout(format); got != want {
			t.Errorf("Layout(%q) = %q want %q", format, got, want)
		}
	}
}

func TestParseRequiresRoundTrip(t *testing.T) {
	t.Parallel()

	p := fixedParser()
	got, err := p.Parse("2024-02-29", "Y-m-d")
	if err != nil {
		t.Fatalf("parse leap day: %v", err)
	}
	if got.Day() != 29 || got.Month() != time.February {
		t.Fatalf("unexpected date %v", got)
	}

	for _, bad := range []string{"2024-2-29", "2023-02-29", "29/02/2024", ""} {
		if _, err := p.Parse(bad, "Y-m-d"); !errors.Is(err, dates.ErrUnparseable) {
			t.Errorf("Parse(%q) expected ErrUnparseable, got %v", bad, err)
		}
	}
}

func TestStrToTimeRelative(t *testing.T) {
	t.Parallel()

	p := fixedParser()
	cases := map[string]time.Time{
		"now":              time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		"today":            time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"tomorrow":         time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		"yesterday":        time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		"+2 days":          time.Date(2024, 3, 17, 10, 30, 0, 0, time.UTC),
		"-1 week":          time.Date(2024, 3, 8, 10, 30, 0, 0, time.UTC),
		"next month":       time.Date(2024, 4, 15, 10, 30, 0, 0, time.UTC),
		"tomorrow +1 hour": time.Date(2024, 3, 16, 1, 0, 0, 0, time.UTC),
	}
	for text, want := range cases {
		got, err := p.StrToTime(text)
		if err != nil {
			t.Errorf("StrToTime(%q): %v", text, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("StrToTime(%q) = %v want %v", text, got, want)
		}
	}
}

func TestStrToTimeAbsoluteAndInvalid(t *testing.T) {
	t.Parallel()

	p := fixedParser()
	got, err := p.StrToTime("2024-01-31")
	if err != nil {
		t.Fatalf("absolute: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.January || got.Day() != 31 {
		t.Fatalf("unexpected %v", got)
	}
	if _, err := p.StrToTime("not a date"); !errors.Is(err, dates.ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
}

func TestGuessUsesFormatWhenGiven(t *testing.T) {
	t.Parallel()

	p := fixedParser()
	if _, err := p.Guess("31/01/2024", "d/m/Y"); err != nil {
		t.Fatalf("guess with format: %v", err)
	}
	if _, err := p.Guess("31/01/2024", "Y-m-d"); err == nil {
		t.Fatalf("expected failure for mismatching format")
	}
}
