package dates

import "strings"

var phpTokens = map[rune]string{
	'd': "02",
	'j': "2",
	'D': "Mon",
	'l': "Monday",
	'm': "01",
	'n': "1",
	'M': "Jan",
	'F': "January",
	'Y': "2006",
	'y': "06",
	'H': "15",
	'G': "15",
	'h': "03",
	'g': "3",
	'i': "04",
	's': "05",
	'A': "PM",
	'a': "pm",
	'T': "MST",
	'e': "MST",
	'P': "-07:00",
	'O': "-0700",
	'u': "000000",
	'v': "000",
}

// Layout translates a PHP date() format into a Go time layout. A backslash
// escapes the following character.
func Layout(format string) string {
	var b strings.Builder
	escaped := false
	for _, r := range format {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if token, ok := phpTokens[r]; ok {
			b.WriteString(token)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
