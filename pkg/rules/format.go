package rules

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

var (
	emailPattern   = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")
	numberPattern  = regexp.MustCompile(`^(?:-?\d+|-?\d{1,3}(?:,\d{3})+)?(?:\.\d+)?$`)
	numericPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)
	integerPattern = regexp.MustCompile(`^[+-]?\d+$`)
	alphaPattern   = regexp.MustCompile(`^[\pL\pM]+$`)
	alphaNum       = regexp.MustCompile(`^[\pL\pM\pN]+$`)
	alphaDash      = regexp.MustCompile(`^[\pL\pM\pN_-]+$`)
	dateISOPattern = regexp.MustCompile(`^\d{4}[/\-](0?[1-9]|1[012])[/\-](0?[1-9]|[12][0-9]|3[01])$`)
)

func matches(re *regexp.Regexp) Func {
	return func(_ FieldContext, value any, _ Params) Result {
		for _, v := range valueStrings(value) {
			if !re.MatchString(v) {
				return Fail
			}
		}
		return Pass
	}
}

func number(_ FieldContext, value any, _ Params) Result {
	text := ToString(value)
	return Bool(text != "" && numberPattern.MatchString(text))
}

func urlMethod(_ FieldContext, value any, _ Params) Result {
	text := ToString(value)
	if strings.ContainsAny(text, " \t\n") {
		return Fail
	}
	u, err := url.Parse(text)
	if err != nil || u.Host == "" {
		return Fail
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp", "sftp", "":
	default:
		return Fail
	}
	if u.Scheme == "" && !strings.HasPrefix(text, "//") {
		return Fail
	}
	return Pass
}

var booleanValues = []string{"true", "false", "0", "1"}

func boolean(_ FieldContext, value any, _ Params) Result {
	return Bool(containsString(booleanValues, lower(ToString(value))))
}

func stringMethod(_ FieldContext, value any, _ Params) Result {
	_, ok := value.(string)
	return Bool(ok || value == nil)
}

func array(fc FieldContext, value any, _ Params) Result {
	switch value.(type) {
	case []string, []any:
		return Pass
	}
	return Bool(len(fc.Siblings()) > 0 && strings.Contains(fc.Name(), "["))
}

func jsonMethod(_ FieldContext, value any, _ Params) Result {
	return Bool(json.Valid([]byte(ToString(value))))
}

func ip(_ FieldContext, value any, _ Params) Result {
	return Bool(net.ParseIP(ToString(value)) != nil)
}

func ipv4(_ FieldContext, value any, _ Params) Result {
	text := ToString(value)
	parsed := net.ParseIP(text)
	return Bool(parsed != nil && parsed.To4() != nil && !strings.Contains(text, ":"))
}

func ipv6(_ FieldContext, value any, _ Params) Result {
	text := ToString(value)
	return Bool(net.ParseIP(text) != nil && strings.Contains(text, ":"))
}

func uuidMethod(_ FieldContext, value any, _ Params) Result {
	text := ToString(value)
	if len(text) != 36 {
		return Fail
	}
	_, err := uuid.Parse(text)
	return Bool(err == nil)
}

func timezone(_ FieldContext, value any, _ Params) Result {
	text := ToString(value)
	if text == "" || text == "Local" {
		return Fail
	}
	_, err := time.LoadLocation(text)
	return Bool(err == nil)
}

func startsWith(_ FieldContext, value any, params Params) Result {
	text := ToString(value)
	for _, prefix := range params.Strings() {
		if strings.HasPrefix(text, prefix) {
			return Pass
		}
	}
	return Fail
}

func endsWith(_ FieldContext, value any, params Params) Result {
	text := ToString(value)
	for _, suffix := range params.Strings() {
		if strings.HasSuffix(text, suffix) {
			return Pass
		}
	}
	return Fail
}

func lower(s string) string {
	return strings.ToLower(s)
}
