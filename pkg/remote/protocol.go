package remote

import (
	"bytes"
	"html"
	"net/http"
	"regexp"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formguard/pkg/fieldpath"
	"github.com/goliatone/go-formguard/pkg/rules"
)

const (
	// MarkerField names the field a whole-form check was triggered by.
	MarkerField = "_jsvalidation"
	// ValidateAllField asks the server to report every field.
	ValidateAllField = "_jsvalidation_validate_all"
	// DefaultCSRFHeader carries the XSRF token on non-GET calls.
	DefaultCSRFHeader = "X-XSRF-TOKEN"
	// GenericFailure is reported when an error page carries no heading.
	GenericFailure = "Whoops, looks like something went wrong."
)

var (
	headingPattern = regexp.MustCompile(`(?is)<h1\s*>(.*?)</h1\s*>`)
	stripTags      = bluemonday.StrictPolicy()
)

// ParseErrorResponse extracts a message from an error page: the text of its
// first <h1>, or GenericFailure.
func ParseErrorResponse(body []byte) []string {
	match := headingPattern.FindSubmatch(body)
	if match == nil {
		return []string{GenericFailure}
	}
	text := strings.TrimSpace(html.UnescapeString(stripTags.Sanitize(string(match[1]))))
	if text == "" {
		return []string{GenericFailure}
	}
	return []string{text}
}

// DecodeSingle reads the answer of a single-rule check: true or "true" is
// valid, any other value is invalid and a string, the first element of an
// array or the field's entry of an object becomes the message.
func DecodeSingle(field string, resp *Response, err error) rules.Verdict {
	if err != nil || resp == nil {
		return rules.Verdict{Message: GenericFailure}
	}
	if !resp.OK() {
		if errs, ok := decodeErrors(resp.Body); ok {
			return verdictFromErrors(field, errs, false)
		}
		return rules.Verdict{Message: ParseErrorResponse(resp.Body)[0]}
	}

	body := bytes.TrimSpace(resp.Body)
	var payload any
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		text := string(body)
		if text == "true" {
			return rules.Verdict{Valid: true}
		}
		return rules.Verdict{Message: text}
	}

	switch v := payload.(type) {
	case bool:
		return rules.Verdict{Valid: v}
	case string:
		switch v {
		case "true":
			return rules.Verdict{Valid: true}
		case "false":
			return rules.Verdict{}
		}
		return rules.Verdict{Message: v}
	case []any:
		if len(v) > 0 {
			return rules.Verdict{Message: rules.ToString(v[0])}
		}
	case map[string]any:
		return verdictFromErrors(field, errorMap(v), false)
	}
	return rules.Verdict{}
}

// DecodeForm reads the answer of a whole-form check: true is valid, an
// object maps field names to messages. A 422 answer may wrap the object in
// "errors". Other failures become the heading of the error page.
func DecodeForm(field string, resp *Response, err error) rules.Verdict {
	if err != nil || resp == nil {
		return rules.Verdict{Message: GenericFailure}
	}
	if resp.OK() {
		body := bytes.TrimSpace(resp.Body)
		var payload any
		if jsonErr := json.Unmarshal(body, &payload); jsonErr == nil {
			switch v := payload.(type) {
			case bool:
				if v {
					return rules.Verdict{Valid: true}
				}
			case string:
				if v == "true" {
					return rules.Verdict{Valid: true}
				}
			case map[string]any:
				return verdictFromErrors(field, errorMap(v), true)
			}
		}
		return rules.Verdict{Message: GenericFailure}
	}
	if resp.StatusCode == http.StatusUnprocessableEntity {
		if errs, ok := decodeErrors(resp.Body); ok {
			return verdictFromErrors(field, errs, true)
		}
	}
	return rules.Verdict{Message: ParseErrorResponse(resp.Body)[0]}
}

func decodeErrors(body []byte) (map[string][]string, bool) {
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(body), &payload); err != nil {
		return nil, false
	}
	errs := errorMap(payload)
	return errs, len(errs) > 0
}

// errorMap reads {"field": ["message"]} or {"errors": {...}}.
func errorMap(payload map[string]any) map[string][]string {
	if nested, ok := payload["errors"].(map[string]any); ok {
		payload = nested
	}
	out := make(map[string][]string, len(payload))
	for key, raw := range payload {
		switch v := raw.(type) {
		case []any:
			msgs := make([]string, 0, len(v))
			for _, item := range v {
				msgs = append(msgs, rules.ToString(item))
			}
			out[key] = msgs
		case string:
			out[key] = []string{v}
		}
	}
	return out
}

// verdictFromErrors picks the field's first message. When the payload has
// no entry for the field, the first message of the payload is used so the
// failure is never silent. related copies the other fields' messages.
func verdictFromErrors(field string, errs map[string][]string, related bool) rules.Verdict {
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	verdict := rules.Verdict{}
	own := fieldpath.Canonical(field)
	found := false
	for _, key := range keys {
		msgs := errs[key]
		first := ""
		if len(msgs) > 0 {
			first = msgs[0]
		}
		if fieldpath.Canonical(key) == own {
			verdict.Message = first
			found = true
			continue
		}
		if related {
			if verdict.Related == nil {
				verdict.Related = make(map[string]string)
			}
			verdict.Related[key] = first
		}
	}
	if !found && len(keys) > 0 && len(errs[keys[0]]) > 0 {
		verdict.Message = errs[keys[0]][0]
	}
	return verdict
}
