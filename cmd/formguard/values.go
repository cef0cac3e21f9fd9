package main

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// readValues loads a YAML or JSON document and flattens it into submitted
// form values with bracketed names: {"user": {"email": "x"}} becomes
// user[email]=x and lists of scalars become name[] entries.
func readValues(path string) (url.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseValues(data)
}

func parseValues(data []byte) (url.Values, error) {
	var doc map[string]any
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("values: %w", err)
	}
	out := url.Values{}
	for _, key := range sortedKeys(doc) {
		flatten(key, doc[key], out)
	}
	return out, nil
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			flatten(prefix+"["+key+"]", v[key], out)
		}
	case []any:
		if scalars(v) {
			for _, item := range v {
				out.Add(prefix+"[]", scalar(item))
			}
			return
		}
		for i, item := range v {
			flatten(prefix+"["+strconv.Itoa(i)+"]", item, out)
		}
	default:
		out.Set(prefix, scalar(v))
	}
}

func scalars(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
