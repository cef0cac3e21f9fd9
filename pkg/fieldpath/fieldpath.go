// Package fieldpath converts between dotted ("items.0.qty") and bracketed
// ("items[0][qty]") field names and matches concrete names against wildcard
// rule keys such as "items.*.qty" or "items[].qty".
package fieldpath

import (
	"regexp"
	"strings"
	"sync"
)

// Wildcard marks a segment matching any single index or key.
const Wildcard = "*"

// Segments splits a field name into its path segments. Empty brackets ("[]")
// yield a Wildcard segment.
func Segments(name string) []string {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return nil
	}

	var (
		out     []string
		current strings.Builder
		inBrack bool
	)
	flush := func(allowEmpty bool) {
		segment := current.String()
		current.Reset()
		if segment == "" {
			if allowEmpty {
				out = append(out, Wildcard)
			}
			return
		}
		out = append(out, segment)
	}

	for _, r := range clean {
		switch {
		case r == '[' && !inBrack:
			if current.Len() > 0 {
				flush(false)
			}
			inBrack = true
		case r == ']' && inBrack:
			flush(true)
			inBrack = false
		case r == '.' && !inBrack:
			flush(false)
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		flush(false)
	}
	return out
}

// Canonical renders a name in bracket form: "items.0.qty" becomes
// "items[0][qty]". Wildcards are kept as "[*]".
func Canonical(name string) string {
	segments := Segments(name)
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(segments[0])
	for _, segment := range segments[1:] {
		b.WriteByte('[')
		b.WriteString(segment)
		b.WriteByte(']')
	}
	return b.String()
}

// Dotted renders a name in dotted form: "items[0][qty]" becomes "items.0.qty".
func Dotted(name string) string {
	return strings.Join(Segments(name), ".")
}

// IsWildcard reports whether a rule key addresses several concrete fields.
func IsWildcard(key string) bool {
	for _, segment := range Segments(key) {
		if segment == Wildcard {
			return true
		}
	}
	return false
}

// Compile turns a wildcard key into an anchored expression over canonical
// names. Each wildcard segment matches one bracketed segment.
func Compile(key string) *regexp.Regexp {
	segments := Segments(key)
	var b strings.Builder
	b.WriteByte('^')
	for i, segment := range segments {
		switch {
		case segment == Wildcard:
			b.WriteString(`\[[^\]]*\]`)
		case i == 0:
			b.WriteString(regexp.QuoteMeta(segment))
		default:
			b.WriteString(`\[`)
			b.WriteString(regexp.QuoteMeta(segment))
			b.WriteString(`\]`)
		}
	}
	b.WriteByte('$')
	return regexp.MustCompile(b.String())
}

// Indices returns the segments of a concrete name that sit where the key has
// wildcards. "items[3][qty]" against "items.*.qty" yields ["3"].
func Indices(key, name string) []string {
	keySegments := Segments(key)
	nameSegments := Segments(name)
	if len(keySegments) != len(nameSegments) {
		return nil
	}
	var out []string
	for i, segment := range keySegments {
		if segment == Wildcard {
			out = append(out, nameSegments[i])
		}
	}
	return out
}

// Expand replaces the wildcards of key, in order, with indices.
func Expand(key string, indices []string) string {
	segments := Segments(key)
	next := 0
	for i, segment := range segments {
		if segment != Wildcard || next >= len(indices) {
			continue
		}
		segments[i] = indices[next]
		next++
	}
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(segments[0])
	for _, segment := range segments[1:] {
		b.WriteByte('[')
		b.WriteString(segment)
		b.WriteByte(']')
	}
	return b.String()
}

// Matcher resolves which wildcard keys apply to a concrete field name. Results
// are memoised per concrete name until Reset.
type Matcher struct {
	mu       sync.RWMutex
	keys     []string
	patterns map[string]*regexp.Regexp
	memo     map[string][]string
}

// NewMatcher builds a matcher over the wildcard keys; non-wildcard keys are
// ignored.
func NewMatcher(keys ...string) *Matcher {
	m := &Matcher{
		patterns: make(map[string]*regexp.Regexp),
		memo:     make(map[string][]string),
	}
	for _, key := range keys {
		m.addLocked(key)
	}
	return m
}

// Add registers another wildcard key and drops memoised results.
func (m *Matcher) Add(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLocked(key)
	m.memo = make(map[string][]string)
}

// Remove unregisters a key and drops memoised results.
func (m *Matcher) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patterns[key]; !ok {
		return
	}
	delete(m.patterns, key)
	kept := m.keys[:0]
	for _, k := range m.keys {
		if k != key {
			kept = append(kept, k)
		}
	}
	m.keys = kept
	m.memo = make(map[string][]string)
}

func (m *Matcher) addLocked(key string) {
	if !IsWildcard(key) {
		return
	}
	if _, ok := m.patterns[key]; ok {
		return
	}
	m.patterns[key] = Compile(key)
	m.keys = append(m.keys, key)
}

// Match returns the keys matching name in registration order.
func (m *Matcher) Match(name string) []string {
	m.mu.RLock()
	if cached, ok := m.memo[name]; ok {
		m.mu.RUnlock()
		return cached
	}
	m.mu.RUnlock()

	canonical := Canonical(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.memo[name]; ok {
		return cached
	}
	var matched []string
	for _, key := range m.keys {
		if m.patterns[key].MatchString(canonical) {
			matched = append(matched, key)
		}
	}
	m.memo[name] = matched
	return matched
}

// Memoized reports whether name has a cached match result.
func (m *Matcher) Memoized(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.memo[name]
	return ok
}

// Reset drops every memoised result.
func (m *Matcher) Reset() {
	m.mu.Lock()
	m.memo = make(map[string][]string)
	m.mu.Unlock()
}
