package render

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingTranslator is passed to MissingTranslationHandler when no
	// translator is configured.
	ErrMissingTranslator = errors.New("render: translator not configured")
	// ErrMissingTranslation is returned by Catalog for unknown keys.
	ErrMissingTranslation = errors.New("render: missing translation")
)

// Translator resolves message keys such as "validation.required".
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides what to show when a key has no
// translation.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// Catalog is an in-memory Translator keyed by locale then message key.
// Messages may use positional placeholders ({0}, {1}) which are filled from
// args.
type Catalog map[string]map[string]string

// Translate implements Translator. Regional locales fall back to their base
// language ("en-US" to "en").
func (c Catalog) Translate(locale, key string, args ...any) (string, error) {
	for _, candidate := range localeChain(locale) {
		if msg, ok := c[candidate][key]; ok {
			return fill(msg, args), nil
		}
	}
	return "", fmt.Errorf("%w: %s %s", ErrMissingTranslation, locale, key)
}

func localeChain(locale string) []string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return []string{""}
	}
	chain := []string{locale}
	if base, _, ok := strings.Cut(locale, "-"); ok && base != "" {
		chain = append(chain, base)
	}
	return chain
}

func fill(msg string, args []any) string {
	for i, arg := range args {
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{%d}", i), fmt.Sprint(arg))
	}
	return msg
}

// Lookup returns the translation of key, or false when t is nil or has none.
func Lookup(t Translator, locale, key string, args ...any) (string, bool) {
	if t == nil || strings.TrimSpace(key) == "" {
		return "", false
	}
	msg, err := t.Translate(locale, key, args...)
	if err != nil || strings.TrimSpace(msg) == "" {
		return "", false
	}
	return msg, true
}

// Translate resolves key with fallbacks: onMissing when set, then fallback,
// then the key itself.
func Translate(t Translator, locale, key, fallback string, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	if msg, ok := Lookup(t, locale, key); ok {
		return msg
	}
	if onMissing != nil {
		err := ErrMissingTranslation
		if t == nil {
			err = ErrMissingTranslator
		}
		return onMissing(locale, key, []any{map[string]any{"default": fallback}}, err)
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}
