package validator

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formguard/pkg/fieldpath"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/normalize"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/rules"
)

const missingMessage = "<strong>Warning: No message defined for %s</strong>"

// customMessage returns the configured message of a field for a method.
func (v *Validator) customMessage(name, methodKey string) string {
	byMethod := v.messages[fieldpath.Canonical(name)]
	if msg, ok := byMethod[methodKey]; ok {
		return msg
	}
	return byMethod["*"]
}

func (v *Validator) restoreMessage(name, methodKey, msg string) {
	key := fieldpath.Canonical(name)
	if msg == "" {
		delete(v.messages[key], methodKey)
		return
	}
	v.setMessage(name, methodKey, msg)
}

// resolveMessage picks the first defined message: configured per field,
// declared with the rule, data-msg-<method>, data-msg, the title attribute,
// the translator, the method default. Placeholders are filled from the rule
// parameters.
func (v *Validator) resolveMessage(name string, c *form.Control, rule normalize.Rule) string {
	key := rule.Key()
	candidates := []func() string{
		func() string { return v.customMessage(name, key) },
		func() string { return rule.Message },
		func() string { return dataMessage(c, rule.Name) },
		func() string {
			if v.ignoreTitle || c == nil {
				return ""
			}
			return c.Title
		},
		func() string { return v.translated(rule) },
		func() string { return v.registry.Message(rule.Name) },
	}
	for _, candidate := range candidates {
		if msg := candidate(); msg != "" {
			return rules.Format(msg, rule.Params)
		}
	}
	return fmt.Sprintf(missingMessage, name)
}

func dataMessage(c *form.Control, method string) string {
	if c == nil {
		return ""
	}
	for _, attr := range []string{"msg-" + method, "msg-" + rules.Key(method), "msg"} {
		if msg, ok := c.DataAttr(attr); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	return ""
}

func (v *Validator) translated(rule normalize.Rule) string {
	if v.translator == nil {
		return ""
	}
	for _, key := range []string{"validation." + strings.ToLower(rule.Name), "validation." + rule.Key()} {
		if msg, ok := render.Lookup(v.translator, v.locale, key); ok {
			return msg
		}
	}
	return ""
}
