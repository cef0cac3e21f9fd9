package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formguard/pkg/condition"
)

// Evaluator is the default dependency evaluator.
//
// Supported forms:
//   - presence checks: `email`, `email:filled`, `email:blank`
//   - checkable state: `newsletter:checked`, `newsletter:unchecked`
//   - comparisons: `country == "US"`, `age >= 18`, `plan != free`
//   - composition: `a && (b || !c)`
//
// A leading `#` on a field name is ignored and `this` names the field under
// evaluation. Names may be dotted or bracketed.
type Evaluator struct{}

var _ condition.Evaluator = (*Evaluator)(nil)

func New() *Evaluator { return &Evaluator{} }

func (e *Evaluator) Eval(fieldName, expression string, ctx condition.Context) (bool, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return true, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return true, nil
	}

	node, err := parseExpression(tokens)
	if err != nil {
		return false, err
	}
	return node.eval(scope{self: fieldName, ctx: ctx})
}

type scope struct {
	self string
	ctx  condition.Context
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '!', '=', '&', '|', '<', '>':
		return true
	}
	return isSpace(c)
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	emit := func(kind tokenKind, raw string) {
		tokens = append(tokens, token{kind: kind, raw: raw})
	}
	peek := func(i int) byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case isSpace(ch):
			i++
		case ch == '(':
			emit(tokenLParen, "(")
			i++
		case ch == ')':
			emit(tokenRParen, ")")
			i++
		case ch == '!':
			if peek(i+1) == '=' {
				emit(tokenNeq, "!=")
				i += 2
				continue
			}
			emit(tokenNot, "!")
			i++
		case ch == '=':
			if peek(i+1) != '=' {
				return nil, errors.New("condition/expr: unexpected '='; use '=='")
			}
			emit(tokenEq, "==")
			i += 2
		case ch == '<' || ch == '>':
			kind, raw := tokenLt, "<"
			if ch == '>' {
				kind, raw = tokenGt, ">"
			}
			if peek(i+1) == '=' {
				kind++
				raw += "="
				i++
			}
			emit(kind, raw)
			i++
		case ch == '&':
			if peek(i+1) != '&' {
				return nil, errors.New("condition/expr: unexpected '&'; use '&&'")
			}
			emit(tokenAnd, "&&")
			i += 2
		case ch == '|':
			if peek(i+1) != '|' {
				return nil, errors.New("condition/expr: unexpected '|'; use '||'")
			}
			emit(tokenOr, "||")
			i += 2
		case ch == '"' || ch == '\'':
			value, next, err := readString(input, i)
			if err != nil {
				return nil, err
			}
			emit(tokenString, value)
			i = next
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			raw := input[start:i]
			switch strings.ToLower(raw) {
			case "true", "false":
				emit(tokenBool, strings.ToLower(raw))
			case "null", "nil":
				emit(tokenNull, "null")
			default:
				if looksLikeNumber(raw) {
					emit(tokenNumber, raw)
				} else {
					emit(tokenIdentifier, raw)
				}
			}
		}
	}
	return tokens, nil
}

func readString(input string, start int) (string, int, error) {
	quote := input[start]
	escaped := false
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == quote {
			body := input[start+1 : i]
			if quote == '\'' {
				body = strings.ReplaceAll(body, `"`, `\"`)
				body = strings.ReplaceAll(body, `\'`, `'`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return "", 0, fmt.Errorf("condition/expr: invalid string literal: %w", err)
			}
			return value, i + 1, nil
		}
	}
	return "", 0, errors.New("condition/expr: unterminated string literal")
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	if c := raw[0]; !(c >= '0' && c <= '9') && c != '-' && c != '+' && c != '.' {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}
