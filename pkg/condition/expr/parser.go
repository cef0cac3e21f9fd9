package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formguard/pkg/condition"
	"github.com/goliatone/go-formguard/pkg/fieldpath"
)

// ref is a field reference such as `#email`, `items.0.qty` or `agree:checked`.
type ref struct {
	name  string
	state string
}

func parseRef(raw string) ref {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	name, state := raw, ""
	if i := strings.LastIndexByte(raw, ':'); i > 0 {
		name, state = raw[:i], strings.ToLower(raw[i+1:])
	}
	return ref{name: name, state: state}
}

func (r ref) resolve(s scope) (any, bool) {
	name := r.name
	if name == "this" {
		name = s.self
	}
	if strings.HasPrefix(strings.ToLower(name), "extras.") {
		return lookupMap(s.ctx.Extras, name[len("extras."):])
	}
	return lookupValue(s.ctx, name)
}

func lookupValue(ctx condition.Context, name string) (any, bool) {
	if v, ok := ctx.Values[name]; ok {
		return v, true
	}
	canonical := fieldpath.Canonical(name)
	if v, ok := ctx.Values[canonical]; ok {
		return v, true
	}
	if v, ok := ctx.Values[canonical+"[]"]; ok {
		return v, true
	}
	return lookupMap(ctx.Values, fieldpath.Dotted(name))
}

func lookupMap(values map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (node, error) {
	stream := &tokenStream{tokens: tokens}
	n, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("condition/expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return n, nil
}

func parseOr(stream *tokenStream) (node, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (node, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (node, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (node, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("condition/expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, errors.New("condition/expr: empty expression")
		}
		return nil, fmt.Errorf("condition/expr: expected field, got %q", stream.tokens[stream.pos].raw)
	}
	r := parseRef(ident.raw)

	for _, op := range []tokenKind{tokenEq, tokenNeq, tokenLt, tokenLte, tokenGt, tokenGte} {
		if !stream.match(op) {
			continue
		}
		lit, err := stream.consumeLiteral()
		if err != nil {
			return nil, err
		}
		return compareNode{ref: r, op: op, literal: lit}, nil
	}
	return stateNode{ref: r}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (literal, error) {
	if s.pos >= len(s.tokens) {
		return literal{}, errors.New("condition/expr: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString, tokenIdentifier:
		// Bare words compare as strings.
		return literal{kind: litString, raw: tok.raw}, nil
	case tokenNumber:
		return literal{kind: litNumber, raw: tok.raw}, nil
	case tokenBool:
		return literal{kind: litBool, raw: tok.raw}, nil
	case tokenNull:
		return literal{kind: litNull, raw: "null"}, nil
	}
	return literal{}, fmt.Errorf("condition/expr: expected literal, got %q", tok.raw)
}
