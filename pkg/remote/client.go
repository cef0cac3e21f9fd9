package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formguard/pkg/rules"
)

const (
	// SingleRuleMethod checks one field against an endpoint.
	SingleRuleMethod = "remote"
	// WholeFormMethod posts the whole form to its own action.
	WholeFormMethod = "remote_form"
)

// Target is where a single-rule check is sent.
type Target struct {
	URL    string
	Method string
	// Data is sent along with the field value.
	Data map[string]any
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithURL sets the endpoint used when a rule names none. For whole-form
// checks it replaces the form action.
func WithURL(u string) ClientOption {
	return func(c *Client) {
		c.url = strings.TrimSpace(u)
	}
}

// WithCSRFToken attaches token to non-GET calls.
func WithCSRFToken(token string) ClientOption {
	return func(c *Client) {
		c.csrfToken = token
	}
}

// WithCSRFHeader changes the header carrying the token.
func WithCSRFHeader(header string) ClientOption {
	return func(c *Client) {
		if strings.TrimSpace(header) != "" {
			c.csrfHeader = strings.TrimSpace(header)
		}
	}
}

// WithLogger sets the logger used for transport failures.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client builds the asynchronous methods backed by a Transport.
type Client struct {
	transport  Transport
	url        string
	csrfToken  string
	csrfHeader string
	logger     *zap.Logger
}

// NewClient creates a client. A nil transport uses HTTPTransport with the
// default http.Client.
func NewClient(t Transport, opts ...ClientOption) *Client {
	if t == nil {
		t = &HTTPTransport{}
	}
	c := &Client{
		transport:  t,
		csrfHeader: DefaultCSRFHeader,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Methods returns both remote methods.
func (c *Client) Methods() []rules.Method {
	return []rules.Method{c.SingleRule(), c.WholeForm()}
}

// SingleRule is the "remote" method. Its parameter is the endpoint URL or an
// object with url, type (or method) and data keys.
func (c *Client) SingleRule() rules.Method {
	return rules.Method{
		Name:      SingleRuleMethod,
		Async:     c.single,
		Message:   "Please fix this field.",
		Signature: c.singleSignature,
	}
}

// WholeForm is the "remote_form" method. Its optional parameter asks the
// server to validate every field.
func (c *Client) WholeForm() rules.Method {
	return rules.Method{
		Name:      WholeFormMethod,
		Async:     c.whole,
		Message:   "The given data was invalid.",
		Signature: c.formSignature,
	}
}

// ParseTarget reads the parameter of a single-rule check.
func ParseTarget(params rules.Params, fallback string) (Target, error) {
	t := Target{URL: fallback, Method: http.MethodGet}
	switch v := params.At(0).(type) {
	case nil, bool:
	case string:
		if strings.TrimSpace(v) != "" {
			t.URL = strings.TrimSpace(v)
		}
	case map[string]any:
		if u, ok := v["url"].(string); ok && u != "" {
			t.URL = u
		}
		for _, key := range []string{"type", "method"} {
			if m, ok := v[key].(string); ok && m != "" {
				t.Method = strings.ToUpper(m)
			}
		}
		if data, ok := v["data"].(map[string]any); ok {
			t.Data = data
		}
	default:
		return Target{}, fmt.Errorf("remote: unsupported parameter %T", v)
	}
	if t.URL == "" {
		return Target{}, errors.New("remote: url is required")
	}
	return t, nil
}

func (c *Client) single(fc rules.FieldContext, value any, params rules.Params) (rules.Task, error) {
	target, err := ParseTarget(params, c.url)
	if err != nil {
		return nil, err
	}
	name := fc.Name()
	req := Request{
		Method: target.Method,
		URL:    target.URL,
		Values: singleValues(name, value, target.Data),
		Header: c.header(target.Method),
	}
	return func(ctx context.Context) rules.Verdict {
		resp, err := c.transport.Do(ctx, req)
		c.logFailure(name, err)
		return DecodeSingle(name, resp, err)
	}, nil
}

func (c *Client) singleSignature(fc rules.FieldContext, value any, params rules.Params) string {
	target, err := ParseTarget(params, c.url)
	if err != nil {
		return rules.DefaultSignature(fc, value, params)
	}
	return target.Method + " " + target.URL + "?" + singleValues(fc.Name(), value, target.Data).Encode()
}

func singleValues(name string, value any, data map[string]any) url.Values {
	values := url.Values{}
	switch v := value.(type) {
	case []string:
		for _, item := range v {
			values.Add(name, item)
		}
	default:
		values.Set(name, rules.ToString(value))
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		values.Set(key, rules.ToString(data[key]))
	}
	return values
}

func (c *Client) whole(fc rules.FieldContext, _ any, params rules.Params) (rules.Task, error) {
	req, err := c.formRequest(fc, params)
	if err != nil {
		return nil, err
	}
	name := fc.Name()
	return func(ctx context.Context) rules.Verdict {
		resp, err := c.transport.Do(ctx, req)
		c.logFailure(name, err)
		return DecodeForm(name, resp, err)
	}, nil
}

func (c *Client) formRequest(fc rules.FieldContext, params rules.Params) (Request, error) {
	f := fc.Form()
	if f == nil {
		return Request{}, errors.New("remote: whole-form check needs a form")
	}
	target := c.url
	if target == "" {
		target = f.Action
	}
	if target == "" {
		return Request{}, errors.New("remote: form action is required")
	}
	values := f.Serialize()
	values.Set(MarkerField, fc.Name())
	values.Set(ValidateAllField, strconv.FormatBool(validateAll(params)))
	method := f.EffectiveMethod()
	header := c.header(method)
	if token, ok := f.Token(); ok && c.csrfToken == "" && !strings.EqualFold(method, http.MethodGet) {
		header.Set(c.csrfHeader, token)
	}
	return Request{Method: method, URL: target, Values: values, Header: header}, nil
}

func (c *Client) formSignature(fc rules.FieldContext, value any, params rules.Params) string {
	req, err := c.formRequest(fc, params)
	if err != nil {
		return rules.DefaultSignature(fc, value, params)
	}
	return req.Method + " " + req.URL + "?" + req.Values.Encode()
}

func validateAll(params rules.Params) bool {
	for _, p := range params {
		switch v := p.(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
			if strings.EqualFold(v, "all") {
				return true
			}
		}
	}
	return false
}

func (c *Client) header(method string) http.Header {
	h := http.Header{}
	if c.csrfToken != "" && !strings.EqualFold(method, http.MethodGet) {
		h.Set(c.csrfHeader, c.csrfToken)
	}
	return h
}

func (c *Client) logFailure(field string, err error) {
	if err == nil || errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) {
		return
	}
	c.logger.Warn("remote validation failed", zap.String("field", field), zap.Error(err))
}
