package prompt

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formguard/pkg/field"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/rules"
	"github.com/goliatone/go-formguard/pkg/validator"
)

// TypePassword marks controls whose answers are not echoed.
const TypePassword = "password"

// Session fills the form behind a validator one field at a time.
type Session struct {
	v      *validator.Validator
	driver Driver
	logger *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession builds a session. A nil driver uses survey on stdout.
func NewSession(v *validator.Validator, driver Driver, opts ...Option) *Session {
	if driver == nil {
		driver = NewSurveyDriver(nil)
	}
	s := &Session{v: v, driver: driver, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run prompts every visible field, re-asking until the answer passes its
// rules, then validates the whole form and reports whether it is valid.
func (s *Session) Run(ctx context.Context) (bool, error) {
	f := s.v.FormDocument()
	for _, name := range f.Names() {
		controls := f.ByName(name)
		if skip(controls[0]) {
			continue
		}
		if err := s.ask(ctx, f, name, controls); err != nil {
			return false, fmt.Errorf("prompt: %s: %w", name, err)
		}
	}

	valid, err := s.v.Form()
	if err != nil {
		return false, err
	}
	if err := s.v.Wait(ctx); err != nil {
		return false, err
	}
	if s.v.Pending() == 0 {
		valid = s.v.Valid()
	}
	for _, e := range s.v.ErrorList() {
		if err := s.driver.Info(ctx, fmt.Sprintf("%s: %s", e.Field, e.Message)); err != nil {
			return false, err
		}
	}
	return valid, nil
}

func skip(c *form.Control) bool {
	return c.Hidden || c.Disabled || !c.Submittable() || c.IsFile() || c.Type == form.TypeHidden
}

func (s *Session) ask(ctx context.Context, f *form.Form, name string, controls []*form.Control) error {
	c := controls[0]
	label := name
	if c.Title != "" {
		label = c.Title
	}

	if c.Type == form.TypeRadio {
		options := make([]string, 0, len(controls))
		for _, rc := range controls {
			options = append(options, rc.Value)
		}
		return s.choose(ctx, f, name, label, options)
	}

	if c.Type == form.TypeCheckbox && len(controls) == 1 {
		for {
			checked, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: c.Checked})
			if err != nil {
				return err
			}
			f.SetChecked(name, c.Value, checked)
			err = s.check(ctx, name)
			if err == nil {
				return nil
			}
			if info := s.driver.Info(ctx, err.Error()); info != nil {
				return info
			}
		}
	}

	if options := s.options(name); len(options) > 0 {
		return s.choose(ctx, f, name, label, options)
	}

	cfg := InputConfig{
		Message: label,
		Default: c.Value,
		Validate: func(answer string) error {
			f.SetValue(name, answer)
			return s.check(ctx, name)
		},
	}
	var (
		answer string
		err    error
	)
	if c.Type == TypePassword {
		cfg.Default = ""
		answer, err = s.driver.Password(ctx, cfg)
	} else {
		answer, err = s.driver.Input(ctx, cfg)
	}
	if err != nil {
		return err
	}
	f.SetValue(name, answer)
	return nil
}

func (s *Session) choose(ctx context.Context, f *form.Form, name, label string, options []string) error {
	current, _ := f.Value(name).(string)
	def := 0
	for i, option := range options {
		if option == current {
			def = i
		}
	}
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      options,
		DefaultIndex: def,
		Validate: func(i int) error {
			if i < 0 || i >= len(options) {
				return nil
			}
			f.SetValue(name, options[i])
			return s.check(ctx, name)
		},
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		return fmt.Errorf("option %d out of range", idx)
	}
	f.SetValue(name, options[idx])
	return nil
}

// options returns the allowed values declared with an "in" rule.
func (s *Session) options(name string) []string {
	canonical, err := s.v.Rules(name)
	if err != nil {
		return nil
	}
	rule, ok := canonical.Get("in")
	if !ok {
		return nil
	}
	out := make([]string, 0, len(rule.Params))
	for _, p := range rule.Params {
		out = append(out, rules.ToString(p))
	}
	return out
}

// check validates one field, waiting for a remote verdict when needed.
func (s *Session) check(ctx context.Context, name string) error {
	if _, err := s.v.Element(name); err != nil {
		return err
	}
	if status, _ := s.v.Status(name); status == field.Pending {
		s.logger.Debug("waiting for remote verdict", zap.String("field", name))
		if err := s.v.Wait(ctx); err != nil {
			return err
		}
	}
	if status, msg := s.v.Status(name); status == field.Invalid {
		if msg == "" {
			msg = "invalid value"
		}
		return errors.New(msg)
	}
	return nil
}
