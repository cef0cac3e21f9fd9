// Package config loads validator settings from JSON or YAML documents.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/remote"
	"github.com/goliatone/go-formguard/pkg/validator"
)

// ErrInvalidConfig is returned for documents that parse but make no sense.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// HiddenToken in Ignore skips hidden controls.
const HiddenToken = ":hidden"

// Remote configures the remote methods.
type Remote struct {
	URL        string `json:"url" yaml:"url"`
	CSRFToken  string `json:"csrf_token" yaml:"csrf_token"`
	CSRFHeader string `json:"csrf_header" yaml:"csrf_header"`
	Timeout    string `json:"timeout" yaml:"timeout"`
}

// Settings mirrors the validator options of one form.
type Settings struct {
	Action string `json:"action" yaml:"action"`
	Method string `json:"method" yaml:"method"`

	Rules    map[string]any               `json:"rules" yaml:"rules"`
	Messages map[string]map[string]string `json:"messages" yaml:"messages"`
	Groups   map[string]string            `json:"groups" yaml:"groups"`
	// Ignore lists control names to skip; HiddenToken skips hidden controls.
	// Nil keeps the default of ignoring hidden controls.
	Ignore []string `json:"ignore" yaml:"ignore"`

	OnSubmit         *bool `json:"onsubmit" yaml:"onsubmit"`
	FocusCleanup     bool  `json:"focus_cleanup" yaml:"focus_cleanup"`
	IgnoreTitle      bool  `json:"ignore_title" yaml:"ignore_title"`
	AutoCreateRanges bool  `json:"auto_create_ranges" yaml:"auto_create_ranges"`

	Remote Remote `json:"remote" yaml:"remote"`

	ErrorClass   string `json:"error_class" yaml:"error_class"`
	ValidClass   string `json:"valid_class" yaml:"valid_class"`
	PendingClass string `json:"pending_class" yaml:"pending_class"`
}

// Load parses a settings document, JSON or YAML.
func Load(r io.Reader) (Settings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read: %w", err)
	}
	return parse(data, "input")
}

// LoadFile parses the settings file at path.
func LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parse(data, path)
}

func parse(data []byte, source string) (Settings, error) {
	var s Settings
	if strings.TrimSpace(string(data)) == "" {
		return Settings{}, fmt.Errorf("%w: %s is empty", ErrInvalidConfig, source)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		s = Settings{}
		if yerr := yaml.Unmarshal(data, &s); yerr != nil {
			return Settings{}, fmt.Errorf("config: parse %s: invalid JSON or YAML: %w", source, yerr)
		}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config: %s: %w", source, err)
	}
	return s, nil
}

// Validate checks the values that cannot be verified by decoding.
func (s Settings) Validate() error {
	if _, err := s.timeout(); err != nil {
		return err
	}
	for name := range s.Rules {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: rule for an empty field name", ErrInvalidConfig)
		}
	}
	for group, members := range s.Groups {
		if strings.TrimSpace(members) == "" {
			return fmt.Errorf("%w: group %q has no members", ErrInvalidConfig, group)
		}
	}
	return nil
}

func (s Settings) timeout() (time.Duration, error) {
	raw := strings.TrimSpace(s.Remote.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: remote timeout %q", ErrInvalidConfig, raw)
	}
	return d, nil
}

// Form builds an empty form with the configured action and method.
func (s Settings) Form() *form.Form {
	return form.New(s.Action, s.Method)
}

// Options converts the settings into validator options. logger may be nil.
func (s Settings) Options(logger *zap.Logger) ([]validator.Option, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	timeout, _ := s.timeout()

	clientOpts := []remote.ClientOption{
		remote.WithURL(s.Remote.URL),
		remote.WithCSRFToken(s.Remote.CSRFToken),
		remote.WithCSRFHeader(s.Remote.CSRFHeader),
	}
	if logger != nil {
		clientOpts = append(clientOpts, remote.WithLogger(logger))
	}

	opts := []validator.Option{
		validator.WithRules(s.Rules),
		validator.WithMessages(s.Messages),
		validator.WithGroups(s.Groups),
		validator.WithFocusCleanup(s.FocusCleanup),
		validator.WithIgnoreTitle(s.IgnoreTitle),
		validator.WithAutoCreateRanges(s.AutoCreateRanges),
		validator.WithClasses(s.ErrorClass, s.ValidClass, s.PendingClass),
		validator.WithRemoteClient(remote.NewClient(&remote.HTTPTransport{Timeout: timeout}, clientOpts...)),
	}
	if s.OnSubmit != nil {
		opts = append(opts, validator.WithOnSubmit(*s.OnSubmit))
	}
	if s.Ignore != nil {
		opts = append(opts, validator.WithIgnore(ignoreFunc(s.Ignore)))
	}
	if logger != nil {
		opts = append(opts, validator.WithLogger(logger))
	}
	return opts, nil
}

func ignoreFunc(entries []string) validator.IgnoreFunc {
	hidden := false
	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		switch {
		case entry == HiddenToken:
			hidden = true
		case entry != "":
			names[entry] = true
		}
	}
	return func(c *form.Control) bool {
		if hidden && validator.IgnoreHidden(c) {
			return true
		}
		return names[c.Name]
	}
}

// Store holds settings per form id.
type Store struct {
	forms map[string]Settings
}

type storeFile struct {
	Forms map[string]Settings `json:"forms" yaml:"forms"`
}

// LoadFS walks fsys and reads every JSON/YAML file holding a "forms" map.
// A form id defined twice is an error.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{forms: make(map[string]Settings)}
	if fsys == nil {
		return store, nil
	}
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isConfigFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		var doc storeFile
		if err := json.Unmarshal(data, &doc); err != nil {
			doc = storeFile{}
			if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
				return fmt.Errorf("config: parse %s: invalid JSON or YAML: %w", path, yerr)
			}
		}
		for id, settings := range doc.Forms {
			id = strings.TrimSpace(id)
			if id == "" {
				return fmt.Errorf("%w: file %s defines an empty form id", ErrInvalidConfig, path)
			}
			if _, exists := store.forms[id]; exists {
				return fmt.Errorf("%w: duplicate form %q (file %s)", ErrInvalidConfig, id, path)
			}
			if err := settings.Validate(); err != nil {
				return fmt.Errorf("config: form %q (file %s): %w", id, path, err)
			}
			store.forms[id] = settings
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Form returns the settings of a form id.
func (s *Store) Form(id string) (Settings, bool) {
	if s == nil {
		return Settings{}, false
	}
	settings, ok := s.forms[id]
	return settings, ok
}

// Empty reports whether the store holds any form.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

func isConfigFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
