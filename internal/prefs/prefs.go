// Package prefs loads the optional user preferences file.
package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/scheduler"
)

// DefaultRows is the TUI table height when none is configured
const DefaultRows = 20

// Prefs are user preferences layered over the environment config
type Prefs struct {
	View    ViewPrefs    `yaml:"view"`
	Refresh RefreshPrefs `yaml:"refresh"`
	TUI     TUIPrefs     `yaml:"tui"`
}

// ViewPrefs set the search term and sort key used at startup
type ViewPrefs struct {
	Search string `yaml:"search" validate:"max=64"`
	Sort   string `yaml:"sort" validate:"omitempty,sortkey"`
}

// RefreshPrefs override the refresh schedule
type RefreshPrefs struct {
	Schedule string `yaml:"schedule" validate:"omitempty,cronspec"`
}

// TUIPrefs tune the terminal table
type TUIPrefs struct {
	Rows int `yaml:"rows" validate:"omitempty,min=5,max=500"`
}

// Default returns the preferences used without a file
func Default() *Prefs {
	return &Prefs{
		View: ViewPrefs{Sort: string(contracts.DefaultSortKey)},
		TUI:  TUIPrefs{Rows: DefaultRows},
	}
}

// SortKey returns the configured sort key, or the default
func (p *Prefs) SortKey() contracts.SortKey {
	key, err := contracts.ParseSortKey(p.View.Sort)
	if err != nil {
		return contracts.DefaultSortKey
	}
	return key
}

// Load reads the YAML file at path. An empty path returns Default().
// 오타/미사용 필드는 KnownFields(true)로 즉시 실패
func Load(path string) (*Prefs, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefs: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates preferences from YAML
func Parse(data []byte) (*Prefs, error) {
	p := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode prefs: %w", err)
	}

	if p.TUI.Rows == 0 {
		p.TUI.Rows = DefaultRows
	}

	v, err := newValidator(customRules...)
	if err != nil {
		return nil, err
	}
	if err := v.Struct(p); err != nil {
		return nil, formatValidationError(err)
	}

	return p, nil
}

// rule is a custom validation tag
type rule struct {
	tag string
	fn  validator.Func
}

var customRules = []rule{
	{tag: "sortkey", fn: func(fl validator.FieldLevel) bool {
		return contracts.SortKey(fl.Field().String()).Valid()
	}},
	{tag: "cronspec", fn: func(fl validator.FieldLevel) bool {
		return scheduler.ParseSchedule(fl.Field().String()) == nil
	}},
}

func newValidator(rules ...rule) (*validator.Validate, error) {
	v := validator.New()
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			return nil, fmt.Errorf("register %q validation: %w", r.tag, err)
		}
	}
	return v, nil
}

// formatValidationError converts validator errors into readable messages
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation: %s (value: '%v')",
			e.Namespace(),
			e.Tag(),
			e.Value(),
		))
	}
	return fmt.Errorf("invalid prefs: %s", strings.Join(messages, "; "))
}
