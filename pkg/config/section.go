package config

import (
	"strconv"
	"strings"

	"github.com/wight554/velplan/pkg/errors"
)

// Section provides typed access to one config section's options.
type Section struct {
	name     string
	options  map[string]string
	accessed map[string]struct{}
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{
		name:     name,
		options:  opts,
		accessed: make(map[string]struct{}),
	}
}

// Name returns the section name.
func (s *Section) Name() string {
	return s.name
}

// HasOption reports whether an option exists in this section.
func (s *Section) HasOption(option string) bool {
	_, ok := s.options[strings.ToLower(option)]
	return ok
}

// UnusedOptions returns options that were parsed but never read.
func (s *Section) UnusedOptions() []string {
	var out []string
	for opt := range s.options {
		if _, ok := s.accessed[opt]; !ok {
			out = append(out, opt)
		}
	}
	return out
}

func (s *Section) lookup(option string) (string, bool) {
	key := strings.ToLower(option)
	v, ok := s.options[key]
	if ok {
		s.accessed[key] = struct{}{}
	}
	return v, ok
}

// Get returns a string option. A fallback makes the option optional.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	if v, ok := s.lookup(option); ok {
		return v, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return "", errors.ConfigOptionError(s.name, option)
}

// GetFloat returns a float64 option.
func (s *Section) GetFloat(option string, fallback ...float64) (float64, error) {
	if v, ok := s.lookup(option); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, errors.ConfigTypeError(s.name, option, v, "float", err)
		}
		return f, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return 0, errors.ConfigOptionError(s.name, option)
}

// FloatBounds constrains GetFloatWithBounds. Nil fields are unchecked.
type FloatBounds struct {
	MinVal *float64 // value >= MinVal
	MaxVal *float64 // value <= MaxVal
	Above  *float64 // value > Above
}

// GetFloatWithBounds returns a float64 option with range validation.
func (s *Section) GetFloatWithBounds(option string, bounds FloatBounds, fallback ...float64) (float64, error) {
	v, err := s.GetFloat(option, fallback...)
	if err != nil {
		return 0, err
	}
	if bounds.MinVal != nil && v < *bounds.MinVal {
		return 0, errors.Newf(errors.ErrConfigValidation,
			"option '%s' in section '%s': %v below minimum %v",
			option, s.name, v, *bounds.MinVal).SetSection(s.name).SetOption(option)
	}
	if bounds.MaxVal != nil && v > *bounds.MaxVal {
		return 0, errors.Newf(errors.ErrConfigValidation,
			"option '%s' in section '%s': %v above maximum %v",
			option, s.name, v, *bounds.MaxVal).SetSection(s.name).SetOption(option)
	}
	if bounds.Above != nil && v <= *bounds.Above {
		return 0, errors.Newf(errors.ErrConfigValidation,
			"option '%s' in section '%s': %v must be above %v",
			option, s.name, v, *bounds.Above).SetSection(s.name).SetOption(option)
	}
	return v, nil
}

// GetInt returns an integer option.
func (s *Section) GetInt(option string, fallback ...int) (int, error) {
	if v, ok := s.lookup(option); ok {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, errors.ConfigTypeError(s.name, option, v, "integer", err)
		}
		return i, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return 0, errors.ConfigOptionError(s.name, option)
}

// GetBool returns a boolean option. Accepts 1/true/yes/on and 0/false/no/off.
func (s *Section) GetBool(option string, fallback ...bool) (bool, error) {
	if v, ok := s.lookup(option); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off":
			return false, nil
		default:
			return false, errors.ConfigTypeError(s.name, option, v, "boolean", nil)
		}
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return false, errors.ConfigOptionError(s.name, option)
}

// GetChoice returns a string option that must match one of choices.
func (s *Section) GetChoice(option string, choices []string, fallback ...string) (string, error) {
	v, err := s.Get(option, fallback...)
	if err != nil {
		return "", err
	}
	for _, c := range choices {
		if strings.EqualFold(v, c) {
			return c, nil
		}
	}
	return "", errors.Newf(errors.ErrConfigValidation,
		"option '%s' in section '%s': '%s' is not a valid choice (valid: %v)",
		option, s.name, v, choices).SetSection(s.name).SetOption(option)
}
