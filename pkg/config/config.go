// Package config parses printer limits files in the INI dialect firmware
// configs use: "key: value" options, [section] headers, "#*#" save-config
// lines and [include] directives. Option reads are tracked so the loader
// can warn about settings it does not understand.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wight554/velplan/pkg/errors"
)

// Config holds the parsed sections of a limits file.
type Config struct {
	sections map[string]*Section
	order    []string
}

// New creates an empty Config.
func New() *Config {
	return &Config{sections: make(map[string]*Section)}
}

// Load reads a limits file, following [include path] directives relative
// to the file's directory.
func Load(path string) (*Config, error) {
	c := New()
	visited := make(map[string]bool)
	if err := c.parseFile(path, visited); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses a limits file from memory. Includes are not allowed.
func LoadString(data string) (*Config, error) {
	c := New()
	if err := c.parseLines(strings.Split(data, "\n"), "", nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parseFile(path string, visited map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigSection, "invalid path "+path)
	}
	if visited[abs] {
		return errors.Newf(errors.ErrConfigSection, "recursive include: %s", path)
	}
	visited[abs] = true
	defer func() { visited[abs] = false }()

	f, err := os.Open(abs)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigSection, "unable to open "+path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrConfigSection, "error reading "+path)
	}
	return c.parseLines(lines, filepath.Dir(abs), visited)
}

func (c *Config) parseLines(lines []string, dir string, visited map[string]bool) error {
	var section string
	var options map[string]string
	flush := func() {
		if section != "" {
			c.addSection(section, options)
		}
	}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		// Save-config blocks ("#*#" prefix) are real settings.
		if strings.HasPrefix(line, "#*#") {
			line = strings.TrimSpace(line[3:])
		} else if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flush()
			section = ""
			header := strings.TrimSpace(line[1 : len(line)-1])
			if header == "" {
				return errors.New(errors.ErrConfigSection, "empty section header")
			}
			if spec, ok := strings.CutPrefix(header, "include "); ok {
				if err := c.include(strings.TrimSpace(spec), dir, visited); err != nil {
					return err
				}
				continue
			}
			section = header
			options = make(map[string]string)
			continue
		}
		if section == "" {
			continue
		}
		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			kv = strings.SplitN(line, "=", 2)
		}
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		if key != "" {
			options[key] = strings.TrimSpace(kv[1])
		}
	}
	flush()
	return nil
}

func (c *Config) include(spec, dir string, visited map[string]bool) error {
	if visited == nil {
		return errors.New(errors.ErrConfigSection, "includes not allowed in string configs")
	}
	if spec == "" {
		return errors.New(errors.ErrConfigSection, "empty include")
	}
	glob := filepath.Join(dir, spec)
	matches, err := filepath.Glob(glob)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigSection, "invalid include pattern "+spec)
	}
	if len(matches) == 0 && !strings.ContainsAny(glob, "*?[") {
		return errors.Newf(errors.ErrConfigSection, "include file does not exist: %s", glob)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if err := c.parseFile(m, visited); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) addSection(name string, options map[string]string) {
	if existing, ok := c.sections[name]; ok {
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}
	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// GetSection returns a section by name.
func (c *Config) GetSection(name string) (*Section, error) {
	sec, ok := c.sections[name]
	if !ok {
		return nil, errors.ConfigSectionError(name)
	}
	return sec, nil
}

// GetSectionOptional returns a section if it exists, or nil.
func (c *Config) GetSectionOptional(name string) *Section {
	return c.sections[name]
}

// HasSection reports whether a section exists.
func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[name]
	return ok
}

// SectionNames returns all section names in file order.
func (c *Config) SectionNames() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// UnusedOptions returns "section.option" keys that were parsed but never
// read, sorted for stable output.
func (c *Config) UnusedOptions() []string {
	var out []string
	for _, name := range c.order {
		for _, opt := range c.sections[name].UnusedOptions() {
			out = append(out, name+"."+opt)
		}
	}
	sort.Strings(out)
	return out
}
