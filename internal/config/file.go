package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/hintguard/internal/diagnostics"
)

// File represents a hintguard.yaml configuration file.
type File struct {
	// Conf holds the checker configuration at the top level of the file.
	Conf Conf `yaml:",inline"`

	// Checks lists named checks run by the command line tool.
	Checks []CheckSpec `yaml:"checks,omitempty"`
}

// CheckSpec describes one named check.
type CheckSpec struct {
	// Name identifies the check in output.
	Name string `yaml:"name"`

	// Hint is a hint expression in Go type syntax (e.g. "map[string][]int").
	Hint string `yaml:"hint"`

	// Files lists data files (YAML or JSON) the hint applies to, relative
	// to the configuration file.
	Files []string `yaml:"files,omitempty"`

	// CallSite is "free" (default), "param" or "return". It selects which
	// violation policy applies.
	CallSite string `yaml:"call_site,omitempty"`
}

// Site returns the parsed call site. Validated files never fail here.
func (s CheckSpec) Site() CallSite {
	site, _ := ParseCallSite(s.CallSite)
	return site
}

// LoadConfig reads and parses a hintguard.yaml file.
func LoadConfig(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses hintguard.yaml content from bytes.
// The path argument is used for error messages and relative file paths.
func ParseConfig(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, diagnostics.NewConfigurationError("parsing %s: %v", path, err)
	}
	if err := f.validate(path); err != nil {
		return nil, err
	}
	f.setDefaults(path)
	return &f, nil
}

// FindConfig searches for hintguard.yaml starting from dir and walking up
// to parent directories. It returns "" and a nil error when none exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the file for semantic errors.
func (f *File) validate(path string) error {
	if err := f.Conf.Validate(); err != nil {
		return diagnostics.ReplacePlaceholder(err, path+": ")
	}

	seen := make(map[string]int)
	for i, c := range f.Checks {
		if c.Name == "" {
			return diagnostics.NewConfigurationError("%s: checks[%d]: name is required", path, i)
		}
		if prev, ok := seen[c.Name]; ok {
			return diagnostics.NewConfigurationError("%s: checks[%d] (%s): name already used by checks[%d]",
				path, i, c.Name, prev)
		}
		seen[c.Name] = i
		if c.Hint == "" {
			return diagnostics.NewConfigurationError("%s: checks[%d] (%s): hint is required", path, i, c.Name)
		}
		if _, err := ParseCallSite(c.CallSite); err != nil {
			return diagnostics.NewConfigurationError("%s: checks[%d] (%s): %v", path, i, c.Name, err)
		}
	}
	return nil
}

// setDefaults fills in default values and resolves check files relative
// to the configuration file.
func (f *File) setDefaults(path string) {
	f.Conf = f.Conf.Normalize()
	dir := filepath.Dir(path)
	for i := range f.Checks {
		for j, file := range f.Checks[i].Files {
			if !filepath.IsAbs(file) {
				f.Checks[i].Files[j] = filepath.Join(dir, file)
			}
		}
	}
}

// Check returns the check named name.
func (f *File) Check(name string) (CheckSpec, bool) {
	for _, c := range f.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckSpec{}, false
}
