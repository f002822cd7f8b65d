package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/turboci-repeated/repeated/domain"
	"github.com/example/turboci-repeated/repeated/report"
)

// DefaultPath is the suite file looked up when --config is not given.
const DefaultPath = ".repeated.yml"

// Suite is a set of command tests evaluated by `repeated suite`.
type Suite struct {
	Version int        `yaml:"version"`
	EnvFile string     `yaml:"env_file"`
	Shell   string     `yaml:"shell"`
	Tests   []TestSpec `yaml:"tests"`

	// dir is the directory of the suite file; relative paths resolve against it.
	dir string
}

// TestSpec declares one repeated command test.
type TestSpec struct {
	ID      string            `yaml:"id"`
	Command string            `yaml:"command"`
	Timeout string            `yaml:"timeout"`
	WorkDir string            `yaml:"workdir"`
	Env     map[string]string `yaml:"env"`
	Options map[string]any    `yaml:"options"`
}

// Parse decodes a suite document. Unknown fields are rejected.
func Parse(data []byte) (*Suite, error) {
	var s Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse suite: %w", err)
	}
	var extra yaml.Node
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse suite: multiple YAML documents are not supported")
		}
		return nil, fmt.Errorf("parse suite: %w", err)
	}
	return &s, nil
}

// Load reads, parses and validates a suite file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	s.dir = filepath.Dir(path)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the suite and every test's options.
func (s *Suite) Validate() error {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{Field: field, Message: message})
	}

	if s.Version == 0 {
		add("version", "is required")
	} else if s.Version != 1 {
		add("version", fmt.Sprintf("unsupported version %d", s.Version))
	}
	if len(s.Tests) == 0 {
		add("tests", "at least one test is required")
	}

	seen := map[string]struct{}{}
	for i, t := range s.Tests {
		prefix := fmt.Sprintf("tests[%d]", i)
		id := strings.TrimSpace(t.ID)
		if id == "" {
			add(prefix+".id", "is required")
		} else if _, dup := seen[id]; dup {
			add(prefix+".id", fmt.Sprintf("duplicate id %q", id))
		} else {
			seen[id] = struct{}{}
		}
		if strings.TrimSpace(t.Command) == "" {
			add(prefix+".command", "is required")
		}
		if t.Timeout != "" {
			if d, err := time.ParseDuration(t.Timeout); err != nil {
				add(prefix+".timeout", fmt.Sprintf("invalid duration %q", t.Timeout))
			} else if d <= 0 {
				add(prefix+".timeout", "must be positive")
			}
		}
		if _, err := t.Config(); err != nil {
			add(prefix+".options", err.Error())
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Environment returns the variables from the suite's env file, or nil
// when none is configured.
func (s *Suite) Environment() (map[string]string, error) {
	if s.EnvFile == "" {
		return nil, nil
	}
	return ReadEnvFile(s.resolve(s.EnvFile))
}

// WorkDir returns the working directory for a test, resolved against
// the suite file's directory.
func (s *Suite) WorkDir(t TestSpec) string {
	if t.WorkDir == "" {
		return s.dir
	}
	return s.resolve(t.WorkDir)
}

func (s *Suite) resolve(path string) string {
	if filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

// Config parses the test's options into a trial configuration.
func (t TestSpec) Config() (domain.Config, error) {
	return report.Register().Parse(t.Options)
}

// TimeoutDuration returns the parsed timeout, zero when unset.
func (t TestSpec) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(t.Timeout)
	return d
}

// ReadEnvFile reads KEY=VALUE pairs from a dotenv file.
func ReadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return env, nil
}

// Merge overlays environment maps left to right.
func Merge(envs ...map[string]string) map[string]string {
	merged := map[string]string{}
	for _, env := range envs {
		for k, v := range env {
			merged[k] = v
		}
	}
	return merged
}
