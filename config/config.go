// Package config loads the benchmark document describing the candidate
// backends (POCs) and the scenarios each of them is measured with.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	yaml "gopkg.in/yaml.v3"
)

// Candidate is one backend implementation under comparative benchmark.
type Candidate struct {
	Name      string
	BaseURL   string
	Scenarios []Scenario
}

// Scenario is one named workload run against a candidate.
type Scenario struct {
	Name string
	// Path is the wrk Lua script driving the scenario.
	Path string
	// Auth marks scenarios whose script needs a fresh bearer token and
	// subject id patched in before the run.
	Auth bool
}

// ConfigError reports a missing or malformed field in the benchmark
// document. It aborts the run before any network activity.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid benchmark config: %v", e.Err)
	}

	return fmt.Sprintf("invalid benchmark config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

type document struct {
	POCs []pocEntry `yaml:"pocs"`
}

type pocEntry struct {
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url"`
	Scripts []scriptEntry `yaml:"scripts"`
}

type scriptEntry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	Auth bool   `yaml:"auth"`
}

// Load reads and validates the benchmark document at path. Relative script
// paths are resolved against the directory containing the document.
func Load(path string) ([]Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	candidates, err := Parse(data)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
		}

		return nil, err
	}

	baseDir := filepath.Dir(path)
	for i := range candidates {
		for j := range candidates[i].Scenarios {
			p := candidates[i].Scenarios[j].Path
			if !filepath.IsAbs(p) {
				candidates[i].Scenarios[j].Path = filepath.Join(baseDir, p)
			}
		}
	}

	return candidates, nil
}

// Parse decodes and validates a benchmark document. Unknown fields are
// rejected, and every validation problem is reported in one ConfigError.
func Parse(data []byte) ([]Candidate, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Err: errors.New("document is empty")}
		}

		return nil, &ConfigError{Err: fmt.Errorf("decode YAML: %w", err)}
	}

	if err := doc.validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}

	candidates := make([]Candidate, 0, len(doc.POCs))
	for _, p := range doc.POCs {
		c := Candidate{
			Name:      p.Name,
			BaseURL:   p.BaseURL,
			Scenarios: make([]Scenario, 0, len(p.Scripts)),
		}
		for _, s := range p.Scripts {
			c.Scenarios = append(c.Scenarios, Scenario(s))
		}

		candidates = append(candidates, c)
	}

	return candidates, nil
}

func (d *document) validate() error {
	if len(d.POCs) == 0 {
		return errors.New("pocs: at least one candidate is required")
	}

	var result *multierror.Error

	seen := make(map[string]bool, len(d.POCs))

	for i, p := range d.POCs {
		field := fmt.Sprintf("pocs[%d]", i)

		switch {
		case p.Name == "":
			result = multierror.Append(result,
				fmt.Errorf("%s.name: required", field))
		case seen[p.Name]:
			result = multierror.Append(result,
				fmt.Errorf("%s.name: duplicate candidate %q", field, p.Name))
		default:
			seen[p.Name] = true
		}

		if err := validateBaseURL(p.BaseURL); err != nil {
			result = multierror.Append(result,
				fmt.Errorf("%s.base_url: %w", field, err))
		}

		if len(p.Scripts) == 0 {
			result = multierror.Append(result,
				fmt.Errorf("%s.scripts: at least one scenario is required", field))
		}

		scenarios := make(map[string]bool, len(p.Scripts))

		for j, s := range p.Scripts {
			sfield := fmt.Sprintf("%s.scripts[%d]", field, j)

			switch {
			case s.Name == "":
				result = multierror.Append(result,
					fmt.Errorf("%s.name: required", sfield))
			case scenarios[s.Name]:
				result = multierror.Append(result,
					fmt.Errorf("%s.name: duplicate scenario %q", sfield, s.Name))
			default:
				scenarios[s.Name] = true
			}

			if s.Path == "" {
				result = multierror.Append(result,
					fmt.Errorf("%s.path: required", sfield))
			}
		}
	}

	return result.ErrorOrNil()
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return errors.New("required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("host is required")
	}

	return nil
}
