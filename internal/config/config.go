// Package config loads the YAML configuration declaring which
// repositories to watch and the filters their pull requests must satisfy.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/jacoelho/webql/internal/filter"
	"github.com/jacoelho/webql/internal/query"
)

var (
	ErrEmptyOwner = errors.New("repository owner cannot be empty")
	ErrEmptyRepo  = errors.New("repository name cannot be empty")
)

// Config is the root of the webql configuration file.
type Config struct {
	Repositories Repositories `yaml:"repositories"`
}

// Repositories groups the watched resources by kind.
type Repositories struct {
	PullRequest []PullRequest `yaml:"pull_request"`
}

// PullRequest declares one repository whose pull requests are fetched and
// matched against Filters (AND between filters, OR between a filter's
// values).
type PullRequest struct {
	Owner    string          `yaml:"owner"`
	Repo     string          `yaml:"repo"`
	Priority int             `yaml:"priority"`
	Filters  []filter.Filter `yaml:"filters"`
}

// Load decodes and validates a configuration document.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("configuration is empty")
		}
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFile loads a configuration from a file path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open configuration file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// validate checks repository coordinates and compiles every filter query
// so malformed queries surface at load time rather than mid-fetch.
func (c *Config) validate() error {
	for i, repository := range c.Repositories.PullRequest {
		if repository.Owner == "" {
			return fmt.Errorf("pull_request[%d]: %w", i, ErrEmptyOwner)
		}
		if repository.Repo == "" {
			return fmt.Errorf("pull_request[%d]: %w", i, ErrEmptyRepo)
		}
		for j, f := range repository.Filters {
			if _, err := query.Parse(f.Query); err != nil {
				return fmt.Errorf("pull_request[%d] filter[%d]: %w", i, j, err)
			}
			if _, err := filter.ParseOperator(string(f.Operation)); err != nil {
				return fmt.Errorf("pull_request[%d] filter[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}
