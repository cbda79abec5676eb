// Package config loads the lattice project configuration.
//
// A project is described by a lattice.yaml file naming the current and
// target schema entrypoints plus catalog options:
//
//	declarative: true
//	schemas:
//	  current: db/current.sdl
//	  target: db/target.sdl
//	plan:
//	  indent: "    "
package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// Config is the complete project configuration.
	Config struct {
		// Declarative controls whether schema compilation requires explicit
		// `inherited` tags on shadowing declarations. Defaults to true.
		Declarative *bool `yaml:"declarative"`

		// Schemas names the schema entrypoint files.
		Schemas Schemas `yaml:"schemas"`

		// Plan configures migration plan rendering.
		Plan Plan `yaml:"plan"`
	}

	// Schemas names the schema definition entrypoints of the project.
	Schemas struct {
		// Current is the SDL file describing the live catalog state.
		Current string `yaml:"current"`

		// Target is the SDL file describing the desired catalog state.
		Target string `yaml:"target"`
	}

	// Plan configures plan rendering.
	Plan struct {
		// Indent is the per-level indentation of rendered plans.
		Indent string `yaml:"indent"`
	}
)

// IsDeclarative reports the effective declarative-mode setting.
func (c *Config) IsDeclarative() bool {
	return c.Declarative == nil || *c.Declarative
}

// LoadConfig parses a project configuration from the provided reader.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from path.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config file %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}
