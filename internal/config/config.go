// Package config loads slimd's server configuration: an optional YAML
// file read first, then overridden field-by-field by command-line
// flags. cmd/slimd parses flags with the standard library's flag
// package; only the YAML file itself uses a third-party library
// (gopkg.in/yaml.v3).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	slimerrors "github.com/fitnesse-go/slimd/internal/errors"
)

// Config is the full set of values that control how a slimd server
// binds, accepts, and logs. Zero values mean "use the default",
// applied by Defaults and never overwritten by a YAML file that
// simply omits the field.
type Config struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Keepalive      bool     `yaml:"keepalive"`
	Verbose        bool     `yaml:"verbose"`
	MaxConnections int      `yaml:"maxConnections"`
	FixturePaths   []string `yaml:"fixturePaths"`
}

// Defaults returns the configuration a bare `slimd` invocation runs
// with: bind every interface, serve exactly one connection and exit
// (matching how FitNesse itself launches a SLIM server), quiet
// logging, no connection cap, and no pre-registered fixture paths.
func Defaults() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8085,
		Keepalive:      false,
		Verbose:        false,
		MaxConnections: 0,
	}
}

// Load reads a YAML configuration file at path and merges it onto
// Defaults(). A field absent from the file (the zero value after
// unmarshal) keeps its default rather than being overwritten with a
// Go zero value, except for the booleans, which are always copied from
// the file (an omitted boolean reads as false, which is also its
// default).
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &slimerrors.ValidationError{
			Field:   "config",
			Value:   path,
			Message: fmt.Sprintf("read config file: %v", err),
		}
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, &slimerrors.ValidationError{
			Field:   "config",
			Value:   path,
			Message: fmt.Sprintf("parse YAML: %v", err),
		}
	}

	if file.Host != "" {
		cfg.Host = file.Host
	}
	if file.Port != 0 {
		cfg.Port = file.Port
	}
	cfg.Keepalive = file.Keepalive
	cfg.Verbose = file.Verbose
	if file.MaxConnections != 0 {
		cfg.MaxConnections = file.MaxConnections
	}
	if len(file.FixturePaths) > 0 {
		cfg.FixturePaths = file.FixturePaths
	}
	return cfg, nil
}
