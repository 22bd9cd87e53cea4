// Package config loads the worker's optional YAML configuration.
//
// The worker takes no command-line flags. PYREPL_CONFIG may point at a YAML
// file; an empty path or a missing file yields the built-in defaults, so the
// zero-setup case (spawned as a bare child process) always works.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Policies names the protocol leniency behaviors. Both are deliberate
// policies of the wire protocol, not accidents, which is why they are
// configurable and tested in both positions.
type Policies struct {
	// LenientHeaders: transport lines that do not parse as a
	// Content-Length header are skipped instead of failing the stream.
	LenientHeaders bool `yaml:"lenient_headers"`
	// PermissiveMethods: methods outside the routing table answer with an
	// empty result instead of -32601.
	PermissiveMethods bool `yaml:"permissive_methods"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Throttle bounds request handling with a token bucket. RPS 0 disables it;
// the serve loop is strictly serial either way.
type Throttle struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Config struct {
	Log      Log      `yaml:"log"`
	Codec    string   `yaml:"codec"` // "json" or "sonic"
	Throttle Throttle `yaml:"throttle"`
	Policies Policies `yaml:"policies"`
}

func Default() Config {
	return Config{
		Log:   Log{Level: "info", Format: "json"},
		Codec: "json",
		Policies: Policies{
			LenientHeaders:    true,
			PermissiveMethods: true,
		},
	}
}

// Load reads path over the defaults. Empty path or a nonexistent file is not
// an error; malformed YAML is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
