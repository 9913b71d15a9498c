package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
}

type loadOptions struct {
	dotenv   []string
	lookuper envconfig.Lookuper
}

// Option customizes Load.
type Option func(*loadOptions)

// WithDotEnv reads REMUS_* variables from the given dotenv files. Missing
// files are skipped. Process environment variables take precedence.
func WithDotEnv(paths ...string) Option {
	return func(o *loadOptions) {
		o.dotenv = append(o.dotenv, paths...)
	}
}

// WithLookuper replaces the process environment as the source of REMUS_*
// overrides.
func WithLookuper(l envconfig.Lookuper) Option {
	return func(o *loadOptions) {
		o.lookuper = l
	}
}

// Load reads the file at path (skipped when path is empty), applies
// environment overrides and validates the result.
func Load(ctx context.Context, path string, opts ...Option) (Config, error) {
	o := loadOptions{lookuper: envconfig.OsLookuper()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()
	if path != "" {
		format, err := FormatOf(path)
		if err != nil {
			return Config{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(data, format, &cfg); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	lookuper := o.lookuper
	if len(o.dotenv) > 0 {
		vars, err := readDotEnv(o.dotenv)
		if err != nil {
			return Config{}, err
		}
		lookuper = envconfig.MultiLookuper(lookuper, envconfig.MapLookuper(vars))
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, fmt.Errorf("environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses data onto cfg. Keys missing from data keep their current
// values; unknown keys are an error.
func Decode(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case FormatTOML:
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys: %v", undecoded)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q", format)
	}
}

func readDotEnv(paths []string) (map[string]string, error) {
	vars := make(map[string]string)
	for _, p := range paths {
		m, err := godotenv.Read(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		for k, v := range m {
			if _, seen := vars[k]; !seen {
				vars[k] = v
			}
		}
	}
	return vars, nil
}
