// Package config handles hotticket configuration loading and defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file created by "hotticket init" inside the
// data directory.
const DefaultFileName = "hotticket.yaml"

// Config represents the contents of hotticket.yaml (or a .toml equivalent).
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Client  ClientConfig  `yaml:"client" toml:"client"`
}

type ServerConfig struct {
	Address string `yaml:"address" toml:"address"`
	Port    int    `yaml:"port" toml:"port"`
}

type StorageConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file,omitempty" toml:"file,omitempty"`
}

type ClientConfig struct {
	URL string `yaml:"url" toml:"url"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address: "127.0.0.1",
			Port:    8080,
		},
		Storage: StorageConfig{
			Dir: "data",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Client: ClientConfig{
			URL: "http://127.0.0.1:8080",
		},
	}
}

// Addr returns the server listen address in host:port form.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads the config file at path and applies defaults for missing
// fields. Files ending in .toml are decoded as TOML, anything else as YAML.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Write writes the provided configuration to path.
func Write(path string, cfg Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

