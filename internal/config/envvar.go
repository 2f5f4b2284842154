package config

import (
	"fmt"
	"strconv"
)

// Environment variable names for hotticket configuration.
const (
	EnvAddress   = "HT_ADDRESS"    // Override server.address
	EnvPort      = "HT_PORT"       // Override server.port
	EnvDataDir   = "HT_DATA_DIR"   // Override storage.dir
	EnvLogLevel  = "HT_LOG_LEVEL"  // Override log.level
	EnvServerURL = "HT_SERVER_URL" // Override client.url
	EnvUser      = "HT_USER"       // Acting user id for client commands
)

// ApplyEnvOverrides overrides cfg with any HT_* variables set in the
// environment, as read through getenv. Overrides are never persisted.
func ApplyEnvOverrides(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvAddress); v != "" {
		cfg.Server.Address = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: must be an integer, got %q", EnvPort, v)
		}
		cfg.Server.Port = port
	}
	if v := getenv(EnvDataDir); v != "" {
		cfg.Storage.Dir = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv(EnvServerURL); v != "" {
		cfg.Client.URL = v
	}
	return nil
}
