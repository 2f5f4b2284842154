package config

import (
	"fmt"
	"net/url"
	"strings"

	"hotticket/internal/logging"
	"hotticket/internal/validate"
)

var (
	portRule    = validate.Range(1, 65535, "must be between 1 and 65535")
	nonEmpty    = validate.NotEmpty("must not be empty")
	levelRule   = validate.OneOf(logging.Levels, "")
	formatRule  = validate.OneOf(logging.Formats, "")
	clientURLOK = validate.New(func(s string) bool {
		u, err := url.Parse(s)
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	}, "must be an http(s) URL with a host")
)

// Validate checks every field of cfg. It returns an error describing every
// invalid value found, or nil if all values are valid.
func Validate(cfg Config) error {
	var errs []string
	check := func(key string, err error) {
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}

	check("server.address", nonEmpty.Validate(cfg.Server.Address))
	check("server.port", portRule.Validate(cfg.Server.Port))
	check("storage.dir", nonEmpty.Validate(cfg.Storage.Dir))
	check("log.level", levelRule.Validate(strings.ToLower(cfg.Log.Level)))
	check("log.format", formatRule.Validate(cfg.Log.Format))
	check("client.url", clientURLOK.Validate(cfg.Client.URL))

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
}
