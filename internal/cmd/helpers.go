package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"hotticket/internal/config"
	"hotticket/internal/entity"
	"hotticket/internal/timeutil"
	"hotticket/internal/validate"

	"github.com/dustin/go-humanize"
)

// Input rules for flag and argument values.
var (
	idRule     = validate.ID()
	nameRule   = validate.All(validate.NotEmpty("name cannot be empty"), validate.Length(1, 64, ""))
	titleRule  = validate.All(validate.NotEmpty("title cannot be empty"), validate.Length(1, 128, ""))
	bodyRule   = validate.NotEmpty("comment body cannot be empty")
	statusRule = validate.OneOf(entity.Statuses, "")
)

// checkID validates an entity id given on the command line.
func checkID(what, id string) error {
	if err := idRule.Validate(id); err != nil {
		return fmt.Errorf("invalid %s %q: %w", what, id, err)
	}
	return nil
}

// resolveUser determines the acting user id. The --as flag wins, then the
// HT_USER env var.
func resolveUser(app *App, flag string) (string, error) {
	id := flag
	if id == "" {
		id = app.getenv(config.EnvUser)
	}
	if id == "" {
		return "", fmt.Errorf("no acting user: pass --as <user-id> or set %s", config.EnvUser)
	}
	if err := checkID("user id", id); err != nil {
		return "", err
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// relTime renders a wire timestamp as "3 hours ago", or "-" when unset.
func relTime(s string) string {
	ts, err := timeutil.Parse(s)
	if err != nil {
		return s
	}
	if ts.IsNull() {
		return "-"
	}
	return humanize.Time(ts.Time)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
