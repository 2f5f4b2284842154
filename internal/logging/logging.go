// Package logging builds the zerolog logger shared by the server and CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Formats lists the accepted format names.
var Formats = []string{FormatAuto, FormatJSON, FormatConsole}

// Levels lists the accepted level names.
var Levels = []string{"trace", "debug", "info", "warn", "error", "disabled"}

const filePermission = 0o664

// Options configures New.
type Options struct {
	Level  string
	Format string
	// Path, when set, appends JSON lines to that file instead of writing
	// to Writer.
	Path string
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// Logger wraps a zerolog.Logger together with the file it may own.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// New builds a logger with timestamps at the requested level.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	l := &Logger{}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	format := opts.Format
	if opts.Path != "" {
		l.file, err = os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermission)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w = zerolog.SyncWriter(l.file)
		format = FormatJSON
	}

	switch format {
	case "", FormatAuto:
		if isTerminal(w) {
			w = consoleWriter(w)
		}
	case FormatConsole:
		w = consoleWriter(w)
	case FormatJSON:
	default:
		l.Close()
		return nil, fmt.Errorf("unknown log format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}

	l.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return l, nil
}

// ParseLevel parses a level name; "" means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q: %w", s, err)
	}
	return level, nil
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
