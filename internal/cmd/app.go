// Package cmd implements the hotticket command-line interface.
package cmd

import (
	"io"
	"os"

	"hotticket/internal/client"
	"hotticket/internal/config"

	"golang.org/x/term"
)

// App holds application state shared across commands.
type App struct {
	Config     config.Config
	ConfigPath string // file the config was read from (may not exist)
	Client     *client.Client
	Out        io.Writer
	Err        io.Writer
	JSON       bool // output in JSON format
	Getenv     func(string) string
}

func (a *App) isTerminal() bool {
	f, ok := a.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SuccessColor returns the string wrapped in green ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) SuccessColor(s string) string {
	if a.isTerminal() {
		return "\033[32m" + s + "\033[0m"
	}
	return s
}

// WarnColor returns the string wrapped in orange ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) WarnColor(s string) string {
	if a.isTerminal() {
		return "\033[38;5;214m" + s + "\033[0m"
	}
	return s
}

func (a *App) getenv(key string) string {
	if a.Getenv == nil {
		return os.Getenv(key)
	}
	return a.Getenv(key)
}
