package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"hotticket/internal/config"
	"hotticket/internal/filestore"

	"github.com/spf13/cobra"
)

// newInitCmd creates the init command.
func newInitCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and empty stores",
		Long: `Create the data directory with an empty JSON array for each entity
type and a default config file. Existing files are left untouched, so init
is safe to run more than once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := provider.loadConfig()
			if err != nil {
				return err
			}
			out := provider.Out
			if out == nil {
				out = os.Stdout
			}

			dir := cfg.Storage.Dir
			for _, name := range filestore.Files {
				f := filestore.Open(dir, name)
				if err := f.Init(cmd.Context()); err != nil {
					return fmt.Errorf("initializing %s: %w", f.Path(), err)
				}
			}

			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
					return fmt.Errorf("creating config directory: %w", err)
				}
				if err := config.Write(path, cfg); err != nil {
					return err
				}
			}

			if provider.JSONOutput {
				return writeJSON(out, map[string]string{"data_dir": dir, "config": path})
			}
			fmt.Fprintf(out, "Initialized hotticket data in %s\n", dir)
			fmt.Fprintf(out, "Config: %s\n", path)
			return nil
		},
	}
	return cmd
}
