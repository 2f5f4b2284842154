package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"hotticket/internal/api"
	"hotticket/internal/config"
	"hotticket/internal/filestore"
	"hotticket/internal/logging"
	"hotticket/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// newServeCmd creates the serve command.
func newServeCmd(provider *AppProvider) *cobra.Command {
	var (
		port    int
		address string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST server",
		Long: `Serve the issue tracker API over HTTP.

Entity data lives in <data-dir>/{users,issues,comments,votes}.json. Missing
files are created as empty arrays.

Examples:
  hotticket serve                 # 127.0.0.1:8080, data in ./data
  hotticket serve -p 9000 -d      # port 9000 with debug logging
  hotticket serve --data-dir /srv/tickets --address 0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := provider.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("address") {
				cfg.Server.Address = address
			}
			if debug {
				cfg.Log.Level = "debug"
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Path:   cfg.Log.File,
				Writer: provider.Err,
			})
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler, err := buildHandler(ctx, cfg.Storage.Dir, logger.Logger)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", cfg.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
			}
			logger.Info().Str("data_dir", cfg.Storage.Dir).Msg("starting hotticket server")
			return api.Serve(ctx, ln, handler, logger.Logger)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", config.Default().Server.Port, "Port to listen on")
	cmd.Flags().StringVar(&address, "address", config.Default().Server.Address, "Address to bind")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

// buildHandler opens the stores under dir and wires services into the
// HTTP router.
func buildHandler(ctx context.Context, dir string, log zerolog.Logger) (http.Handler, error) {
	stores := make(map[string]*filestore.File, len(filestore.Files))
	for _, name := range filestore.Files {
		f := filestore.Open(dir, name)
		if err := f.Init(ctx); err != nil {
			return nil, fmt.Errorf("initializing %s: %w", f.Path(), err)
		}
		stores[name] = f
	}

	opts := []service.Option{service.WithLogger(log)}
	users := service.NewUserService(stores[filestore.UsersFile], opts...)
	comments := service.NewCommentService(stores[filestore.CommentsFile], users, opts...)
	votes := service.NewVoteService(stores[filestore.VotesFile], users, opts...)
	issues := service.NewIssueService(stores[filestore.IssuesFile], users, comments, votes, opts...)

	return api.NewRouter(api.Services{
		Users:    users,
		Issues:   issues,
		Comments: comments,
		Votes:    votes,
	}, log), nil
}
