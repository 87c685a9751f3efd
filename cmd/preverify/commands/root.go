package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/preverify/internal/app"
	"github.com/florianilch/preverify/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "preverify",
		Usage: "Voter pre-verification companion",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otel)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "storage--backend",
				Usage: "credential storage backend (file|sqlite|keyring)",
				Value: string(app.DefaultConfigStorageBackend),
			},
			&cli.StringFlag{
				Name:  "storage--path",
				Usage: "credential directory (file) or database (sqlite)",
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "verification service base URL",
			},
		},
		Commands: []*cli.Command{
			issueCommand(),
			registerCommand(),
			statusCommand(),
			serveCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads configuration, installs logging and creates the application.
// The returned cleanup flushes logs and releases storage.
func setup(ctx context.Context, cmd *cli.Command) (*app.App, func(), error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	shutdownLogging, err := observability.Instrument(ctx, cfg.LogLevel, string(cfg.LogFormat), string(cfg.LogExporter))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		_ = shutdownLogging(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("failed to create app: %w", err)
	}

	cleanup := func() {
		if err := application.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close storage", "error", err)
		}
		_ = shutdownLogging(context.WithoutCancel(ctx))
	}
	return application, cleanup, nil
}
