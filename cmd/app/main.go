package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/chronogrid/internal"
	pkgconfig "github.com/starford/chronogrid/pkg/config"
)

type runFunc func(ctx context.Context, opts ...internal.Option) error

func action(run runFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		configPath := cmd.String("config")

		cfg := internal.NewDefaultConfig()
		if err := pkgconfig.LoadWithDefaults(configPath, "", cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithOutput(os.Stdout),
		}

		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}

		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "chronogrid",
		Usage:  "Chronological media gallery with month navigation over two library panes",
		Action: action(internal.Run),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, SSE stream and library watchers",
				Action: action(internal.Run),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: action(internal.RunMCP),
			},
			{
				Name:   "sync",
				Usage:  "Sync the catalog once and print a summary per pane",
				Action: action(internal.RunSync),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
