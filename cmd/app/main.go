package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/dagaz/internal"
	pkgconfig "github.com/starford/dagaz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}
	// Default path is optional; built-in defaults apply when it is absent.
	if _, err := pkgconfig.LoadIfPresent(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func collectAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Collect(ctx,
		internal.WithConfig(cfg),
		internal.WithDryRun(cmd.Bool("dry-run")),
		internal.WithVerbose(cmd.Bool("verbose")),
		internal.WithDate(cmd.String("date")),
	)
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Watch(ctx,
		internal.WithConfig(cfg),
		internal.WithVerbose(cmd.Bool("verbose")),
	)
}

func linkAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Link(ctx, internal.WithConfig(cfg))
}

func statsAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Stats(ctx, os.Stdout,
		cmd.String("key"), cmd.String("from"), cmd.String("to"),
		internal.WithConfig(cfg),
	)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Serve(ctx, internal.WithConfig(cfg))
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.MCP(ctx, internal.WithConfig(cfg))
}

func main() {
	verboseFlag := &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Log per-segment parser diagnostics and dedup decisions",
	}

	cmd := &cli.Command{
		Name:  "dagaz",
		Usage: "Collect activity notation from journal entries into per-activity archives",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config/config.yaml",
				Sources: cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "collect",
				Usage:  "Run one collection pass over the journal",
				Action: collectAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Report intended appends without writing",
					},
					verboseFlag,
					&cli.StringFlag{
						Name:  "date",
						Usage: "Fallback date (YYYY-MM-DD) for journal files without one in their name",
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Collect continuously on journal changes",
				Action: watchAction,
				Flags:  []cli.Flag{verboseFlag},
			},
			{
				Name:   "link",
				Usage:  "Expand auto-generated sub-activity lists in parent archives",
				Action: linkAction,
			},
			{
				Name:   "stats",
				Usage:  "Print per-activity aggregates from the ledger",
				Action: statsAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "key",
						Usage: "Restrict to an activity key and its sub-activities",
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Earliest date (YYYY-MM-DD), inclusive",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Latest date (YYYY-MM-DD), inclusive",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the read API with live updates",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve archives and stats to MCP clients over stdio",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
