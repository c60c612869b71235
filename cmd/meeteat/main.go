// Package main is the meet&eat backend binary. It serves the REST API and
// the platform webhook, runs the survey dispatcher, and applies schema
// migrations.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tbourn/meet-eat-backend/internal/config"
	"github.com/tbourn/meet-eat-backend/internal/sysutil"
)

const appName = "meeteat"

// Set with -ldflags "-X main.version=... -X main.buildTime=...".
var (
	version   string
	buildTime string
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	envFile  string
	logLevel string
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "meet&eat backend",
		Long: `Backend for the meet&eat mini-app: meal invites between users,
post-meal "did you meet" surveys, reactions and notification feeds.

Configuration comes from the environment; a .env file is loaded first
when present.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(&g), dispatchCmd(&g), migrateCmd(&g), versionCmd())
	return cmd
}

func serveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, the webhook and the survey dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, displayVersion())
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(ctx)
		},
	}
}

func dispatchCmd(g *globalFlags) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Run the survey dispatcher without the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, displayVersion())
			if err != nil {
				return err
			}
			defer a.close()

			d := a.dispatcher()
			if !once {
				return d.Run(ctx)
			}
			res, err := d.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "candidates=%d claimed=%d skipped=%d delivered=%d failed=%d\n",
				res.Candidates, res.Claimed, res.Skipped, res.Delivered, res.Failed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return cmd
}

func migrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			return migrate(cfg)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n",
				appName, displayVersion(), sysutil.FirstNonEmpty(buildTime, "unknown"))
		},
	}
}

func displayVersion() string { return sysutil.FirstNonEmpty(version, "dev") }

// loadConfig reads the dotenv file (a missing file is fine), then the
// environment, then applies flag overrides.
func loadConfig(g *globalFlags) (config.Config, error) {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("load %s: %w", g.envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(g.logLevel))
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// migrate opens the configured store and applies the schema.
func migrate(cfg config.Config) error {
	log := newLogger(cfg)
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)
	log.Info().Str("driver", cfg.DB.Driver).Msg("schema migrated")
	return nil
}
