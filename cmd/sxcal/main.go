package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/automaxprocs/maxprocs"

	"sxcal/internal/config"
	"sxcal/internal/ics"
	appLog "sxcal/internal/log"
	"sxcal/internal/provider"
	"sxcal/internal/temporal"
	"sxcal/internal/web"
)

const version = "0.1.0-dev"

func main() {
	appLog.Info("sxcal starting", "version", version)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		appLog.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		appLog.Error("failed to set GOMAXPROCS", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := command().Run(ctx, os.Args); err != nil {
		appLog.Error("sxcal failed", err)
		os.Exit(1)
	}
	appLog.Info("sxcal exiting")
}

func command() *cli.Command {
	return &cli.Command{
		Name:    "sxcal",
		Usage:   "host calendar widgets and keep them in sync with their server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "/etc/sxcal/config.yaml",
				Usage:   "path to config file",
				Sources: cli.EnvVars("SXCAL_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "HTTP listen address (overrides config if set)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info or error (overrides config if set)",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	conf, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if cmd.IsSet("listen") {
		conf.Listen = cmd.String("listen")
	}
	if cmd.IsSet("log-level") {
		conf.LogLevel = cmd.String("log-level")
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	loc, err := temporal.LoadZone(conf.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to UTC", err, "name", conf.Timezone)
		loc = time.UTC
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"locale", conf.Locale,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"metrics", conf.Metrics,
	)

	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		if c.URL == "" {
			continue
		}
		sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL})
	}

	store := provider.New(provider.Options{
		Location: loc,
		Sources:  sources,
		CacheDir: conf.CacheDir,
		Refresh:  conf.RefreshCron,
	})
	if err := store.Start(ctx); err != nil {
		return err
	}
	defer store.Stop()

	return web.NewServer(conf, store).ListenAndServe(ctx)
}
