// Command quorixd runs the majority-voting governance engine behind an HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"quorix/pkg/api"
	"quorix/pkg/voting"
	"quorix/pkg/voting/executor"
	"quorix/pkg/voting/notify"
	"quorix/pkg/voting/power"
	"quorix/pkg/voting/store"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "quorixd",
		Short:        "Majority-voting governance engine",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	settings, err := cfg.VotingSettings()
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	clock := voting.SystemClock{}
	chain := voting.UnixHeightReader{Clock: clock}
	allowlist := power.NewAllowlist(cfg.Allowlist.Members, chain.CurrentHeight())

	authz := voting.NewRoleMap()
	for _, admin := range cfg.Authz.SettingsAdmins {
		authz.Grant(admin, voting.PermissionUpdateSettings)
	}
	for _, admin := range cfg.Authz.MemberAdmins {
		authz.Grant(admin, voting.PermissionManageMembers)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	notifier := notify.Multi{
		notify.NewLogNotifier(logger),
		notify.NewMetrics(registry),
	}

	service, err := voting.NewService(
		store.NewMemoryStore(),
		allowlist,
		executor.NewRecorder(logger),
		chain,
		authz,
		notifier,
		clock,
		settings,
		logger,
	)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	server := api.NewServer(service, allowlist, chain, authz, registry, cfg.Listen, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
