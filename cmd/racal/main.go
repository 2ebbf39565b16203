package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"racal/internal/cache"
	"racal/internal/config"
	appLog "racal/internal/log"
	"racal/internal/ra"
	"racal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	cacheDir   string
}

func main() {
	appLog.Info("racal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides take precedence over the config file.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.cacheDir != "" {
		conf.CacheDir = flags.cacheDir
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"upstream_url", conf.UpstreamURL,
		"origin", conf.Origin,
		"cache_dir", conf.CacheDir,
		"cache_ttl_seconds", conf.CacheTTLSeconds,
		"prune_cron", conf.PruneCron,
	)

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

	respCache := cache.New(conf.CacheDir, time.Duration(conf.CacheTTLSeconds)*time.Second)
	client := ra.NewClient(conf.UpstreamURL, respCache)
	server := web.NewServer(conf, client, respCache)

	// Periodic sweep of expired cache entries.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(conf.PruneCron, func() {
		respCache.Prune()
	}); err != nil {
		appLog.Error("invalid prune schedule", err, "prune_cron", conf.PruneCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLog.Error("HTTP server shutdown failed", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}

	appLog.Info("racal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/racal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.cacheDir, "cache-dir", "", "Response cache directory (overrides config if set)")

	flag.Parse()

	return cfg
}
