package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/voyagen/vidstate/internal/cache"
	"github.com/voyagen/vidstate/internal/config"
	"github.com/voyagen/vidstate/internal/log"
	"github.com/voyagen/vidstate/internal/server"
	"github.com/voyagen/vidstate/internal/service"
	"github.com/voyagen/vidstate/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use env DATABASE_URL")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log.Configure(log.Config{Level: cfg.LogLevel})
	logger := log.WithComponent("main")

	ctx := context.Background()

	if err := store.RunMigrations(cfg.DatabaseURL, "file://"+migrationsDir()); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db")
	}
	defer pg.Close()

	var (
		rds       *cache.Redis
		appStore  store.Store = pg
		commander service.Commander
	)
	if cfg.RedisURL != "" {
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer rds.Close()

		if err := rds.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("redis ping")
		}
		cached := store.NewCachedStore(pg, rds, cfg.CacheTTL)
		if err := cached.Flush(ctx); err != nil {
			logger.Warn().Err(err).Msg("flush latest-state cache")
		}
		appStore = cached
		commander = cache.NewCommander(rds)
		logger.Info().Msg("redis connected (caching, event queue and engine commands enabled)")
	} else {
		logger.Info().Msg("redis disabled (REDIS_URL not set)")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if rds != nil {
		go runEventWorker(ctx, rds, appStore)
	}

	srv := server.New(appStore, cfg, commander)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error().Err(err).Msg("server")
		os.Exit(1)
	}
}

// migrationsDir prefers ./migrations and falls back to the executable's directory.
func migrationsDir() string {
	dir, err := filepath.Abs("migrations")
	if err != nil {
		dir = "migrations"
	}
	if _, err := os.Stat(dir); err != nil {
		if exe, e := os.Executable(); e == nil {
			dir = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	return dir
}
