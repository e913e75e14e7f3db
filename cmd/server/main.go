package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"flourcast/internal/config"
	"flourcast/internal/db"
	"flourcast/internal/db/mock"
	applog "flourcast/internal/log"
	"flourcast/internal/server"
)

func main() {
	ctx := context.Background()

	// Optional local overrides; absence of a .env file is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		applog.Debug(ctx, "no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		applog.Error(ctx, "invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := applog.SetLevel(cfg.LogLevel); err != nil {
		applog.Error(ctx, "invalid log level", "error", err)
		os.Exit(1)
	}

	var database *gorm.DB
	if cfg.Database.MockDB {
		applog.Info(ctx, "using seeded in-memory database")
		database, err = mock.New(ctx)
	} else {
		database, err = db.Configure(cfg.Database)
	}
	if err != nil {
		applog.Error(ctx, "database initialization failed", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Addr: cfg.Server.Addr,
		Session: server.SessionConfig{
			Lifetime:     cfg.Server.SessionLifetime,
			CookieName:   cfg.Server.CookieName,
			CookieSecure: cfg.Server.CookieSecure,
		},
		Database: database,
	})
	if err != nil {
		applog.Error(ctx, "server initialization failed", "error", err)
		os.Exit(1)
	}

	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh

	applog.Info(ctx, "shutting down http server")
	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
