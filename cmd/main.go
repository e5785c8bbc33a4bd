package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/aadi-novice/guardian/internal/api"
	"github.com/aadi-novice/guardian/internal/catalog"
	"github.com/aadi-novice/guardian/internal/credentials"
	"github.com/aadi-novice/guardian/internal/session"
	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var store credentials.Store = credentials.NewMemoryStore()
	var cache *catalog.Store

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		logger.Warnf("local database unavailable, sessions will not persist: %v", err)
	} else {
		defer db.Close()
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warnf("failed to run migrations: %v", err)
		} else {
			store = credentials.NewSQLiteStore(db, logger)
			cache = catalog.NewStore(db)
		}
	}

	sess := session.New(session.Opts{
		Store:  store,
		Logger: logger,
		OnRedirectToLogin: func() {
			logger.Warn("session expired, sign in again with 'guardian auth login'")
		},
	})
	client := api.NewClient(api.ClientOpts{
		BaseURL:          config.API.BaseURL,
		HTTPClient:       &http.Client{Timeout: config.API.Timeout()},
		Store:            store,
		Logger:           logger,
		OnSessionExpired: sess.Expire,
	})
	sess.AttachClient(client)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Client:  client,
		Session: sess,
		Catalog: cache,
		Store:   store,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "guardian",
		Usage:    "Browse courses and view protected learning material",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
