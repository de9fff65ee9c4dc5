// Package app wires configuration, logging, storage and services together for
// the postboard binaries.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/notepid/postboard/internal/account"
	"github.com/notepid/postboard/internal/config"
	"github.com/notepid/postboard/internal/db"
	"github.com/notepid/postboard/internal/logging"
	"github.com/notepid/postboard/internal/message"
)

// App holds the loaded configuration, the open database and the services built
// on top of it.
type App struct {
	Config *config.Config
	Log    zerolog.Logger
	DB     *db.DB

	Accounts *account.Service
	Messages *message.Service
}

// New loads the configuration at configPath, opens and migrates the database
// and builds the services. Logs go to logOut. The returned cleanup closes the
// database.
func New(ctx context.Context, configPath string, logOut io.Writer) (*App, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, nil, err
	}

	database, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	accountRepo := account.NewRepo(database)
	messageRepo := message.NewRepo(database)

	a := &App{
		Config:   cfg,
		Log:      log,
		DB:       database,
		Accounts: account.NewService(accountRepo, database, cfg.Security.BcryptCost),
		Messages: message.NewService(messageRepo, accountRepo, database),
	}

	cleanup := func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}

	return a, cleanup, nil
}
