package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	redisadapter "github.com/clycites/clygate/internal/adapters/redis"
	"github.com/clycites/clygate/internal/bootstrap"
)

const defaultMigrationTimeout = 5 * time.Minute

// withDB connects to Postgres, runs fn, and closes the connection.
func withDB(cmdCtx *commandContext, fn func(db *sql.DB) error) error {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig:    cmdCtx.Config.Postgres,
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}

	runErr := fn(db)
	if closeErr := db.Close(); closeErr != nil {
		runErr = errors.Join(runErr, fmt.Errorf("close db: %w", closeErr))
	}
	return runErr
}

func runMigrate(cmdCtx *commandContext, _ []string) error {
	return withDB(cmdCtx, func(db *sql.DB) error {
		ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultMigrationTimeout)
		defer cancel()
		return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
	})
}

func runRevoke(cmdCtx *commandContext, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("usage: revoke <session-id>")
	}
	sessionID := args[0]

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		DBConfig:    cmdCtx.Config.Postgres,
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Error("close redis failed", "error", closeErr)
		}
	}()

	store := redisadapter.NewSessionStoreWithPrefix(client, "session:")
	if err := store.Delete(cmdCtx.Ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	cmdCtx.Logger.InfoContext(cmdCtx.Ctx, "session revoked", "session_id", sessionID)
	return nil
}
