package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/jrsteele09/go-session-auth/users/postgres"
	fakeuserrepo "github.com/jrsteele09/go-session-auth/users/repofake"
)

const memoryCleanupInterval = time.Minute

// newUserRepo connects to postgres when DATABASE_URL is set, otherwise users live in memory.
func newUserRepo(ctx context.Context, c config.Config, logger zerolog.Logger) (users.UserRepo, func(), error) {
	if c.GetDatabaseURL() == "" {
		logger.Warn().Msg("DATABASE_URL not set, users are kept in memory and lost on restart")
		return fakeuserrepo.NewFakeUserRepo(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, c.GetDatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}

	repo := postgres.NewUserRepo(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Msg("Connected to postgres")
	return repo, pool.Close, nil
}

func newSessionStore(ctx context.Context, c config.Config, logger zerolog.Logger) (sessions.Store, func(), error) {
	if c.GetSessionStore() == config.SessionStoreMemory {
		logger.Warn().Msg("Using in-memory session store, refresh tokens are lost on restart")
		store := sessions.NewMemoryStore()
		go store.RunCleanup(ctx, memoryCleanupInterval)
		return store, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
		DB:       c.GetRedisDB(),
	})
	store := sessions.NewRedisStore(client)
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", c.GetRedisAddr(), err)
	}
	logger.Info().Str("addr", c.GetRedisAddr()).Msg("Connected to redis")
	return store, func() { _ = client.Close() }, nil
}
