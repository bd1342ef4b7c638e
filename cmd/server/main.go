package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/reset"
	"github.com/jrsteele09/go-session-auth/server"
	"github.com/jrsteele09/go-session-auth/token"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
}

func serve(addr string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Bytes("stack", debug.Stack()).Msgf("Recovered from panic: %v", r)
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logger := newLogger(c.GetEnv())
	log.Logger = logger

	if err := config.Validate(c); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userRepo, closeUsers, err := newUserRepo(ctx, c, logger)
	if err != nil {
		return err
	}
	defer closeUsers()

	store, closeStore, err := newSessionStore(ctx, c, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	codec := token.New(c.GetJWTSecret(),
		token.WithIssuer(c.GetJWTIssuer()),
		token.WithAudience(c.GetJWTAudience()),
		token.WithExpiry(token.KindAccess, c.GetAccessTokenExpiry()),
		token.WithExpiry(token.KindRefresh, c.GetRefreshTokenExpiry()),
		token.WithExpiry(token.KindReset, c.GetResetTokenExpiry()),
	)
	resets := reset.NewService(codec, userRepo, c.GetJWTSecret(),
		reset.WithDomain(c.GetServerDomain()),
		reset.WithExpiry(c.GetResetTokenExpiry()),
		reset.WithLogger(logger.With().Str("component", "reset").Logger()),
	)
	authService, err := auth.NewAuthService(
		auth.Repos{Users: userRepo, Sessions: store},
		codec,
		resets,
		auth.WithHashCost(c.GetSaltRounds()),
		auth.WithLogger(logger.With().Str("component", "auth").Logger()),
	)
	if err != nil {
		return fmt.Errorf("auth.NewAuthService: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, err := server.New(c, authService,
		server.WithLogger(logger.With().Str("component", "http").Logger()),
		server.WithMetrics(registry),
	)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	if addr == "" {
		addr = c.GetPort()
	}
	logger.Info().
		Str("env", c.GetEnv()).
		Str("sessionStore", c.GetSessionStore()).
		Stringer("corsAllowedOrigins", c.GetAllowedOrigins()).
		Msg("Configuration loaded")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer, logger) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	if err := shutdown(httpServer); err != nil {
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}

func newLogger(env string) zerolog.Logger {
	if env == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
