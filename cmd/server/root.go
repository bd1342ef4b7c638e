package main

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/users/postgres"
)

// NewRootCmd creates the root command. Without a subcommand it starts the server.
func NewRootCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:          "session-auth",
		Short:        "Session auth API server",
		Long:         `Session auth serves sign-up, sign-in, token refresh, password reset and logout over HTTP.`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve(addr)
		},
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "", "listen address, overrides PORT")

	cmd.AddCommand(NewServeCmd(&addr))
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve(*addr)
		},
	}
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users table",
		Long:  `Create the users table in the PostgreSQL database named by DATABASE_URL.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	databaseURL := config.New().GetDatabaseURL()
	if databaseURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()

	cmd.Println("Connecting to database...")
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	if err := postgres.NewUserRepo(pool).EnsureSchema(ctx); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
