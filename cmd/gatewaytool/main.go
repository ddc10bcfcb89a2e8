// gatewaytool is an offline maintenance CLI for the Gateway database: it
// never loads a map or starts a tick loop, only opens a connection pool
// long enough to run one command.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/embervale/worldserver/internal/config"
	"github.com/embervale/worldserver/internal/persist"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "gatewaytool",
		Short: "Offline maintenance for the Embervale Gateway database",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config/broker.toml", "path to broker config (for the database DSN)")

	root.AddCommand(newMigrateCmd(&cfgPath))
	root.AddCommand(newQuestVarCmd(&cfgPath))
	return root
}

func newMigrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply any pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			pool, cleanup, err := openPool(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := persist.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func newQuestVarCmd(cfgPath *string) *cobra.Command {
	var charID int32

	cmd := &cobra.Command{
		Use:   "questvars",
		Short: "Dump a character's persisted quest variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			pool, cleanup, err := openPool(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()

			repo := persist.NewQuestRepo(&persist.DB{Pool: pool})
			vars, err := repo.LoadAll(ctx, charID)
			if err != nil {
				return fmt.Errorf("load quest vars: %w", err)
			}
			for k, v := range vars {
				fmt.Printf("%s = %s\n", k, v)
			}
			return nil
		},
	}
	cmd.Flags().Int32Var(&charID, "char", 0, "character id")
	cmd.MarkFlagRequired("char")
	return cmd
}

// openPool opens a short-lived connection pool for a one-shot command,
// bypassing persist.NewDB's zap logger requirement (this tool runs
// without one).
func openPool(ctx context.Context, cfgPath string) (*pgxpool.Pool, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return pool, pool.Close, nil
}
