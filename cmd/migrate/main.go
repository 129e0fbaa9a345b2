package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	storeapp "github.com/japabox/storefront/internal/application/store"
	"github.com/japabox/storefront/internal/infrastructure/config"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	"github.com/japabox/storefront/internal/infrastructure/migration"
	"github.com/japabox/storefront/internal/infrastructure/persistence"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "internal/infrastructure/migration/sql"

type options struct {
	path     string
	logLevel string
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Database migrations for the storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.path, "path", "", "Migrations directory (default: migrations compiled into the binary)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(upCmd(opts))
	rootCmd.AddCommand(downCmd(opts))
	rootCmd.AddCommand(versionCmd(opts))
	rootCmd.AddCommand(forceCmd(opts))
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(listCmd(opts))
	rootCmd.AddCommand(seedCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func upCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(opts, func(m *migration.Migrator) error {
				return m.Up()
			})
		},
	}
}

func downCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "down [n]",
		Short: "Roll back the last n migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				n = v
			}
			return withMigrator(opts, func(m *migration.Migrator) error {
				return m.Down(n)
			})
		},
	}
}

func versionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(opts, func(m *migration.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	}
}

func forceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version without running migrations",
		Long:  "Clears the dirty flag after a failed migration was fixed by hand.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(opts, func(m *migration.Migrator) error {
				return m.Force(version)
			})
		},
	}
}

func createCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := migration.CreateMigration(dir, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created migration %06d_%s\n", file.Version, file.Name)
			fmt.Fprintf(out, "  %s\n  %s\n", file.UpPath, file.DownPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "Directory to write the migration into")
	return cmd
}

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				names []string
				err   error
			)
			if opts.path == "" {
				names, err = migration.EmbeddedMigrations()
			} else {
				names, err = migration.ListMigrations(opts.path)
			}
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func seedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the first store with the default menu when the database has none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := persistence.NewDatabase(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel(opts.logLevel)))
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			if cfg.Database.Driver == "sqlite" {
				if err := db.AutoMigrate(); err != nil {
					return err
				}
			}

			loc, err := time.LoadLocation(cfg.Store.Timezone)
			if err != nil {
				loc = time.UTC
			}
			svc, err := storeapp.NewService(
				persistence.NewGormStoreRepository(db.DB),
				persistence.NewGormCategoryRepository(db.DB),
				persistence.NewGormProductRepository(db.DB),
				persistence.NewGormCouponRepository(db.DB),
				nil, loc, log,
				storeapp.WithTransactionScope(persistence.NewGormStoreTransactionScope(db.DB)),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ids, err := svc.ListStoreIDs(ctx)
			if err != nil {
				return err
			}
			if len(ids) > 0 {
				log.Info("Stores already present, nothing to seed", zap.Strings("store_ids", ids))
				return nil
			}
			st, err := svc.CreateStore(ctx)
			if err != nil {
				return err
			}
			log.Info("Seeded store", zap.String("store_id", st.ID), zap.String("name", st.Name))
			return nil
		},
	}
}

func setup(opts *options) (*config.Config, *zap.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  opts.logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, log, nil
}

// withMigrator opens the configured postgres database and runs fn
func withMigrator(opts *options, fn func(*migration.Migrator) error) error {
	cfg, log, err := setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Database.Driver != "postgres" {
		return errors.New("migrations target postgres; sqlite schemas are created on server start")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m, err := migration.New(db, opts.path, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return fn(m)
}
