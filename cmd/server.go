package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toolroom/internal/core/config"
	"toolroom/internal/database"
	"toolroom/internal/devserver"
	"toolroom/internal/devserver/seed"
	"toolroom/pkg/models"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tool room backend",
		Long:  "Runs the REST backend. Data lives in postgres when DATABASE_URL is set and in memory otherwise.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadServer()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			log, err := a.logger(cfg.LogLevel)
			if err != nil {
				return err
			}

			st, closer, err := devserver.OpenStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := closer(); err != nil {
					log.Warn("close store", zap.Error(err))
				}
			}()

			return devserver.New(cfg, st, log).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides TOOLROOM_LISTEN)")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run migrations manually.",
		Long:  `Applies the database migrations without starting the backend. serve migrates on start as well.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg config.Server
			if err := config.ParseEnv(&cfg); err != nil {
				return err
			}
			migrationDir, _ := cmd.Flags().GetString("dir")
			if migrationDir == "" {
				migrationDir = cfg.MigrationsDir
			}

			log, err := a.logger(cfg.LogLevel)
			if err != nil {
				return err
			}
			if err := database.RunMigrations(cfg.DatabaseURL, migrationDir, true, log); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Directory containing the migration files (overrides MIGRATIONS_DIR)")
	return cmd
}

func newToolImportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load tools from a CSV or pasted text file into the backend store",
		Long: `Reads FILE and adds every tool whose name is not in the inventory yet.
CSV files name their columns in the first row (tool_name, quantity, location, category,
identification_code, gauge, make, range_mm, description). Text files hold one tool per
line with tab or space separated columns: Sl no, name, range, code, make, quantity,
location, gauge, remarks. Use - to read standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := seed.NewFormat(format)
			if err != nil {
				return err
			}

			in := io.Reader(a.in)
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open inventory file: %w", err)
				}
				defer file.Close()
				in = file
			}
			tools, err := seed.Parse(in, parsed)
			if err != nil {
				return err
			}
			return a.importTools(cmd, tools)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(seed.FormatCSV), "csv or text")
	return cmd
}

func newToolSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add a few sample tools to the backend store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.importTools(cmd, seed.Samples())
		},
	}
}

// importTools writes straight to the postgres database configured for serve.
func (a *app) importTools(cmd *cobra.Command, tools []models.Tool) error {
	var cfg config.Server
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}
	log, err := a.logger(cfg.LogLevel)
	if err != nil {
		return err
	}
	st := a.store
	if st == nil {
		if !cfg.UsesPostgres() {
			return errors.New("DATABASE_URL is not set, tools can only be loaded into postgres")
		}
		opened, closer, err := devserver.OpenStore(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := closer(); err != nil {
				log.Warn("close store", zap.Error(err))
			}
		}()
		st = opened
	}

	res, err := seed.Import(cmd.Context(), st, tools, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d tools, skipped %d already in the inventory\n", len(res.Created), len(res.Skipped))
	return nil
}
