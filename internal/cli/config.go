package cli

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/visitlog/internal/config"
	"github.com/evcraddock/visitlog/internal/db"
	"github.com/evcraddock/visitlog/internal/kiosk"
	"github.com/evcraddock/visitlog/internal/visit"
)

// loadSettings resolves the configuration from --config, .env and the
// environment, then applies --db.
func loadSettings() (*config.Config, error) {
	cfg, err := config.LoadFromEnv(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.Storage.DBPath = flagDB
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openDB opens the configured SQLite database.
func openDB(cfg *config.Config) (*sql.DB, error) {
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	return db.Open(path, db.Options{BusyTimeout: cfg.Storage.BusyTimeout})
}

// openService opens the database and builds the kiosk service over it.
// The caller closes the returned database.
func openService(cfg *config.Config) (*sql.DB, *kiosk.Service, error) {
	database, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	repo := visit.NewRepository(database, visit.RetryPolicy{
		Attempts: cfg.Storage.RetryAttempts,
		Backoff:  cfg.Storage.RetryBackoff,
	})
	svc := kiosk.NewService(repo, kiosk.Options{
		AdminPassword:   cfg.Admin.Password,
		ExcludedWeekday: cfg.Weekday(),
	})
	return database, svc, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Prints the configuration after the config file, .env and environment have been applied. The admin password is masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) error {
	masked := *cfg
	if masked.Admin.Password != "" {
		masked.Admin.Password = "********"
	}
	if masked.Storage.DBPath == "" {
		if path, err := cfg.DatabasePath(); err == nil {
			masked.Storage.DBPath = path
		}
	}

	if isJSON() {
		return printJSON(w, masked)
	}

	data, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = w.Write(data)
	return err
}
