package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitlog/internal/auth"
	"github.com/evcraddock/visitlog/internal/logging"
	"github.com/evcraddock/visitlog/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the kiosk and admin web UI",
		Long:  "Start an HTTP server for the visitor kiosk, the admin console and the JSON API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config, 8080)")

	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}

	logging.Setup(cfg.Server.DevMode)

	database, svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	srv, err := web.NewServer(database, svc, web.Config{
		Auth: auth.Config{
			AdminPassword: cfg.Admin.Password,
			DevMode:       cfg.Server.DevMode,
			BaseURL:       cfg.Server.BaseURL,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.ListenAndServe(cfg.Server.Port)
}
