package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sweetshop-dev/sweetshop/internal/config"
	"github.com/sweetshop-dev/sweetshop/internal/web"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		listen     string
		apiURL     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront web server",
		Long: `Start the storefront web server.

The server renders the shop, the login and registration pages, and
the admin console, and streams live search results over WebSocket.

Examples:
  sweetshop serve
  sweetshop serve --listen=:8080
  sweetshop serve --api-url=http://localhost:8000/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, listen, apiURL)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.ConfigFileName, "Path to the configuration file")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend API base URL (overrides config)")

	return cmd
}

func runServe(configPath, listen, apiURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	server, err := web.New(cfg)
	if err != nil {
		return err
	}

	printBanner()
	info("storefront on http://localhost%s", cfg.Listen)
	info("backend at %s", cfg.APIBaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx)
}
