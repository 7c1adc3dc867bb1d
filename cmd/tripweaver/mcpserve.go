package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"tripweaver/config"
	"tripweaver/internal/orchestrator"
	"tripweaver/internal/tools/articles/nowboarding"
	"tripweaver/internal/tools/flights/changi"
	"tripweaver/internal/tools/geocode/nominatim"
	"tripweaver/internal/tools/visa"
	"tripweaver/mcp"
)

func mcpCMD() *cobra.Command {
	var cfgPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the standalone tool server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return runMCP(cfg, addr)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config directory (default is ./config)")
	cmd.Flags().StringVar(&addr, "addr", ":8002", "listen address")
	return cmd
}

func runMCP(cfg *config.Config, addr string) error {
	logger := log.New(log.Writer(), "[MCP] ", log.LstdFlags)

	tools := inprocessTools(cfg, logger)
	srv := mcp.NewServer(tools, cfg.Tools.Timeout, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	srv.Attach(e)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("tool server listening on %s", addr)
		errCh <- e.Start(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(ctx)
	}
}

// inprocessTools builds the direct tool implementations from config.
func inprocessTools(cfg *config.Config, logger *log.Logger) orchestrator.Tools {
	return orchestrator.Tools{
		Flights:  changi.New(cfg.Tools.Flights, logger),
		Geocoder: nominatim.New(cfg.Tools.Geocode),
		Articles: nowboarding.New(cfg.Tools.Articles, logger),
		Visa:     visa.New(cfg.Tools.Visa),
	}
}
