// Command ui serves the claim form and forwards submissions to the API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fraudguard/config"
	fhttp "fraudguard/http"
	"fraudguard/logging"
	"fraudguard/ui"
)

var (
	cfgFile string
	host    string
	port    int
)

var rootCmd = &cobra.Command{
	Use:           "ui",
	Short:         "Insurance fraud detection web form",
	Long:          `Renders the claim form and sends each submission to the API named by ui.api_url (or API_URL).`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml when present)")
	rootCmd.Flags().StringVar(&host, "host", "", "listen host (overrides ui.host)")
	rootCmd.Flags().IntVar(&port, "port", 0, "listen port (overrides ui.port)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	configPath := resolveConfigPath(cfgFile)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.UI.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.UI.Port = port
	}

	logger, level, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	client := ui.NewClient(cfg.UI.APIURL, cfg.UI.Timeout, cfg.UI.HealthTimeout)
	handlers, err := ui.NewHandlers(client, logger)
	if err != nil {
		logger.Fatal("failed to load templates", zap.Error(err))
	}
	mux := http.NewServeMux()
	handlers.Register(mux)

	serverConfig := fhttp.DefaultServerConfig()
	serverConfig.Addr = cfg.UI.Addr()
	serverConfig.AllowedOrigins = nil
	serverConfig.MaxBodyBytes = cfg.Server.MaxBodyBytes
	// The form waits on the API, so allow its full timeout plus headroom.
	serverConfig.Timeout = cfg.UI.Timeout + cfg.UI.HealthTimeout + cfg.UI.Timeout/2
	server := fhttp.NewServer(serverConfig, mux, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if configPath != "" {
		err := config.Watch(ctx, configPath, logger, func(next *config.Config) {
			if err := logging.SetLevel(level, next.Log.Level); err != nil {
				logger.Warn("log level not changed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
		}
	}

	logger.Info("forwarding predictions", zap.String("api_url", cfg.UI.APIURL))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		if err := server.Stop(); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
	}

	logger.Info("exiting")
	return nil
}

func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	for _, candidate := range []string{"config.yaml", filepath.Join("..", "config.yaml"), filepath.Join("..", "..", "config.yaml")} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
