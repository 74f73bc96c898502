// Command api serves fraud predictions over HTTP.
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
	"fraudguard/db"
	fhttp "fraudguard/http"
	"fraudguard/inference"
	"fraudguard/logging"
	"fraudguard/ml"
)

var (
	cfgFile string
	host    string
	port    int
)

var rootCmd = &cobra.Command{
	Use:           "api",
	Short:         "Insurance fraud detection API",
	Long:          `Loads the decision tree artifact once and serves POST /predict and GET /health.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml when present)")
	rootCmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	rootCmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Load config
	configPath := resolveConfigPath(cfgFile)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}

	logger, level, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// 2. Load model. A missing or corrupt artifact is fatal.
	model, err := ml.LoadModel(cfg.Model.Type, cfg.Model.Path)
	if err != nil {
		logger.Fatal("failed to load model", zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	info := model.Info()
	logger.Info("model loaded",
		zap.String("path", cfg.Model.Path),
		zap.String("type", info.Type),
		zap.String("version", info.Version),
		zap.Int("nodes", info.NodeCount),
	)

	// 3. Optional prediction log
	var opts []inference.Option
	var stats fhttp.StatsSource
	if cfg.Database.Path != "" {
		store, err := db.Open(cfg.Database.Path)
		if err != nil {
			logger.Fatal("failed to open prediction log", zap.String("path", cfg.Database.Path), zap.Error(err))
		}
		defer store.Close()
		opts = append(opts, inference.WithRecorder(store))
		stats = store
		logger.Info("prediction log enabled", zap.String("path", cfg.Database.Path))
	}

	service := inference.NewService(model, logger, opts...)
	mux := http.NewServeMux()
	fhttp.RegisterHandlers(mux, fhttp.NewAPI(service, stats, logger))

	// 4. Start HTTP server
	server := fhttp.NewServer(fhttp.ServerConfig{
		Addr:              cfg.Server.Addr(),
		Timeout:           cfg.Server.Timeout,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
		Burst:             cfg.Server.RateLimit.Burst,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
	}, mux, logger)

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

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
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

// resolveConfigPath falls back to config.yaml in the working directory or
// its parent, so the binary also runs from cmd/.
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
