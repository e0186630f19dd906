package main

import (
	"fmt"
	"os"

	"github.com/landingkit/internal/config"
	"github.com/landingkit/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "landingkit"

var rootCmd = &cobra.Command{
	Use:          "landingkit",
	Short:        "Landing page builder with subdomain publishing",
	RunE:         runServe, // 不带子命令时直接启动服务
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, createAdminCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger shared by every command.
func bootstrap() (config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.AppConfig{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		return config.AppConfig{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}
