package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/otpverify/internal/config"
)

const configEnv = "OTPVERIFY_CONFIG"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "otpverify",
		Short: "email one-time passcode service",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv(configEnv), "path to config.json (env "+configEnv+")")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	lambdaCmd := &cobra.Command{
		Use:   "lambda",
		Short: "serve requests as an aws lambda function",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runLambda(cfg)
		},
	}

	rootCmd.AddCommand(runCmd, lambdaCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded",
		zap.String("config", path),
		zap.String("store", cfg.Store.Type),
		zap.String("mail", cfg.Mail.Type),
	)
	return cfg, nil
}
