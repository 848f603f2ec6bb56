package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"defi-hub/internal/config"
)

const (
	serviceName           = "defi-hub"
	defaultConfigFileName = "config.yml"
)

var cfgPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Multi-chain DeFi API: markets, wallets, staking pools, referrals",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(),
		"config file; DEFI_HUB_* environment variables override it")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(issueTokenCmd())
	return root
}

// defaultConfigPath returns config.yml in the working directory when it exists.
func defaultConfigPath() string {
	if _, err := os.Stat(defaultConfigFileName); err == nil {
		return defaultConfigFileName
	}
	return ""
}

// loadConfig reads the configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", cfgPath, err)
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Str("service", serviceName).Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).
			With().Timestamp().Str("service", serviceName).Logger()
	}
	zerolog.DefaultContextLogger = &log.Logger
}
