package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/watizat/connect/internal/config"
)

const app = "watizat-connect"

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "watizat-connect matches migrants' requests with volunteers who can help",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a YAML config file; WATIZAT_* environment variables override it")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().String("db-driver", "sqlite", "database driver: sqlite or postgres")
	rootCmd.PersistentFlags().String("db-path", "data/watizat.db", "SQLite database file")
	rootCmd.PersistentFlags().String("db-dsn", "", "PostgreSQL connection string")

	mustBind("log.level", "log-level")
	mustBind("log.format", "log-format")
	mustBind("database.driver", "db-driver")
	mustBind("database.path", "db-path")
	mustBind("database.dsn", "db-dsn")
}

func mustBind(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

// loadConfig resolves the configuration and builds the process logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
