package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/watizat/connect/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		srv, err := server.New(commandContext(cmd), cfg, logger, version)
		if err != nil {
			logger.Error("failed to create server", slog.String("error", err.Error()))
			return err
		}

		// Start blocks until SIGINT or SIGTERM.
		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "HTTP listen port")
	serveCmd.Flags().Bool("secure-cookies", false, "mark the session cookie Secure (serve behind HTTPS)")

	if err := viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("server.secure-cookies", serveCmd.Flags().Lookup("secure-cookies")); err != nil {
		panic(err)
	}
}
