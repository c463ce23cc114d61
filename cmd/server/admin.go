package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watizat/connect/internal/auth"
	"github.com/watizat/connect/internal/server"
	"github.com/watizat/connect/internal/service"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator account",
	Long: `Create an administrator account directly in the configured database.

Admin accounts cannot be registered over the API; this is the only way to
provision one.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		name, _ := cmd.Flags().GetString("name")

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		store, err := server.OpenStore(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		svc := service.NewAuthService(store, tokens, auth.NewPasswordService(cfg.Auth.BcryptCost), logger)

		user, err := svc.CreateAdmin(ctx, email, password, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %s\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)

	adminCreateCmd.Flags().String("email", "", "admin email address")
	adminCreateCmd.Flags().String("password", "", "admin password (at least 8 characters)")
	adminCreateCmd.Flags().String("name", "Administrator", "display name")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")
}
