/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nova-jack/novafusion/internal/db"
	"github.com/nova-jack/novafusion/internal/services"
	"github.com/nova-jack/novafusion/internal/store"
	"github.com/nova-jack/novafusion/types"
)

var createAdminFlags struct {
	email    string
	name     string
	password string
	role     string
}

// createAdminCmd seeds or resets an admin account.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create or reset an admin account",
	Long: `Creates an admin account, or resets the name, role and password of the
account that already uses the email. Usage:

	novafusion create-admin --email admin@example.com --name "Site Admin" --password '...'
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		if cfg.Database.Driver != "postgres" {
			return fmt.Errorf("create-admin needs DB_DRIVER=postgres, got %q", cfg.Database.Driver)
		}

		conn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer conn.Close()

		users := services.NewUserService(store.NewUserRepository(conn), cfg.BcryptCost)
		admin, err := users.CreateAdmin(cmd.Context(),
			createAdminFlags.email,
			createAdminFlags.name,
			createAdminFlags.password,
			types.Role(createAdminFlags.role),
		)
		if err != nil {
			return err
		}

		logger.Info().Str("id", admin.ID).Str("email", admin.Email).Str("role", string(admin.Role)).Msg("admin saved")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
	createAdminCmd.Flags().StringVar(&createAdminFlags.email, "email", "", "login email (required)")
	createAdminCmd.Flags().StringVar(&createAdminFlags.name, "name", "Admin", "display name")
	createAdminCmd.Flags().StringVar(&createAdminFlags.password, "password", "", "password, at least 8 characters (required)")
	createAdminCmd.Flags().StringVar(&createAdminFlags.role, "role", string(types.RoleSuperAdmin), "ADMIN or SUPER_ADMIN")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
