package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newSeedAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the super admin account",
		Long: `Create the super admin from ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME, or from
the flags. Nothing happens when an account with that email already exists.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("email"); v != "" {
				cfg.Admin.Email = v
			}
			if v, _ := cmd.Flags().GetString("password"); v != "" {
				cfg.Admin.Password = v
			}
			if v, _ := cmd.Flags().GetString("name"); v != "" {
				cfg.Admin.Name = v
			}
			if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
				return errors.New("admin email and password are required")
			}

			ctx := cmd.Context()
			app, err := newApplication(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer app.close(ctx)

			return app.seedAdmin(ctx)
		},
	}
	cmd.Flags().String("email", "", "Admin email")
	cmd.Flags().String("password", "", "Admin password")
	cmd.Flags().String("name", "", "Admin display name")
	return cmd
}
