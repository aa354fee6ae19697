package main

import (
	"github.com/spf13/cobra"

	"blog/internal/auth"
	"blog/internal/config"
	"blog/internal/db"
	"blog/internal/models"
)

// NewAdminCmd creates the admin subcommand group.
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin role assignments",
		Long: `Grant or revoke the admin role for a registered user. The first
account registered on a fresh database is an admin automatically; these
commands are for every change after that.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "grant EMAIL",
		Short: "Grant the admin role to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setRole(cmd, args[0], models.RoleAdmin)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke EMAIL",
		Short: "Revoke the admin role from a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setRole(cmd, args[0], models.RoleReader)
		},
	})

	return cmd
}

func setRole(cmd *cobra.Command, email string, role models.Role) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := auth.NewRegistry(database).SetRole(cmd.Context(), email, role); err != nil {
		return err
	}
	cmd.Printf("%s role set to %s\n", email, role)
	return nil
}
