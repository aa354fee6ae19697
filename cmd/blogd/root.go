package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the blogd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blogd",
		Short: "blogd - a small multi-user blog server",
		Long: `blogd serves a multi-user blog: public reading, registered
commenters, and admin-authored posts, backed by a SQLite database.`,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAdminCmd())

	return cmd
}
