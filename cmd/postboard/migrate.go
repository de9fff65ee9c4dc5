package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/notepid/postboard/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// app.New migrates on open.
		_, cleanup, err := app.New(cmd.Context(), configPath, os.Stderr)
		if err != nil {
			return err
		}
		cleanup()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
