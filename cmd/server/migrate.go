package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		be, err := openBackend(cmd.Context(), cfg.Database, true)
		if err != nil {
			return err
		}
		defer be.close()

		log.Info().Str("driver", cfg.Database.Driver).Msg("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
