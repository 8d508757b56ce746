package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/config"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/middleware"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "euroloo",
	Short:         "EuroLoo public toilet map API",
	Long:          "Serves proximity search over public toilets with community submissions, report/verify voting and moderation.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(cmd.Name()); err != nil {
			return err
		}
		cfg = c

		middleware.InitLogger(cfg.Log.Level, "euroloo-go")
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
