package main

import (
	"fmt"

	"conduit/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           "conduit",
		Short:         "Conduit blogging platform backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}
