package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "restaurant-service",
	Short: "Restaurant ordering API",
	Long: `Restaurant ordering backend: menu browsing, carts, checkout and
order tracking for customers, managers and delivery crew.

Configuration is read from the environment (and a .env file when present).`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createUserCmd)
}
