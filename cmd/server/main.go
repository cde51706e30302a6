package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:          "yofit",
		Short:        "Yoga class catalog and guided session server",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	serve := newServeCmd(&envFile)
	rootCmd.RunE = serve.RunE

	rootCmd.AddCommand(
		serve,
		newSeedCmd(&envFile),
		newTokenCmd(&envFile),
	)

	return rootCmd
}
