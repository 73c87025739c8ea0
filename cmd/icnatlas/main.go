package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "icnatlas",
		Short:         "ICN company directory loader and API",
		Long:          `Loads the ICN item export, consolidates it into companies, geocodes them and serves the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config (defaults apply when empty)")

	rootCmd.AddCommand(createLoadCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createCacheCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
