package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmehra2102/storefront/pkg/config"
)

var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront cart, checkout and payment service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "optional YAML config file; environment variables take precedence")

	root.AddCommand(serveCmd())
	root.AddCommand(notifierCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(tokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
