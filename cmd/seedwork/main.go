package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvaleed/seedwork/internal/config"
)

var (
	configFile string
	storageOpt string
	migrateOpt bool
)

var rootCmd = &cobra.Command{
	Use:           "seedwork",
	Short:         "User and role service built on typed results and validated list queries",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// loadConfig reads the config file and environment, then applies flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.LoadFrom(configFile, func(cfg *config.Config) {
		if f := cmd.Flags().Lookup("storage"); f != nil && f.Changed {
			cfg.Storage.Driver = storageOpt
		}
		if f := cmd.Flags().Lookup("migrate"); f != nil && f.Changed {
			cfg.Storage.Migrate = migrateOpt
		}
	})
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
