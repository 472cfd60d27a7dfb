// Command gatewayctl holds operator tasks that do not belong on the HTTP surface.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"seller-gateway/config"
	"seller-gateway/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "gatewayctl",
		Short:         "Operator tools for the seller gateway",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml or ./config/config.yaml)")

	load := func() (*config.Config, zerolog.Logger, error) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, zerolog.Nop(), fmt.Errorf("read .env: %w", err)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, zerolog.Nop(), err
		}
		return cfg, logger.New("gatewayctl", cfg.Log.Level, cfg.Log.Pretty), nil
	}

	root.AddCommand(migrateCmd(load))
	root.AddCommand(hashSecretCmd())
	root.AddCommand(reconcileCmd(load))
	return root
}

// loader resolves configuration lazily so commands like hash-secret run
// without any environment.
type loader func() (*config.Config, zerolog.Logger, error)
