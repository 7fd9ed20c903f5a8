package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "smp",
		Short:         "Service Metadata Publisher",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/smp/config.yaml", "path to the configuration file")

	root.AddCommand(
		newServeCommand(&configPath),
		newUserCommand(&configPath),
		newServiceGroupCommand(&configPath),
		newFaultsCommand(&configPath),
		newVerifyCommand(&configPath),
	)

	if err := root.Execute(); err != nil {
		slog.Error(
			"command failed",
			slog.String("error", err.Error()),
			slog.String("module", "main"),
		)
		os.Exit(1)
	}
}
