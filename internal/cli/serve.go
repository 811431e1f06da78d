package cli

import (
	"github.com/spf13/cobra"

	"github.com/paperpaper/catalog/internal/entrypoint"
)

func newServeCommand(e *env, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default when no command is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(e, version)
		},
	}
}

func runServe(e *env, version string) error {
	return entrypoint.Run(e.cfg, version, e.logger)
}
