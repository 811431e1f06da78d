// Package cli implements the paperpaper command line: the HTTP server plus
// maintenance commands that share its configuration.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paperpaper/catalog/internal/config"
	"github.com/paperpaper/catalog/internal/logging"
)

// env carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type env struct {
	loadConfig func() *config.Config
	dbPath     string

	cfg     *config.Config
	logger  *zap.Logger
	restore func()
	out     io.Writer
}

func (e *env) setup(cmd *cobra.Command) error {
	e.cfg = e.loadConfig()
	if e.dbPath != "" {
		e.cfg.Database.Path = e.dbPath
	}

	logger, err := logging.New(e.cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	e.logger = logger
	e.restore = logging.Install(logger)
	e.out = cmd.OutOrStdout()
	return nil
}

func (e *env) teardown() {
	if e.restore != nil {
		e.restore()
	}
}

// NewRootCommand builds the command tree. loadConfig is called once per
// invocation; pass config.NewConfig outside of tests.
func NewRootCommand(version string, loadConfig func() *config.Config) *cobra.Command {
	e := &env{loadConfig: loadConfig}

	root := &cobra.Command{
		Use:           "paperpaper",
		Short:         "Catalog of academic papers with BibTeX imports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(e, version)
		},
	}
	root.PersistentFlags().StringVar(&e.dbPath, "db", "", "Path to the catalog database (overrides DATABASE_PATH)")

	root.AddCommand(
		newServeCommand(e, version),
		newImportCommand(e),
		newCreateAdminCommand(e),
		newCleanupAuditCommand(e),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	if err := NewRootCommand(version, config.NewConfig).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
