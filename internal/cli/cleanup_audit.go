package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paperpaper/catalog/internal/entrypoint"
	"github.com/paperpaper/catalog/internal/tasks"
)

func newCleanupAuditCommand(e *env) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup-audit",
		Short: "Delete audit events older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				days = e.cfg.Audit.RetentionDays
			}
			if days <= 0 {
				days = tasks.DefaultAuditRetentionDays
			}

			app, err := entrypoint.NewApp(cmd.Context(), e.cfg, e.logger, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			deleted, err := app.Audit.DeleteOldEvents(cmd.Context(), time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Deleted %d audit events older than %d days\n", deleted, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Retention in days, defaults to AUDIT_RETENTION_DAYS")
	return cmd
}
