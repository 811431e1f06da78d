package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paperpaper/catalog/internal/entities"
	"github.com/paperpaper/catalog/internal/entrypoint"
)

// adminPasswordEnv lets scripts pass the password without exposing it in the
// process list.
const adminPasswordEnv = "PAPERPAPER_ADMIN_PASSWORD"

type createAdminOptions struct {
	username string
	email    string
	password string
	viewer   bool
}

func newCreateAdminCommand(e *env) *cobra.Command {
	opts := &createAdminOptions{}
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a user allowed to manage the catalog and run imports",
		Example: `  PAPERPAPER_ADMIN_PASSWORD=... paperpaper create-admin --username editor --email editor@example.org
  paperpaper create-admin --username reader --email reader@example.org --password ... --viewer`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAdmin(cmd, e, opts)
		},
	}
	cmd.Flags().StringVar(&opts.username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password, defaults to $"+adminPasswordEnv)
	cmd.Flags().BoolVar(&opts.viewer, "viewer", false, "Create a read-only viewer instead of an admin")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runCreateAdmin(cmd *cobra.Command, e *env, opts *createAdminOptions) error {
	password := opts.password
	if password == "" {
		password = os.Getenv(adminPasswordEnv)
	}
	if password == "" {
		return errors.New("a password is required: pass --password or set " + adminPasswordEnv)
	}

	role := entities.UserRoleAdmin
	if opts.viewer {
		role = entities.UserRoleViewer
	}

	app, err := entrypoint.NewApp(cmd.Context(), e.cfg, e.logger, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	user, err := app.Users.CreateUser(opts.username, opts.email, password, role)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Fprintf(e.out, "Created %s %q (id %d)\n", user.Role, user.Username, user.ID)
	return nil
}
