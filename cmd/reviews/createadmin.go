package main

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-reviews"
)

func newCreateAdminCommand(ctx *commandContext) *cobra.Command {
	var email, username string

	cmd := &cobra.Command{
		Use:   "createadmin",
		Short: "Create an administrator or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return errors.New("--email is required", errors.CategoryBadInput)
			}

			db, err := ctx.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			repo := reviews.NewRepositoryManager(db)
			users := reviews.NewUserService(repo,
				reviews.WithServiceLogger(ctx.getLogger("users")),
				reviews.WithServiceActivitySink(newActivityLog(ctx.getLogger("activity"))),
			)

			admin, err := users.BootstrapAdmin(cmd.Context(), email, strings.TrimSpace(username))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "admin %s <%s> ready\n", admin.Username, admin.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&username, "username", "", "Username for a new account (defaults to the email)")

	return cmd
}
