package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-reviews"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := reviews.Migrate(cmd.Context(), db, ctx.getLogger("migrate"))
			if err != nil {
				return err
			}
			printMigrations(cmd, "applied", applied)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Revert the last migration group",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			reverted, err := reviews.Rollback(cmd.Context(), db, ctx.getLogger("migrate"))
			if err != nil {
				return err
			}
			printMigrations(cmd, "reverted", reverted)
			return nil
		},
	})

	return cmd
}

func printMigrations(cmd *cobra.Command, verb string, names []string) {
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "nothing to do")
		return
	}
	for _, name := range names {
		fmt.Fprintf(out, "%s %s\n", verb, name)
	}
}
