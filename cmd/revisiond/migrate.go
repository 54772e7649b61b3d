package main

import (
	"github.com/spf13/cobra"

	"github.com/romanzh1/practice-srs/internal/config"
	"github.com/romanzh1/practice-srs/internal/repository"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(use, short string, fn func(*repository.DB) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				db, err := openDB(cfg)
				if err != nil {
					return err
				}
				defer db.Close()

				return fn(db)
			},
		}
	}

	cmd.AddCommand(
		run("up", "Apply all pending migrations", (*repository.DB).Up),
		run("down", "Roll back the latest migration", (*repository.DB).Down),
		run("reset", "Roll back every migration", (*repository.DB).Reset),
		run("status", "Print migration status", (*repository.DB).Status),
	)

	return cmd
}
