package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(open Opener) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: withEnv(open, func(cmd *cobra.Command, env *Env, _ []string) error {
			if list {
				if env.Migrations == nil {
					return errors.New("migration listing not available")
				}
				names, err := env.Migrations()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			if env.Migrate == nil {
				return errors.New("migrations not available")
			}
			if err := env.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the embedded migration files instead of applying them")
	return cmd
}
