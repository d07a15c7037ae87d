// Package cli implements the mutooni-admin operator commands.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mutooni/mutooni-api/internal/repository"
)

// Env is what the commands operate on. Close releases whatever Open acquired.
type Env struct {
	Users      repository.UserRepository
	Migrate    func(ctx context.Context) error
	Migrations func() ([]string, error)
	BcryptCost int
	Close      func()
}

// Opener builds the Env lazily so --help never touches the database.
type Opener func(ctx context.Context) (*Env, error)

// NewRootCommand assembles the command tree.
func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "mutooni-admin",
		Short:         "Operator tasks for the mutooni API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCommand(open))
	root.AddCommand(newUsersCommand(open))
	return root
}

// Execute runs the command tree with args, writing output to out.
func Execute(ctx context.Context, open Opener, args []string, out io.Writer) error {
	root := NewRootCommand(open)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}

func withEnv(open Opener, run func(cmd *cobra.Command, env *Env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := open(cmd.Context())
		if err != nil {
			return err
		}
		if env.Close != nil {
			defer env.Close()
		}
		return run(cmd, env, args)
	}
}
