package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mutooni/mutooni-api/internal/auth"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository"
)

const minPasswordLength = 8

func newUsersCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage users",
	}
	cmd.AddCommand(
		newUsersListCommand(open),
		newRoleCommand(open, "promote", "Grant the admin role", domain.RoleAdmin),
		newRoleCommand(open, "demote", "Revoke the admin role", domain.RoleStandard),
		newActiveCommand(open, "activate", "Allow the user to authenticate", true),
		newActiveCommand(open, "deactivate", "Block the user from authenticating", false),
		newSetPasswordCommand(open),
	)
	return cmd
}

func newUsersListCommand(open Opener) *cobra.Command {
	var (
		role   string
		search string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: withEnv(open, func(cmd *cobra.Command, env *Env, _ []string) error {
			filter := repository.UserFilter{Limit: limit}
			if role != "" {
				parsed, err := domain.ParseRole(role)
				if err != nil {
					return err
				}
				filter.Role = &parsed
			}
			if search != "" {
				filter.Search = &search
			}
			users, err := env.Users.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSUBJECT\tEMAIL\tROLE\tACTIVE")
			for _, user := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", user.ID, user.Subject, user.Email, user.Role, user.Active)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().StringVar(&role, "role", "", "only users with this role (admin or standard)")
	cmd.Flags().StringVar(&search, "search", "", "match subject, email or name")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func newRoleCommand(open Opener, use, short string, role domain.Role) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <subject>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(open, func(cmd *cobra.Command, env *Env, args []string) error {
			user, err := updateUser(cmd.Context(), env.Users, args[0], func(u *domain.User) { u.Role = role })
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Subject, user.Role)
			return nil
		}),
	}
}

func newActiveCommand(open Opener, use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <subject>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(open, func(cmd *cobra.Command, env *Env, args []string) error {
			user, err := updateUser(cmd.Context(), env.Users, args[0], func(u *domain.User) { u.Active = active })
			if err != nil {
				return err
			}
			state := "inactive"
			if user.Active {
				state = "active"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Subject, state)
			return nil
		}),
	}
}

func newSetPasswordCommand(open Opener) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "set-password <subject>",
		Short: "Set the password used by POST /api/token",
		Long:  "Set the password used by POST /api/token. Without --password the first line of stdin is read.",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(open, func(cmd *cobra.Command, env *Env, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required via --password or stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if len(password) < minPasswordLength {
				return fmt.Errorf("password must be at least %d characters", minPasswordLength)
			}

			user, err := findUser(cmd.Context(), env.Users, args[0])
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password, env.BcryptCost)
			if err != nil {
				return err
			}
			if err := env.Users.SetPassword(cmd.Context(), user.ID, hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", user.Subject)
			return nil
		}),
	}
	cmd.Flags().StringVar(&password, "password", "", "new password (visible in shell history; prefer stdin)")
	return cmd
}

func findUser(ctx context.Context, users repository.UserRepository, subject string) (*domain.User, error) {
	user, err := users.GetBySubject(ctx, subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("no user with subject %q", subject)
	}
	return user, err
}

func updateUser(ctx context.Context, users repository.UserRepository, subject string, mutate func(*domain.User)) (*domain.User, error) {
	user, err := findUser(ctx, users, subject)
	if err != nil {
		return nil, err
	}
	mutate(user)
	if err := users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
