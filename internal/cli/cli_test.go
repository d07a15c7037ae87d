package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mutooni/mutooni-api/internal/auth"
	"github.com/mutooni/mutooni-api/internal/cli"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository/repositorytest"
)

type harness struct {
	users    *repositorytest.Users
	migrated int
	closed   int
}

func newHarness() *harness {
	return &harness{users: repositorytest.NewUsers(
		domain.User{Subject: "alice", Email: "alice@example.com", Role: domain.RoleStandard, Active: true},
		domain.User{Subject: "root", Role: domain.RoleAdmin, Active: true},
	)}
}

func (h *harness) open(context.Context) (*cli.Env, error) {
	return &cli.Env{
		Users: h.users,
		Migrate: func(context.Context) error {
			h.migrated++
			return nil
		},
		Migrations: func() ([]string, error) { return []string{"0001_users.sql"}, nil },
		BcryptCost: bcrypt.MinCost,
		Close:      func() { h.closed++ },
	}, nil
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := cli.NewRootCommand(h.open)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) user(t *testing.T, subject string) *domain.User {
	t.Helper()
	user, err := h.users.GetBySubject(context.Background(), subject)
	require.NoError(t, err)
	return user
}

func TestPromoteAndDemote(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "", "users", "promote", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "alice is now admin")
	assert.Equal(t, domain.RoleAdmin, h.user(t, "alice").Role)

	_, err = h.run(t, "", "users", "demote", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStandard, h.user(t, "alice").Role)
	assert.Equal(t, 2, h.closed)
}

func TestUnknownSubject(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "", "users", "promote", "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no user with subject "nobody"`)
}

func TestActivateDeactivate(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "", "users", "deactivate", "alice")
	require.NoError(t, err)
	assert.False(t, h.user(t, "alice").Active)

	out, err := h.run(t, "", "users", "activate", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "alice is now active")
	assert.True(t, h.user(t, "alice").Active)
}

func TestSetPasswordFromStdin(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "s3cret-enough\n", "users", "set-password", "alice")
	require.NoError(t, err)

	user := h.user(t, "alice")
	require.True(t, user.HasPassword())
	assert.NoError(t, auth.ComparePassword(*user.PasswordHash, "s3cret-enough"))
}

func TestSetPasswordRejectsShortPassword(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "", "users", "set-password", "alice", "--password", "short")
	require.Error(t, err)
	assert.False(t, h.user(t, "alice").HasPassword())
}

func TestListUsers(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "", "users", "list", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "root")
	assert.NotContains(t, out, "alice")

	_, err = h.run(t, "", "users", "list", "--role", "owner")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "", "migrate")
	require.NoError(t, err)
	assert.Equal(t, 1, h.migrated)
	assert.Contains(t, out, "migrations applied")

	out, err = h.run(t, "", "migrate", "--list")
	require.NoError(t, err)
	assert.Equal(t, 1, h.migrated)
	assert.Contains(t, out, "0001_users.sql")
}

func TestOpenFailureIsReported(t *testing.T) {
	boom := errors.New("no database")
	var out bytes.Buffer
	err := cli.Execute(context.Background(), func(context.Context) (*cli.Env, error) { return nil, boom }, []string{"migrate"}, &out)
	assert.ErrorIs(t, err, boom)
}

func TestHelpDoesNotOpen(t *testing.T) {
	opened := false
	var out bytes.Buffer
	err := cli.Execute(context.Background(), func(context.Context) (*cli.Env, error) {
		opened = true
		return nil, errors.New("unexpected")
	}, []string{"users", "--help"}, &out)
	require.NoError(t, err)
	assert.False(t, opened)
	assert.Contains(t, out.String(), "set-password")
}
