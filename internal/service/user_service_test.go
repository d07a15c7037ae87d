package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository/repositorytest"
	"github.com/mutooni/mutooni-api/internal/service"
	apperrors "github.com/mutooni/mutooni-api/pkg/util"
)

type userFixture struct {
	users *repositorytest.Users
	svc   *service.UserService
	admin *domain.User
	alice *domain.User
	bob   *domain.User
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	users := repositorytest.NewUsers(
		domain.User{Subject: "root", Role: domain.RoleAdmin, Active: true},
		domain.User{Subject: "alice", Email: "alice@example.com", Role: domain.RoleStandard, Active: true},
		domain.User{Subject: "bob", Email: "bob@example.com", Role: domain.RoleStandard, Active: true},
	)
	ctx := context.Background()
	admin, err := users.GetBySubject(ctx, "root")
	require.NoError(t, err)
	alice, err := users.GetBySubject(ctx, "alice")
	require.NoError(t, err)
	bob, err := users.GetBySubject(ctx, "bob")
	require.NoError(t, err)

	dispatcher, _ := newDispatcher()
	return &userFixture{
		users: users,
		svc:   service.NewUserService(users, dispatcher, bcrypt.MinCost),
		admin: admin,
		alice: alice,
		bob:   bob,
	}
}

func errorCode(err error) string {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

func TestUserService_ListIsScopedForStandardUsers(t *testing.T) {
	f := newUserFixture(t)

	own, err := f.svc.List(context.Background(), f.alice, service.UserListFilters{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, f.alice.ID, own[0].ID)

	all, err := f.svc.List(context.Background(), f.admin, service.UserListFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUserService_ListIgnoresFiltersForStandardUsers(t *testing.T) {
	f := newUserFixture(t)
	search := "zzz"
	role := domain.RoleAdmin
	inactive := false

	for name, filters := range map[string]service.UserListFilters{
		"offset":   {Offset: 1},
		"search":   {Search: &search},
		"role":     {Role: &role},
		"inactive": {Active: &inactive},
	} {
		own, err := f.svc.List(context.Background(), f.alice, filters)
		require.NoError(t, err, name)
		require.Len(t, own, 1, name)
		assert.Equal(t, f.alice.ID, own[0].ID, name)
	}
}

func TestUserService_GetOtherUserIsNotFound(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Get(context.Background(), f.alice, f.bob.ID)
	assert.Equal(t, "NOT_FOUND", errorCode(err))

	self, err := f.svc.Get(context.Background(), f.alice, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", self.Subject)

	other, err := f.svc.Get(context.Background(), f.admin, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", other.Subject)
}

func TestUserService_CreateIsAdminOnlyAndForcesActive(t *testing.T) {
	f := newUserFixture(t)
	inactive := false

	_, err := f.svc.Create(context.Background(), f.alice, service.CreateUserInput{Subject: "carol"})
	assert.Equal(t, "FORBIDDEN", errorCode(err))

	created, err := f.svc.Create(context.Background(), f.admin, service.CreateUserInput{Subject: "carol", Active: &inactive})
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, domain.RoleStandard, created.Role)

	_, err = f.svc.Create(context.Background(), f.admin, service.CreateUserInput{Subject: "carol"})
	assert.Equal(t, "CONFLICT", errorCode(err))
}

func TestUserService_CreateHashesPassword(t *testing.T) {
	f := newUserFixture(t)
	password := "s3cret-pass"

	created, err := f.svc.Create(context.Background(), f.admin, service.CreateUserInput{Subject: "dave", Password: &password})
	require.NoError(t, err)
	require.True(t, created.HasPassword())
	assert.NotEqual(t, password, *created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*created.PasswordHash), []byte(password)))
}

func TestUserService_RoleChangesRequireAdmin(t *testing.T) {
	f := newUserFixture(t)
	admin := domain.RoleAdmin

	_, err := f.svc.Update(context.Background(), f.alice, f.alice.ID, service.UpdateUserInput{Role: &admin}, true)
	assert.Equal(t, "FORBIDDEN", errorCode(err))

	promoted, err := f.svc.Update(context.Background(), f.admin, f.alice.ID, service.UpdateUserInput{Role: &admin}, true)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)
}

func TestUserService_SubjectIsImmutable(t *testing.T) {
	f := newUserFixture(t)
	renamed := "mallory"
	same := "alice"

	_, err := f.svc.Update(context.Background(), f.admin, f.alice.ID, service.UpdateUserInput{Subject: &renamed}, true)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))

	_, err = f.svc.Update(context.Background(), f.alice, f.alice.ID, service.UpdateUserInput{Subject: &same}, true)
	assert.NoError(t, err)
}

func TestUserService_PartialAndFullUpdate(t *testing.T) {
	f := newUserFixture(t)
	first := "Alice"

	patched, err := f.svc.Update(context.Background(), f.alice, f.alice.ID, service.UpdateUserInput{FirstName: &first}, true)
	require.NoError(t, err)
	assert.Equal(t, "Alice", patched.FirstName)
	assert.Equal(t, "alice@example.com", patched.Email)

	replaced, err := f.svc.Update(context.Background(), f.alice, f.alice.ID, service.UpdateUserInput{FirstName: &first}, false)
	require.NoError(t, err)
	assert.Empty(t, replaced.Email)

	_, err = f.svc.Update(context.Background(), f.alice, f.bob.ID, service.UpdateUserInput{FirstName: &first}, true)
	assert.Equal(t, "NOT_FOUND", errorCode(err))
}

func TestUserService_Delete(t *testing.T) {
	f := newUserFixture(t)

	err := f.svc.Delete(context.Background(), f.alice, f.bob.ID)
	assert.Equal(t, "NOT_FOUND", errorCode(err))
	assert.Equal(t, 3, f.users.Count())

	require.NoError(t, f.svc.Delete(context.Background(), f.admin, f.bob.ID))
	assert.Equal(t, 2, f.users.Count())
}
