package service

import (
	"context"
	"strings"

	"github.com/mutooni/mutooni-api/internal/auth"
	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/events"
	"github.com/mutooni/mutooni-api/internal/repository"
	apperrors "github.com/mutooni/mutooni-api/pkg/util"
)

// UserService exposes user-account management scoped by the caller's role.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// UserListFilters define listing parameters.
type UserListFilters struct {
	Role   *domain.Role
	Active *bool
	Search *string
	Limit  int
	Offset int
}

// CreateUserInput carries the fields accepted on creation. Active is accepted for
// compatibility but new accounts are always active.
type CreateUserInput struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Role      *domain.Role
	Active    *bool
	Password  *string
}

// UpdateUserInput carries changed fields. Nil pointers are left untouched on partial
// updates and cleared on full updates (except Role and Password, which are only ever set).
type UpdateUserInput struct {
	Subject   *string
	Email     *string
	FirstName *string
	LastName  *string
	Role      *domain.Role
	Password  *string
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, bcryptCost int) *UserService {
	return &UserService{users: users, dispatcher: dispatcher, bcryptCost: bcryptCost}
}

// List returns every user for admins and only the caller's own record otherwise.
func (s *UserService) List(ctx context.Context, actor *domain.User, filters UserListFilters) ([]domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	scope, err := auth.ResolveUserScope(actor, auth.ActionList)
	if err != nil {
		return nil, apperrors.NewForbidden("not allowed to list users")
	}
	// a restricted caller always gets exactly their own record; filters and paging
	// only narrow unrestricted lists
	if !scope.Unrestricted {
		self, err := s.users.GetByID(ctx, scope.UserID)
		if err != nil {
			return nil, mapRepoError(err, "user")
		}
		return []domain.User{*self}, nil
	}
	users, err := s.users.List(ctx, repository.UserFilter{
		Role:   filters.Role,
		Active: filters.Active,
		Search: filters.Search,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	return users, nil
}

// Get returns a single user if it lies inside the caller's scope.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := s.authorize(actor, auth.ActionRetrieve, id); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	return user, nil
}

// Create inserts a new account. Only admins may create users.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.User, error) {
	if err := s.authorize(actor, auth.ActionCreate, ""); err != nil {
		return nil, err
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject is required", map[string]any{"field": "subject"})
	}

	user := &domain.User{
		Subject:   subject,
		Email:     strings.TrimSpace(input.Email),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      domain.RoleStandard,
		Active:    true,
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"field": "role"})
		}
		user.Role = *input.Role
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = &hash
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapRepoError(err, "user")
	}
	s.publish(ctx, events.EventUserCreated, actor, user)
	return user, nil
}

// Update applies input to the user with id. Partial updates only touch non-nil fields.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, input UpdateUserInput, partial bool) (*domain.User, error) {
	action := auth.ActionUpdate
	if partial {
		action = auth.ActionPartialUpdate
	}
	if err := s.authorize(actor, action, id); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}

	if input.Subject != nil && strings.TrimSpace(*input.Subject) != user.Subject {
		return nil, apperrors.NewValidationError("subject cannot be changed", map[string]any{"field": "subject"})
	}
	if input.Role != nil && *input.Role != user.Role {
		if !input.Role.IsValid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"field": "role"})
		}
		if !auth.CanAssignRole(actor) {
			return nil, apperrors.NewForbidden("only admins can change roles")
		}
		user.Role = *input.Role
	}

	assign := func(dst *string, src *string) {
		switch {
		case src != nil:
			*dst = strings.TrimSpace(*src)
		case !partial:
			*dst = ""
		}
	}
	assign(&user.Email, input.Email)
	assign(&user.FirstName, input.FirstName)
	assign(&user.LastName, input.LastName)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "user")
	}

	if input.Password != nil && *input.Password != "" {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if err := s.users.SetPassword(ctx, user.ID, hash); err != nil {
			return nil, mapRepoError(err, "user")
		}
		user.PasswordHash = &hash
	}

	s.publish(ctx, events.EventUserUpdated, actor, user)
	return user, nil
}

// Delete removes the user with id.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := s.authorize(actor, auth.ActionDestroy, id); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "user")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return mapRepoError(err, "user")
	}
	s.publish(ctx, events.EventUserDeleted, actor, user)
	return nil
}

// authorize converts a scope decision into an API error. Targets outside the caller's
// scope are reported as missing.
func (s *UserService) authorize(actor *domain.User, action auth.Action, targetID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	switch auth.AuthorizeUser(actor, action, targetID) {
	case auth.DecisionAllow:
		return nil
	case auth.DecisionHidden:
		return apperrors.NewNotFound("user", nil)
	default:
		if action == auth.ActionCreate {
			return apperrors.NewForbidden("admin role required")
		}
		return apperrors.NewForbidden("not allowed")
	}
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, actor, user *domain.User) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.NewEvent(eventType, user.ID, events.ActorFor(actor, ""), events.UserChangedPayload{
		Subject: user.Subject,
		Role:    user.Role,
		Active:  user.Active,
	}))
}
