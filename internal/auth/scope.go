package auth

import (
	"errors"
	"fmt"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// Action is an operation on the user resource.
type Action string

const (
	ActionList          Action = "list"
	ActionCreate        Action = "create"
	ActionRetrieve      Action = "retrieve"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// ErrForbidden is returned when the actor may not perform the action at all.
var ErrForbidden = errors.New("auth: forbidden")

// Scope is the set of user records an actor may observe or mutate.
type Scope struct {
	Unrestricted bool
	UserID       string
}

// Permits reports whether the record with id is inside the scope.
func (s Scope) Permits(id string) bool {
	if s.Unrestricted {
		return true
	}
	return id != "" && id == s.UserID
}

// ResolveUserScope narrows the user records visible to actor for action. Creation is
// reserved to admins; every other action is unrestricted for admins and limited to
// the actor's own record otherwise.
func ResolveUserScope(actor *domain.User, action Action) (Scope, error) {
	if actor == nil || actor.ID == "" {
		return Scope{}, ErrForbidden
	}
	switch action {
	case ActionCreate:
		if !actor.IsAdmin() {
			return Scope{}, ErrForbidden
		}
		return Scope{Unrestricted: true}, nil
	case ActionList, ActionRetrieve, ActionUpdate, ActionPartialUpdate, ActionDestroy:
		if actor.IsAdmin() {
			return Scope{Unrestricted: true}, nil
		}
		return Scope{UserID: actor.ID}, nil
	default:
		return Scope{}, fmt.Errorf("%w: unknown action %q", ErrForbidden, action)
	}
}

// Decision is the outcome of an authorization check on a single record.
type Decision int

const (
	// DecisionDeny means the action itself is not permitted.
	DecisionDeny Decision = iota
	// DecisionHidden means the target lies outside the actor's scope and must be
	// reported as missing.
	DecisionHidden
	// DecisionAllow grants the action.
	DecisionAllow
)

// AuthorizeUser decides whether actor may perform action on the user with targetID.
func AuthorizeUser(actor *domain.User, action Action, targetID string) Decision {
	scope, err := ResolveUserScope(actor, action)
	if err != nil {
		return DecisionDeny
	}
	if action == ActionCreate || action == ActionList {
		return DecisionAllow
	}
	if !scope.Permits(targetID) {
		return DecisionHidden
	}
	return DecisionAllow
}

// CanAssignRole reports whether actor may change the role of a user account.
func CanAssignRole(actor *domain.User) bool {
	return actor.IsAdmin()
}
