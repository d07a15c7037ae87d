package service

import (
	"errors"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository"
	apperrors "github.com/mutooni/mutooni-api/pkg/util"
)

// mapRepoError translates repository sentinels into API errors for resource.
func mapRepoError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrSubjectTaken):
		return apperrors.NewConflict("subject already exists", map[string]any{"field": "subject"})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", nil)
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewConflict(resource+" is referenced by other records", nil)
	case errors.Is(err, repository.ErrInvalidTransition):
		return apperrors.NewConflict("invalid status transition", nil)
	default:
		return apperrors.MapError(err)
	}
}

func requireAdmin(actor *domain.User) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func requireActor(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}
