package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/events"
	"github.com/mutooni/mutooni-api/internal/observability"
	"github.com/mutooni/mutooni-api/internal/repository"
)

// DefaultPlaceholderEmailDomain is used when an identity token carries no email.
const DefaultPlaceholderEmailDomain = "firebase.local"

// ErrEmptySubject is returned when verified claims carry no subject.
var ErrEmptySubject = errors.New("directory: empty subject")

// DirectoryService resolves verified identities to local user accounts, creating them on
// first sight.
type DirectoryService struct {
	users             repository.UserRepository
	dispatcher        events.Dispatcher
	metrics           *observability.Metrics
	logger            *zap.Logger
	placeholderDomain string
}

// NewDirectoryService constructs the service.
func NewDirectoryService(users repository.UserRepository, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, placeholderDomain string) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(placeholderDomain) == "" {
		placeholderDomain = DefaultPlaceholderEmailDomain
	}
	return &DirectoryService{
		users:             users,
		dispatcher:        dispatcher,
		metrics:           metrics,
		logger:            logger,
		placeholderDomain: placeholderDomain,
	}
}

// PlaceholderEmail derives the deterministic address stored for subjects without an email.
func PlaceholderEmail(subject, domainName string) string {
	return fmt.Sprintf("%s@%s", subject, domainName)
}

// GetOrCreate returns the user owning claims.Subject, inserting a standard, active account
// when none exists. Concurrent callers for the same subject all observe the same user: the
// loser of the insert race re-reads the row the winner stored.
func (s *DirectoryService) GetOrCreate(ctx context.Context, claims *domain.IdentityClaims) (*domain.User, error) {
	if claims == nil || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrEmptySubject
	}

	existing, err := s.users.GetBySubject(ctx, claims.Subject)
	if err == nil {
		s.metrics.RecordProvisioning("existing")
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordProvisioning("error")
		return nil, fmt.Errorf("lookup subject: %w", err)
	}

	email := strings.TrimSpace(claims.Email)
	placeholder := email == ""
	if placeholder {
		email = PlaceholderEmail(claims.Subject, s.placeholderDomain)
	}

	user := &domain.User{
		Subject: claims.Subject,
		Email:   email,
		Role:    domain.RoleStandard,
		Active:  true,
	}
	err = s.users.Create(ctx, user)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrSubjectTaken):
		winner, readErr := s.users.GetBySubject(ctx, claims.Subject)
		if readErr != nil {
			s.metrics.RecordProvisioning("error")
			return nil, fmt.Errorf("re-read subject after conflict: %w", readErr)
		}
		s.metrics.RecordProvisioning("conflict")
		return winner, nil
	default:
		s.metrics.RecordProvisioning("error")
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.RecordProvisioning("created")
	s.logger.Info("user provisioned",
		zap.String("user_id", user.ID),
		zap.String("subject", user.Subject),
		zap.Bool("placeholder_email", placeholder))

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.NewEvent(events.EventUserProvisioned, user.ID, events.ActorFor(user, domain.AuthMethodIdentityToken), events.UserProvisionedPayload{
			Subject:          user.Subject,
			Email:            user.Email,
			PlaceholderEmail: placeholder,
		}))
	}
	return user, nil
}
