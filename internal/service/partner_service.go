package service

import (
	"context"
	"strings"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository"
	apperrors "github.com/mutooni/mutooni-api/pkg/util"
)

// PartnerService manages clients and suppliers.
type PartnerService struct {
	partners repository.PartnerRepository
}

// PartnerInput carries partner fields. Nil pointers are left untouched on partial updates
// and cleared on full updates.
type PartnerInput struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
}

// NewPartnerService constructs the service.
func NewPartnerService(partners repository.PartnerRepository) *PartnerService {
	return &PartnerService{partners: partners}
}

func (s *PartnerService) List(ctx context.Context, actor *domain.User, kind domain.PartnerKind, filters ListFilters) ([]domain.Partner, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	partners, err := s.partners.List(ctx, kind, repository.PartnerFilter{Search: filters.Search, Limit: filters.Limit, Offset: filters.Offset})
	if err != nil {
		return nil, mapRepoError(err, string(kind))
	}
	return partners, nil
}

func (s *PartnerService) Get(ctx context.Context, actor *domain.User, kind domain.PartnerKind, id string) (*domain.Partner, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	partner, err := s.partners.GetByID(ctx, kind, id)
	if err != nil {
		return nil, mapRepoError(err, string(kind))
	}
	return partner, nil
}

func (s *PartnerService) Create(ctx context.Context, actor *domain.User, kind domain.PartnerKind, input PartnerInput) (*domain.Partner, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	partner := &domain.Partner{Kind: kind}
	if err := applyPartnerInput(partner, input, false); err != nil {
		return nil, err
	}
	if err := s.partners.Create(ctx, partner); err != nil {
		return nil, mapRepoError(err, string(kind))
	}
	return partner, nil
}

func (s *PartnerService) Update(ctx context.Context, actor *domain.User, kind domain.PartnerKind, id string, input PartnerInput, partial bool) (*domain.Partner, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	partner, err := s.partners.GetByID(ctx, kind, id)
	if err != nil {
		return nil, mapRepoError(err, string(kind))
	}
	if err := applyPartnerInput(partner, input, partial); err != nil {
		return nil, err
	}
	if err := s.partners.Update(ctx, partner); err != nil {
		return nil, mapRepoError(err, string(kind))
	}
	return partner, nil
}

// Delete removes a partner. Admin only; suppliers referenced by purchases cannot be removed.
func (s *PartnerService) Delete(ctx context.Context, actor *domain.User, kind domain.PartnerKind, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return mapRepoError(s.partners.Delete(ctx, kind, id), string(kind))
}

func applyPartnerInput(partner *domain.Partner, input PartnerInput, partial bool) error {
	assign := func(dst *string, src *string) {
		switch {
		case src != nil:
			*dst = strings.TrimSpace(*src)
		case !partial:
			*dst = ""
		}
	}
	assign(&partner.Name, input.Name)
	assign(&partner.Phone, input.Phone)
	assign(&partner.Email, input.Email)
	assign(&partner.Address, input.Address)

	if partner.Name == "" {
		return apperrors.NewValidationError("invalid "+string(partner.Kind), map[string]any{"name": "required"})
	}
	return nil
}
