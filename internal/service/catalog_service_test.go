package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository/repositorytest"
	"github.com/mutooni/mutooni-api/internal/service"
)

func strPtr(s string) *string { return &s }

func TestCatalogService_CRUD(t *testing.T) {
	svc := service.NewCatalogService(repositorytest.NewProducts())
	user := &domain.User{ID: "u1", Role: domain.RoleStandard, Active: true}
	admin := &domain.User{ID: "a1", Role: domain.RoleAdmin, Active: true}
	ctx := context.Background()
	price := int64(1200)

	_, err := svc.Create(ctx, user, service.ProductInput{Name: strPtr("Chair")})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))

	product, err := svc.Create(ctx, user, service.ProductInput{Name: strPtr("Chair"), SKU: strPtr("CH-1"), UnitPrice: &price})
	require.NoError(t, err)

	_, err = svc.Create(ctx, user, service.ProductInput{Name: strPtr("Chair 2"), SKU: strPtr("ch-1"), UnitPrice: &price})
	assert.Equal(t, "CONFLICT", errorCode(err))

	updated, err := svc.Update(ctx, user, product.ID, service.ProductInput{Name: strPtr("Armchair")}, true)
	require.NoError(t, err)
	assert.Equal(t, "Armchair", updated.Name)
	assert.Equal(t, "CH-1", updated.SKU)

	found, err := svc.List(ctx, user, service.ListFilters{Search: strPtr("arm")})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	assert.Equal(t, "FORBIDDEN", errorCode(svc.Delete(ctx, user, product.ID)))
	require.NoError(t, svc.Delete(ctx, admin, product.ID))
	_, err = svc.Get(ctx, user, product.ID)
	assert.Equal(t, "NOT_FOUND", errorCode(err))
}

func TestPartnerService_KindsAreSeparate(t *testing.T) {
	svc := service.NewPartnerService(repositorytest.NewPartners())
	user := &domain.User{ID: "u1", Role: domain.RoleStandard, Active: true}
	ctx := context.Background()

	client, err := svc.Create(ctx, user, domain.PartnerKindClient, service.PartnerInput{Name: strPtr("Jane"), Phone: strPtr("+256700000000")})
	require.NoError(t, err)

	_, err = svc.Get(ctx, user, domain.PartnerKindSupplier, client.ID)
	assert.Equal(t, "NOT_FOUND", errorCode(err))

	byPhone, err := svc.List(ctx, user, domain.PartnerKindClient, service.ListFilters{Search: strPtr("+2567")})
	require.NoError(t, err)
	assert.Len(t, byPhone, 1)

	replaced, err := svc.Update(ctx, user, domain.PartnerKindClient, client.ID, service.PartnerInput{Name: strPtr("Jane Doe")}, false)
	require.NoError(t, err)
	assert.Empty(t, replaced.Phone)

	_, err = svc.Update(ctx, user, domain.PartnerKindClient, client.ID, service.PartnerInput{Name: strPtr(" ")}, true)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))
}
