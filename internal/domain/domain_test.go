package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutooni/mutooni-api/internal/domain"
)

func TestParseRole(t *testing.T) {
	role, err := domain.ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)

	_, err = domain.ParseRole("owner")
	assert.Error(t, err)
	_, err = domain.ParseRole("")
	assert.Error(t, err)
}

func TestUserHelpers(t *testing.T) {
	var nobody *domain.User
	assert.False(t, nobody.IsAdmin())
	assert.False(t, nobody.HasPassword())

	empty := ""
	user := &domain.User{Role: domain.RoleStandard, PasswordHash: &empty}
	assert.False(t, user.IsAdmin())
	assert.False(t, user.HasPassword())

	hash := "$2a$04$abc"
	user.PasswordHash = &hash
	assert.True(t, user.HasPassword())
}

func TestPurchaseTransitions(t *testing.T) {
	allowed := map[domain.PurchaseStatus][]domain.PurchaseStatus{
		domain.PurchaseStatusDraft:     {domain.PurchaseStatusOrdered, domain.PurchaseStatusCancelled},
		domain.PurchaseStatusOrdered:   {domain.PurchaseStatusReceived, domain.PurchaseStatusCancelled},
		domain.PurchaseStatusReceived:  nil,
		domain.PurchaseStatusCancelled: nil,
	}
	all := []domain.PurchaseStatus{
		domain.PurchaseStatusDraft, domain.PurchaseStatusOrdered,
		domain.PurchaseStatusReceived, domain.PurchaseStatusCancelled,
	}
	for from, targets := range allowed {
		for _, to := range all {
			assert.Equal(t, contains(targets, to), from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, domain.PurchaseStatus("shipped").IsValid())
}

func TestPurchaseTotal(t *testing.T) {
	purchase := domain.Purchase{Lines: []domain.PurchaseLine{
		{Quantity: 3, UnitPrice: 250},
		{Quantity: 1, UnitPrice: 1000},
	}}
	assert.EqualValues(t, 1750, purchase.Total())
	assert.Zero(t, (&domain.Purchase{}).Total())
}

func contains(list []domain.PurchaseStatus, s domain.PurchaseStatus) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
