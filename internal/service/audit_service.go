package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mutooni/mutooni-api/internal/events"
)

// AuditService writes an audit log line for every domain event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserProvisioned, a.handleUserProvisioned)
	a.dispatcher.Subscribe(events.EventUserCreated, a.handleUserChanged)
	a.dispatcher.Subscribe(events.EventUserUpdated, a.handleUserChanged)
	a.dispatcher.Subscribe(events.EventUserDeleted, a.handleUserChanged)
	a.dispatcher.Subscribe(events.EventPurchaseCreated, a.handlePurchase)
	a.dispatcher.Subscribe(events.EventPurchaseStatusChanged, a.handlePurchase)
}

func (a *AuditService) handleUserProvisioned(_ context.Context, event events.Event) error {
	a.logger.Info("UserProvisioned", append(eventFields(event), zap.Any("payload", event.Payload))...)
	return nil
}

func (a *AuditService) handleUserChanged(_ context.Context, event events.Event) error {
	a.logger.Info("UserChanged", append(eventFields(event), zap.Any("payload", event.Payload))...)
	return nil
}

func (a *AuditService) handlePurchase(_ context.Context, event events.Event) error {
	a.logger.Info("PurchaseChanged", append(eventFields(event), zap.Any("payload", event.Payload))...)
	return nil
}

func eventFields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("aggregate_id", event.AggregateID),
	}
	if event.Actor.UserID != nil {
		fields = append(fields, zap.String("actor_id", *event.Actor.UserID))
	}
	return fields
}
