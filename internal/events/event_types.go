package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/mutooni/mutooni-api/internal/domain"
)

// EventType enumerates supported event identifiers. Values double as AMQP routing keys.
type EventType string

const (
	EventUserProvisioned       EventType = "user.provisioned"
	EventUserCreated           EventType = "user.created"
	EventUserUpdated           EventType = "user.updated"
	EventUserDeleted           EventType = "user.deleted"
	EventPurchaseCreated       EventType = "purchase.created"
	EventPurchaseStatusChanged EventType = "purchase.status_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID *string           `json:"user_id,omitempty"`
	Method domain.AuthMethod `json:"method,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	Actor       Actor     `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload,omitempty"`
}

// NewEvent stamps a new event with an id and the current time.
func NewEvent(eventType EventType, aggregateID string, actor Actor, payload any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		Actor:       actor,
		Timestamp:   time.Now().UTC(),
		Payload:     payload,
	}
}

// ActorFor builds the actor block for a user. A nil user yields a system actor.
func ActorFor(user *domain.User, method domain.AuthMethod) Actor {
	if user == nil {
		return Actor{}
	}
	id := user.ID
	return Actor{UserID: &id, Method: method}
}

// UserProvisionedPayload is emitted when the first identity-token login creates an account.
type UserProvisionedPayload struct {
	Subject          string `json:"subject"`
	Email            string `json:"email"`
	PlaceholderEmail bool   `json:"placeholder_email"`
}

// UserChangedPayload payload.
type UserChangedPayload struct {
	Subject string      `json:"subject"`
	Role    domain.Role `json:"role"`
	Active  bool        `json:"active"`
}

// PurchaseCreatedPayload payload.
type PurchaseCreatedPayload struct {
	SupplierID string `json:"supplier_id"`
	Lines      int    `json:"lines"`
	Total      int64  `json:"total"`
}

// PurchaseStatusChangedPayload payload.
type PurchaseStatusChangedPayload struct {
	OldStatus domain.PurchaseStatus `json:"old_status"`
	NewStatus domain.PurchaseStatus `json:"new_status"`
}
