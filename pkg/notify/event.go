package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/streamhaus/confluent-tenant-manager/pkg/confluent"
)

// Event types emitted by the tenant manager.
const (
	EventTenantProvisioned = "tenant.provisioned"
	EventTenantRevoked     = "tenant.revoked"
	EventBindingCreated    = "binding.created"
	EventBindingDeleted    = "binding.deleted"
)

// Event is the payload published downstream after a mutation.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Project    string                 `json:"project,omitempty"`
	Principal  string                 `json:"principal,omitempty"`
	Binding    *confluent.RoleBinding `json:"binding,omitempty"`
	Details    map[string]string      `json:"details,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewEvent constructs an Event of the given type for a project/principal
// pair. Callers attach the binding snapshot or details afterwards.
func NewEvent(eventType, project, principal string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Project:    project,
		Principal:  principal,
		OccurredAt: time.Now().UTC(),
	}
}
