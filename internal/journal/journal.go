// Package journal records the mutations this tool performed against
// Confluent Cloud. It is an audit trail of local actions, never a cache of
// remote state.
package journal

import (
	"fmt"
	"strings"
	"time"
)

// Actions recorded in the journal.
const (
	ActionTenantProvisioned = "tenant.provisioned"
	ActionTenantRevoked     = "tenant.revoked"
	ActionBindingCreated    = "binding.created"
	ActionBindingDeleted    = "binding.deleted"
)

// Entry is one recorded mutation.
type Entry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Project   string    `json:"project,omitempty"`
	Principal string    `json:"principal,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Store persists journal entries.
type Store interface {
	Close() error
	Append(e Entry) error
	Recent(n int) ([]Entry, error)
}

// NewStore creates the configured journal backend.
func NewStore(typ, path string) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt journal requires a path")
		}
		return openBolt(path)
	default:
		return nil, fmt.Errorf("unsupported journal type %q", typ)
	}
}

type noopStore struct{}

func (noopStore) Close() error                { return nil }
func (noopStore) Append(Entry) error          { return nil }
func (noopStore) Recent(int) ([]Entry, error) { return nil, nil }
