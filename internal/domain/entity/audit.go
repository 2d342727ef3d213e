package entity

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// AuditEntry records one change made through the API. It lives in the
// audit database, apart from the orders.
type AuditEntry struct {
	ID        string
	Entity    string
	EntityID  string
	Action    string
	Trace     string
	CreatedAt time.Time
	Changes   []*AuditChange
}

type AuditChange struct {
	ID      string
	EntryID string
	Field   string
	Value   string
}

func NewAuditEntry(entity, entityID, action string, changes map[string]string) *AuditEntry {
	e := &AuditEntry{ID: uuid.NewString(), Entity: entity, EntityID: entityID, Action: action, CreatedAt: time.Now().UTC()}
	for _, field := range slices.Sorted(maps.Keys(changes)) {
		e.Changes = append(e.Changes, &AuditChange{ID: uuid.NewString(), EntryID: e.ID, Field: field, Value: changes[field]})
	}
	return e
}
