package database

import (
	"context"
	"fmt"

	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/pkg/data/sqldata"
	carrier "github.com/DioGolang/GoCommon/pkg/otel"
)

// AuditRepositoryImpl writes audit entries through the sql backend. The
// trace context of the request is stored with each entry.
type AuditRepositoryImpl struct {
	entries *sqldata.Repository[entity.AuditEntry]
	changes *sqldata.Repository[entity.AuditChange]
}

func NewAuditRepository(entries *sqldata.Repository[entity.AuditEntry], changes *sqldata.Repository[entity.AuditChange]) *AuditRepositoryImpl {
	return &AuditRepositoryImpl{entries: entries, changes: changes}
}

func (r *AuditRepositoryImpl) Add(ctx context.Context, entry *entity.AuditEntry) error {
	if entry.Trace == "" {
		entry.Trace = carrier.TraceJSON(ctx)
	}
	if err := r.entries.Add(ctx, entry); err != nil {
		return err
	}
	for _, c := range entry.Changes {
		c.EntryID = entry.ID
		if err := r.changes.Add(ctx, c); err != nil {
			return fmt.Errorf("audit change %s: %w", c.Field, err)
		}
	}
	return nil
}

func (r *AuditRepositoryImpl) History(ctx context.Context, entityName, entityID string) ([]*entity.AuditEntry, error) {
	return r.entries.Query().
		Where("entity = ? AND entity_id = ?", entityName, entityID).
		FetchMany("Changes").
		OrderBy("created_at", true).
		List(ctx)
}

var _ outbound.AuditRepository = (*AuditRepositoryImpl)(nil)
