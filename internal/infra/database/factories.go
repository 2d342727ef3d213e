package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/pkg/data/gormdata"
	"github.com/DioGolang/GoCommon/pkg/data/sqldata"
	"gorm.io/gorm"
)

const (
	OrdersFactory = "orders"
	AuditFactory  = "audit"
)

// OrderModels are the types the orders database maps through gorm.
func OrderModels() []any {
	return []any{&entity.Customer{}, &entity.Product{}, &entity.Order{}, &entity.Item{}}
}

func NewOrdersFactory(db *gorm.DB) (*gormdata.Factory, error) {
	return gormdata.NewFactory(OrdersFactory, db, OrderModels()...)
}

func MigrateOrders(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(OrderModels()...); err != nil {
		return fmt.Errorf("migrate orders: %w", err)
	}
	return nil
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id TEXT PRIMARY KEY,
	entity TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL,
	trace TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_entries_entity ON audit_entries (entity, entity_id);
CREATE TABLE IF NOT EXISTS audit_changes (
	id TEXT PRIMARY KEY,
	entry_id TEXT NOT NULL REFERENCES audit_entries(id),
	field TEXT NOT NULL,
	value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_changes_entry ON audit_changes (entry_id);
`

// MigrateAudit creates the audit tables. The statements are portable
// between SQLite and PostgreSQL.
func MigrateAudit(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(auditSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate audit: %w", err)
		}
	}
	return nil
}

// AuditMapper maps the audit entities. Timestamps are stored as RFC 3339
// text so both dialects sort them the same way.
func AuditMapper() (*sqldata.Mapper, error) {
	changes := &sqldata.Table[entity.AuditChange]{
		Name:    "audit_changes",
		Key:     "id",
		Columns: []string{"id", "entry_id", "field", "value"},
		Scan: func(row sqldata.Scanner) (*entity.AuditChange, error) {
			var c entity.AuditChange
			return &c, row.Scan(&c.ID, &c.EntryID, &c.Field, &c.Value)
		},
		Values: func(c *entity.AuditChange) []any { return []any{c.ID, c.EntryID, c.Field, c.Value} },
		KeyOf:  func(c *entity.AuditChange) any { return c.ID },
	}
	entries := &sqldata.Table[entity.AuditEntry]{
		Name:    "audit_entries",
		Key:     "id",
		Columns: []string{"id", "entity", "entity_id", "action", "trace", "created_at"},
		Scan: func(row sqldata.Scanner) (*entity.AuditEntry, error) {
			var e entity.AuditEntry
			var created string
			if err := row.Scan(&e.ID, &e.Entity, &e.EntityID, &e.Action, &e.Trace, &created); err != nil {
				return nil, err
			}
			t, err := time.Parse(time.RFC3339Nano, created)
			if err != nil {
				return nil, fmt.Errorf("audit entry %s: %w", e.ID, err)
			}
			e.CreatedAt = t
			return &e, nil
		},
		Values: func(e *entity.AuditEntry) []any {
			return []any{e.ID, e.Entity, e.EntityID, e.Action, e.Trace, e.CreatedAt.UTC().Format(time.RFC3339Nano)}
		},
		KeyOf: func(e *entity.AuditEntry) any { return e.ID },
		Associations: map[string]sqldata.Association[entity.AuditEntry]{
			"Changes": sqldata.HasMany[entity.AuditEntry, entity.AuditChange]{
				Child:      changes,
				ForeignKey: "entry_id",
				ParentKey:  func(e *entity.AuditEntry) any { return e.ID },
				ChildKey:   func(c *entity.AuditChange) any { return c.EntryID },
				Set:        func(e *entity.AuditEntry, c []*entity.AuditChange) { e.Changes = c },
			},
		},
	}

	m := sqldata.NewMapper()
	if err := sqldata.Map(m, entries); err != nil {
		return nil, err
	}
	if err := sqldata.Map(m, changes); err != nil {
		return nil, err
	}
	return m, nil
}

func NewAuditFactory(db *sql.DB, dialect sqldata.Dialect) (*sqldata.Factory, error) {
	m, err := AuditMapper()
	if err != nil {
		return nil, err
	}
	return sqldata.NewFactory(AuditFactory, db, dialect, m)
}
