// Package sqldata is the database/sql backend: a session style factory over
// a connection pool with an explicit mapping of entities to tables, and a
// repository that loads fetch plans with batched IN queries.
package sqldata

import (
	"context"
	"database/sql"
	"reflect"

	"github.com/DioGolang/GoCommon/pkg/data"
)

type Factory struct {
	name    string
	db      *sql.DB
	dialect Dialect
	mapper  *Mapper
}

func NewFactory(name string, db *sql.DB, dialect Dialect, mapper *Mapper) (*Factory, error) {
	switch {
	case db == nil:
		return nil, data.NewConfigurationError("sql factory", "expected a non-nil *sql.DB", nil)
	case dialect == nil:
		return nil, data.NewConfigurationError("sql factory", "expected a dialect", nil)
	case mapper == nil:
		return nil, data.NewConfigurationError("sql factory", "expected a mapper", nil)
	}
	return &Factory{name: name, db: db, dialect: dialect, mapper: mapper}, nil
}

// Open opens a pool with a registered driver and checks it answers.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, dialect, nil
}

func (f *Factory) Provider() data.FactoryProvider {
	return func() (data.SessionFactory, error) { return f, nil }
}

func (f *Factory) Name() string {
	return f.name
}

func (f *Factory) MappedTypes() []reflect.Type {
	return f.mapper.Types()
}

func (f *Factory) OpenSession(context.Context) (data.Session, error) {
	return &Session{db: f.db, dialect: f.dialect, mapper: f.mapper}, nil
}

func (f *Factory) DB() *sql.DB {
	return f.db
}
