// Package gormdata is the gorm backend: an object-context style session
// factory whose sessions wrap a *gorm.DB, and a generic repository that
// turns fetch plans into Preload calls.
package gormdata

import (
	"context"
	"fmt"
	"reflect"

	"github.com/DioGolang/GoCommon/pkg/data"
	"gorm.io/gorm"
)

type Factory struct {
	name  string
	db    *gorm.DB
	types []reflect.Type
}

// NewFactory parses every model with gorm's schema parser so that mapping
// mistakes surface at startup, not on the first query.
func NewFactory(name string, db *gorm.DB, models ...any) (*Factory, error) {
	if db == nil {
		return nil, data.NewConfigurationError("gorm factory", "expected a non-nil *gorm.DB", nil)
	}
	types := make([]reflect.Type, 0, len(models))
	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, data.NewConfigurationError("gorm factory", fmt.Sprintf("parse model %T", model), err)
		}
		types = append(types, data.EntityType(reflect.TypeOf(model)))
	}
	return &Factory{name: name, db: db, types: types}, nil
}

// Provider returns the factory itself on every call.
func (f *Factory) Provider() data.FactoryProvider {
	return func() (data.SessionFactory, error) { return f, nil }
}

func (f *Factory) Name() string {
	return f.name
}

func (f *Factory) MappedTypes() []reflect.Type {
	return f.types
}

func (f *Factory) OpenSession(ctx context.Context) (data.Session, error) {
	return &Session{db: f.db.WithContext(ctx)}, nil
}

// DB returns the underlying handle, for migrations and health checks.
func (f *Factory) DB() *gorm.DB {
	return f.db
}
