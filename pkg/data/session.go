// Package data is the persistence abstraction shared by every backend: the
// session factory resolver, the nestable unit of work scope and the lazy,
// fetch-plan aware query builder used by repositories.
package data

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// Session is one open conversation with a backing store. Sessions are not
// safe for concurrent use and belong to the unit of work that opened them.
type Session interface {
	Begin(ctx context.Context, opts TxOptions) (Transaction, error)
	Close() error
}

type Transaction interface {
	Commit() error
	Rollback() error
}

// SessionFactory opens sessions for the entity types it maps.
type SessionFactory interface {
	Name() string
	MappedTypes() []reflect.Type
	OpenSession(ctx context.Context) (Session, error)
}

// FactoryProvider returns the session factory of one backing store. It is
// called once at registration and again every time a session is opened, so
// it should hand back a cached factory.
type FactoryProvider func() (SessionFactory, error)

type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// TransactionMode controls whether a new scope joins the scope found in
// its context.
type TransactionMode int

const (
	// TransactionModeDefault joins the ambient scope when there is one.
	TransactionModeDefault TransactionMode = iota
	// TransactionModeNew always starts a root scope with its own transactions.
	TransactionModeNew
)

func (m TransactionMode) String() string {
	switch m {
	case TransactionModeDefault:
		return "default"
	case TransactionModeNew:
		return "new"
	default:
		return fmt.Sprintf("TransactionMode(%d)", int(m))
	}
}

// ParseTransactionMode accepts "default", "new" and its alias "explicit".
func ParseTransactionMode(s string) (TransactionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return TransactionModeDefault, nil
	case "new", "explicit":
		return TransactionModeNew, nil
	default:
		return TransactionModeDefault, newConfigurationError("transaction mode", fmt.Sprintf("unknown mode %q", s), nil)
	}
}

// EntityType normalizes pointers so *T and T resolve to the same entry.
func EntityType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeOf is EntityType for a type parameter.
func TypeOf[T any]() reflect.Type {
	return EntityType(reflect.TypeFor[T]())
}
