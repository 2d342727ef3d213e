package data

import (
	"context"
	"reflect"
)

type scopeKey struct{}

func withScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// CurrentScope returns the innermost scope carried by ctx, or nil.
func CurrentScope(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// Commit commits the scope carried by ctx.
func Commit(ctx context.Context) error {
	return CurrentScope(ctx).Commit()
}

// SessionFor returns the session the scope in ctx holds for entity type t.
func SessionFor(ctx context.Context, t reflect.Type) (Session, error) {
	return CurrentScope(ctx).Session(ctx, t)
}

// SessionOf is SessionFor for a type parameter.
func SessionOf[T any](ctx context.Context) (Session, error) {
	return SessionFor(ctx, TypeOf[T]())
}
