package data

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Resolver maps entity types to the session factory that persists them.
//
// Factories are introspected once, when registered: every mapped type is
// recorded against the factory's key so later lookups are a single map read.
type Resolver struct {
	mu        sync.RWMutex
	typeCache map[reflect.Type]uuid.UUID
	factories map[uuid.UUID]FactoryProvider
	names     map[uuid.UUID]string
}

func NewResolver() *Resolver {
	return &Resolver{
		typeCache: make(map[reflect.Type]uuid.UUID),
		factories: make(map[uuid.UUID]FactoryProvider),
		names:     make(map[uuid.UUID]string),
	}
}

// RegisterFactory registers a session factory provider and returns the key
// generated for it. A type already mapped by another factory is rejected
// and nothing from this registration is kept.
func (r *Resolver) RegisterFactory(provider FactoryProvider) (uuid.UUID, error) {
	if provider == nil {
		return uuid.Nil, newConfigurationError("resolver", "expected a non-nil session factory provider", nil)
	}
	factory, err := provider()
	if err != nil {
		return uuid.Nil, newConfigurationError("resolver", "session factory provider failed", err)
	}
	if factory == nil {
		return uuid.Nil, newConfigurationError("resolver", "session factory provider returned nil", nil)
	}

	mapped := factory.MappedTypes()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range mapped {
		t = EntityType(t)
		if owner, ok := r.typeCache[t]; ok {
			return uuid.Nil, newConfigurationError("resolver",
				fmt.Sprintf("%s is already mapped by session factory %q", t, r.names[owner]), nil)
		}
	}

	key := uuid.New()
	r.factories[key] = provider
	r.names[key] = factory.Name()
	for _, t := range mapped {
		r.typeCache[EntityType(t)] = key
	}
	return key, nil
}

// ResolveKeyFor returns the key of the factory mapping t.
func (r *Resolver) ResolveKeyFor(t reflect.Type) (uuid.UUID, error) {
	t = EntityType(t)
	r.mu.RLock()
	key, ok := r.typeCache[t]
	r.mu.RUnlock()
	if !ok {
		return uuid.Nil, &LookupError{Type: t}
	}
	return key, nil
}

// FactoryFor returns the session factory mapping t.
func (r *Resolver) FactoryFor(t reflect.Type) (SessionFactory, error) {
	key, err := r.ResolveKeyFor(t)
	if err != nil {
		return nil, err
	}
	return r.factory(key)
}

// OpenSessionFor opens a new session on the factory mapping t. Sessions are
// never pooled or reused by the resolver.
func (r *Resolver) OpenSessionFor(ctx context.Context, t reflect.Type) (Session, error) {
	key, err := r.ResolveKeyFor(t)
	if err != nil {
		return nil, err
	}
	return r.OpenSession(ctx, key)
}

// OpenSession opens a new session on the factory registered under key.
func (r *Resolver) OpenSession(ctx context.Context, key uuid.UUID) (Session, error) {
	factory, err := r.factory(key)
	if err != nil {
		return nil, err
	}
	session, err := factory.OpenSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session on %q: %w", factory.Name(), err)
	}
	return session, nil
}

// FactoryCount is the number of distinct factories registered.
func (r *Resolver) FactoryCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// FactoryName returns the name the factory registered under key reported.
func (r *Resolver) FactoryName(key uuid.UUID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[key]
}

func (r *Resolver) factory(key uuid.UUID) (SessionFactory, error) {
	r.mu.RLock()
	provider, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, newConfigurationError("resolver", fmt.Sprintf("no session factory registered under key %s", key), nil)
	}
	factory, err := provider()
	if err != nil {
		return nil, fmt.Errorf("session factory provider %s: %w", key, err)
	}
	if factory == nil {
		return nil, newConfigurationError("resolver", "session factory provider returned nil", nil)
	}
	return factory, nil
}

// KeyOf is ResolveKeyFor for a type parameter.
func KeyOf[T any](r *Resolver) (uuid.UUID, error) {
	return r.ResolveKeyFor(TypeOf[T]())
}

// FactoryOf is FactoryFor for a type parameter.
func FactoryOf[T any](r *Resolver) (SessionFactory, error) {
	return r.FactoryFor(TypeOf[T]())
}

// OpenSessionOf is OpenSessionFor for a type parameter.
func OpenSessionOf[T any](ctx context.Context, r *Resolver) (Session, error) {
	return r.OpenSessionFor(ctx, TypeOf[T]())
}
