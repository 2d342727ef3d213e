package container

import (
	"fmt"
	"sync"
)

type binding struct {
	mu        sync.Mutex
	factory   Factory
	singleton bool
	built     bool
	instance  any
}

// Registry is the in-process container. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings map[Key]*binding
	generics map[Shape]Shape
	tags     map[string][]Key
}

func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[Key]*binding),
		generics: make(map[Shape]Shape),
		tags:     make(map[string][]Key),
	}
}

func (c *Registry) Register(key Key, f Factory) error {
	return c.add(key, &binding{factory: f})
}

func (c *Registry) RegisterSingleton(key Key, f Factory) error {
	return c.add(key, &binding{factory: f, singleton: true})
}

func (c *Registry) RegisterInstance(key Key, instance any) error {
	return c.add(key, &binding{singleton: true, built: true, instance: instance,
		factory: func(Resolver) (any, error) { return instance, nil }})
}

func (c *Registry) add(key Key, b *binding) error {
	if key == "" || b.factory == nil {
		return registrationError(key, ErrInvalidRegistration)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.bindings[key]; ok {
		return registrationError(key, ErrAlreadyRegistered)
	}
	c.bindings[key] = b
	return nil
}

// RegisterGeneric maps an open generic service to an open generic
// implementation of the same arity.
func (c *Registry) RegisterGeneric(service, impl Shape) error {
	if err := ValidateGeneric(service, impl); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.generics[service]; ok {
		return registrationError(Key(service.String()), ErrAlreadyRegistered)
	}
	c.generics[service] = impl
	return nil
}

// ValidateGeneric checks that service and impl are distinct open generics
// of the same arity.
func ValidateGeneric(service, impl Shape) error {
	switch {
	case service.Name == "" || impl.Name == "" || service.Arity == 0:
		return registrationError(Key(service.String()), fmt.Errorf("%w: %s is not an open generic", ErrInvalidRegistration, service))
	case service.Arity != impl.Arity:
		return registrationError(Key(service.String()), fmt.Errorf("%w: %s and %s differ in arity", ErrInvalidRegistration, service, impl))
	case service == impl:
		return registrationError(Key(service.String()), fmt.Errorf("%w: %s is mapped to itself", ErrInvalidRegistration, service))
	}
	return nil
}

func (c *Registry) Tag(tag string, keys ...Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], keys...)
	return nil
}

func (c *Registry) IsRegistered(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[key]
	return ok
}

func (c *Registry) Resolve(key Key) (any, error) {
	return NewResolver(c).Resolve(key)
}

func (c *Registry) ResolveAll(tag string) ([]any, error) {
	return NewResolver(c).ResolveAll(tag)
}

func (c *Registry) ImplementationOf(service Shape) (Shape, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	impl, ok := c.generics[service]
	return impl, ok
}

func (c *Registry) Tagged(tag string) []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Key(nil), c.tags[tag]...)
}

// Build runs the factory of key. A singleton is built outside its lock so
// two goroutines resolving a cycle cannot deadlock; the first result wins.
func (c *Registry) Build(key Key, r Resolver) (any, error) {
	c.mu.RLock()
	b, ok := c.bindings[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotRegistered
	}
	if !b.singleton {
		return b.factory(r)
	}

	b.mu.Lock()
	if b.built {
		defer b.mu.Unlock()
		return b.instance, nil
	}
	b.mu.Unlock()

	v, err := b.factory(r)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.built {
		b.instance, b.built = v, true
	}
	return b.instance, nil
}
