// Package container gives the service containers an application may use one
// registration surface: keyed factories, singletons, instances, tags and
// open generic mappings.
//
// Go cannot instantiate a generic type at run time, so an open generic
// mapping is a table entry from the service shape to the implementation
// shape. Closed implementations are registered with Instantiate; Get
// substitutes the type arguments of the requested service into the mapped
// shape and resolves that closed key.
package container

import (
	"reflect"
)

// Key identifies a service. TypeKey derives one from a type.
type Key string

// Resolver is what factories receive to pull their dependencies. It tracks
// the keys being built so a dependency cycle fails instead of recursing.
type Resolver interface {
	Resolve(key Key) (any, error)
	ResolveAll(tag string) ([]any, error)
	ImplementationOf(service Shape) (Shape, bool)
}

type Factory func(r Resolver) (any, error)

// Adapter is implemented by every container backend.
type Adapter interface {
	Resolver
	Register(key Key, f Factory) error
	RegisterSingleton(key Key, f Factory) error
	RegisterInstance(key Key, instance any) error
	RegisterGeneric(service, impl Shape) error
	Tag(tag string, keys ...Key) error
	IsRegistered(key Key) bool
}

// TypeKey is the key of T: its package path and name, with the type
// arguments of a generic instantiation, prefixed by "*" for pointers.
func TypeKey[T any]() Key {
	return KeyOf(reflect.TypeFor[T]())
}

func KeyOf(t reflect.Type) Key {
	prefix := ""
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		prefix += "*"
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return Key(prefix + t.String())
	}
	return Key(prefix + t.PkgPath() + "." + t.Name())
}
