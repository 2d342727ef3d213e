package container

import (
	"errors"
	"slices"
)

// Backend is the storage side of an adapter. Build runs the factory
// registered under key, handing it r for its own dependencies.
type Backend interface {
	Build(key Key, r Resolver) (any, error)
	Tagged(tag string) []Key
	ImplementationOf(service Shape) (Shape, bool)
}

// NewResolver starts a resolution over b with an empty build stack.
func NewResolver(b Backend) Resolver {
	return &resolution{backend: b}
}

// resolution carries the keys being built by one top-level Resolve. Each
// factory gets its own copy, so concurrent resolutions never share a stack.
type resolution struct {
	backend Backend
	stack   []Key
}

func (r *resolution) Resolve(key Key) (any, error) {
	path := append(slices.Clone(r.stack), key)
	if slices.Contains(r.stack, key) {
		return nil, &ResolveError{Key: key, Path: path, Err: ErrCircularDependency}
	}

	v, err := r.backend.Build(key, &resolution{backend: r.backend, stack: path})
	if err != nil {
		var re *ResolveError
		if errors.As(err, &re) {
			return nil, err
		}
		return nil, &ResolveError{Key: key, Path: path, Err: err}
	}
	return v, nil
}

func (r *resolution) ResolveAll(tag string) ([]any, error) {
	keys := r.backend.Tagged(tag)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		v, err := r.Resolve(k)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *resolution) ImplementationOf(service Shape) (Shape, bool) {
	return r.backend.ImplementationOf(service)
}
