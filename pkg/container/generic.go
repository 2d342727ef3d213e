package container

import (
	"errors"
	"fmt"
)

func wrap[T any](f func(Resolver) (T, error)) Factory {
	if f == nil {
		return nil
	}
	return func(r Resolver) (any, error) { return f(r) }
}

// Bind registers a transient factory for T under TypeKey[T].
func Bind[T any](a Adapter, f func(Resolver) (T, error)) error {
	return a.Register(TypeKey[T](), wrap(f))
}

// Singleton registers a factory for T whose first result is reused.
func Singleton[T any](a Adapter, f func(Resolver) (T, error)) error {
	return a.RegisterSingleton(TypeKey[T](), wrap(f))
}

func Instance[T any](a Adapter, v T) error {
	return a.RegisterInstance(TypeKey[T](), v)
}

// Instantiate registers the constructor of one closed instantiation of a
// generic implementation, such as *Repo[Order]. Get reaches it through the
// open mapping registered with RegisterGeneric.
func Instantiate[Impl any](a Adapter, f func(Resolver) (Impl, error)) error {
	key := TypeKey[Impl]()
	if _, _, ok := ParseShape(key); !ok {
		return registrationError(key, fmt.Errorf("%w: %s is not a generic instantiation", ErrInvalidRegistration, key))
	}
	return a.Register(key, wrap(f))
}

// Get resolves T. When nothing is registered under TypeKey[T] and T is an
// instantiation of a mapped open generic, the implementation closed over
// T's type arguments is resolved instead.
func Get[T any](r Resolver) (T, error) {
	var zero T
	key := TypeKey[T]()

	v, err := r.Resolve(key)
	if err != nil && missing(err, key) {
		if service, args, ok := ParseShape(key); ok {
			if impl, ok := r.ImplementationOf(service); ok {
				closed, cerr := impl.Close(args)
				if cerr != nil {
					return zero, cerr
				}
				v, err = r.Resolve(closed)
			}
		}
	}
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, &ResolveError{Key: key, Path: []Key{key}, Err: fmt.Errorf("%w: got %T", ErrTypeMismatch, v)}
	}
	return typed, nil
}

// All resolves every service tagged with tag that is a T.
func All[T any](r Resolver, tag string) ([]T, error) {
	values, err := r.ResolveAll(tag)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(values))
	for _, v := range values {
		if typed, ok := v.(T); ok {
			out = append(out, typed)
		}
	}
	return out, nil
}

// missing reports whether err says key itself, not one of its
// dependencies, is unregistered.
func missing(err error, key Key) bool {
	var re *ResolveError
	return errors.As(err, &re) && re.Key == key && errors.Is(re.Err, ErrNotRegistered)
}
