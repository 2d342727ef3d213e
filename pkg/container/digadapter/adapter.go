// Package digadapter backs the container registration surface with
// go.uber.org/dig. Every key is provided to dig as a named value, so the
// dig graph can be inspected and extended by code that only knows dig.
package digadapter

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/DioGolang/GoCommon/pkg/container"
	"github.com/DioGolang/GoCommon/pkg/data"
	"go.uber.org/dig"
)

var (
	entryType = reflect.TypeFor[*entry]()
	inType    = reflect.TypeFor[dig.In]()
	errorType = reflect.TypeFor[error]()
)

type entry struct {
	mu        sync.Mutex
	factory   container.Factory
	singleton bool
	built     bool
	value     any
}

func (e *entry) build(r container.Resolver) (any, error) {
	if !e.singleton {
		return e.factory(r)
	}
	e.mu.Lock()
	if e.built {
		defer e.mu.Unlock()
		return e.value, nil
	}
	e.mu.Unlock()

	v, err := e.factory(r)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.built {
		e.value, e.built = v, true
	}
	return e.value, nil
}

// Adapter implements container.Adapter on a dig.Container. Factories run
// outside dig, so a factory can resolve its own dependencies through the
// Resolver it receives.
type Adapter struct {
	mu       sync.Mutex
	dig      *dig.Container
	keys     map[container.Key]struct{}
	generics map[container.Shape]container.Shape
	tags     map[string][]container.Key
}

func New(opts ...dig.Option) *Adapter {
	return &Adapter{
		dig:      dig.New(opts...),
		keys:     make(map[container.Key]struct{}),
		generics: make(map[container.Shape]container.Shape),
		tags:     make(map[string][]container.Key),
	}
}

// Dig exposes the underlying container.
func (a *Adapter) Dig() *dig.Container {
	return a.dig
}

func (a *Adapter) Register(key container.Key, f container.Factory) error {
	return a.provide(key, &entry{factory: f})
}

func (a *Adapter) RegisterSingleton(key container.Key, f container.Factory) error {
	return a.provide(key, &entry{factory: f, singleton: true})
}

func (a *Adapter) RegisterInstance(key container.Key, instance any) error {
	return a.provide(key, &entry{
		factory:   func(container.Resolver) (any, error) { return instance, nil },
		singleton: true,
		built:     true,
		value:     instance,
	})
}

func (a *Adapter) provide(key container.Key, e *entry) error {
	if key == "" || e.factory == nil {
		return data.NewConfigurationError("container", string(key), container.ErrInvalidRegistration)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.keys[key]; ok {
		return data.NewConfigurationError("container", string(key), container.ErrAlreadyRegistered)
	}
	if err := a.dig.Provide(func() *entry { return e }, dig.Name(string(key))); err != nil {
		return data.NewConfigurationError("container", string(key), fmt.Errorf("%w: %w", container.ErrInvalidRegistration, err))
	}
	a.keys[key] = struct{}{}
	return nil
}

func (a *Adapter) RegisterGeneric(service, impl container.Shape) error {
	if err := container.ValidateGeneric(service, impl); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.generics[service]; ok {
		return data.NewConfigurationError("container", service.String(), container.ErrAlreadyRegistered)
	}
	a.generics[service] = impl
	return nil
}

func (a *Adapter) Tag(tag string, keys ...container.Key) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tags[tag] = append(a.tags[tag], keys...)
	return nil
}

func (a *Adapter) IsRegistered(key container.Key) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.keys[key]
	return ok
}

func (a *Adapter) Resolve(key container.Key) (any, error) {
	return container.NewResolver(a).Resolve(key)
}

func (a *Adapter) ResolveAll(tag string) ([]any, error) {
	return container.NewResolver(a).ResolveAll(tag)
}

func (a *Adapter) ImplementationOf(service container.Shape) (container.Shape, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	impl, ok := a.generics[service]
	return impl, ok
}

func (a *Adapter) Tagged(tag string) []container.Key {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]container.Key(nil), a.tags[tag]...)
}

func (a *Adapter) Build(key container.Key, r container.Resolver) (any, error) {
	e, err := a.lookup(key)
	if err != nil {
		return nil, err
	}
	return e.build(r)
}

// lookup pulls the named entry out of dig with a parameter object built
// for key, the reflective form of
//
//	struct {
//		dig.In
//		Entry *entry `name:"<key>"`
//	}
func (a *Adapter) lookup(key container.Key) (*entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.keys[key]; !ok {
		return nil, container.ErrNotRegistered
	}

	params := reflect.StructOf([]reflect.StructField{
		{Name: "In", Type: inType, Anonymous: true},
		{Name: "Entry", Type: entryType, Tag: reflect.StructTag(fmt.Sprintf("name:%q", string(key)))},
	})
	var found *entry
	fn := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{params}, []reflect.Type{errorType}, false),
		func(args []reflect.Value) []reflect.Value {
			found = args[0].FieldByName("Entry").Interface().(*entry)
			return []reflect.Value{reflect.Zero(errorType)}
		},
	)
	if err := a.dig.Invoke(fn.Interface()); err != nil {
		return nil, fmt.Errorf("dig lookup: %w", err)
	}
	return found, nil
}

var _ container.Adapter = (*Adapter)(nil)
