package data

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/DioGolang/GoCommon/pkg/metrics"
)

// Strategy is a named, reusable query shape for T, usually a fetch plan
// tailored to one screen or use case.
type Strategy[T any] interface {
	Define(q Query[T]) Query[T]
}

type StrategyFunc[T any] func(q Query[T]) Query[T]

func (f StrategyFunc[T]) Define(q Query[T]) Query[T] {
	return f(q)
}

// StrategySource finds the strategies registered for an entity type and a
// name. Entries that are not a Strategy of the queried type are ignored.
type StrategySource interface {
	Strategies(t reflect.Type, name string) []any
}

type strategyKey struct {
	entity reflect.Type
	name   string
}

type StrategyRegistry struct {
	mu      sync.RWMutex
	entries map[strategyKey][]any
	metrics metrics.Metrics
}

func NewStrategyRegistry(m metrics.Metrics) *StrategyRegistry {
	if m == nil {
		m = metrics.Nop{}
	}
	return &StrategyRegistry{entries: make(map[strategyKey][]any), metrics: m}
}

// RegisterStrategy adds s to the strategies applied by Query[T].For(name).
func RegisterStrategy[T any](r *StrategyRegistry, name string, s Strategy[T]) {
	key := strategyKey{entity: TypeOf[T](), name: name}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = append(r.entries[key], s)
}

func (r *StrategyRegistry) Strategies(t reflect.Type, name string) []any {
	r.mu.RLock()
	found := r.entries[strategyKey{entity: EntityType(t), name: name}]
	r.mu.RUnlock()

	if len(found) == 0 {
		r.metrics.IncCacheMiss("fetch_strategy")
		return nil
	}
	r.metrics.IncCacheHit("fetch_strategy")
	return found
}

// TaggedResolver is the part of a service container ContainerStrategies
// needs.
type TaggedResolver interface {
	ResolveAll(tag string) ([]any, error)
}

// StrategyTag is the container tag under which strategies for t and name
// are looked up.
func StrategyTag(t reflect.Type, name string) string {
	return fmt.Sprintf("fetch-strategy:%s:%s", EntityType(t), name)
}

// ContainerStrategies reads strategies from a container, where they were
// registered and tagged with StrategyTag.
func ContainerStrategies(r TaggedResolver) StrategySource {
	return containerStrategies{r}
}

type containerStrategies struct {
	r TaggedResolver
}

func (c containerStrategies) Strategies(t reflect.Type, name string) []any {
	found, err := c.r.ResolveAll(StrategyTag(t, name))
	if err != nil {
		return nil
	}
	return found
}
