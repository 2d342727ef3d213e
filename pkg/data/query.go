package data

import (
	"context"
	"iter"
	"slices"
)

// Cond is one filter of a query. Expr uses "?" placeholders; backends
// rewrite them for their dialect.
type Cond struct {
	Expr string
	Args []any
}

type Ordering struct {
	Column string
	Desc   bool
}

// Criteria is everything a backend needs to run a query in one round trip.
type Criteria struct {
	Conditions []Cond
	Fetch      FetchPlan
	Order      []Ordering
	Limit      int
	Offset     int
}

// Finder executes criteria against a backend. Repositories implement it.
type Finder[T any] interface {
	Find(ctx context.Context, c Criteria) ([]*T, error)
	Count(ctx context.Context, c Criteria) (int64, error)
}

// Query is an immutable, lazily evaluated query over T. Every builder method
// returns a new Query; nothing reaches the backend until a terminal method
// runs or the sequence returned by All is ranged over.
type Query[T any] struct {
	finder     Finder[T]
	strategies StrategySource
	conds      []Cond
	steps      []fetchStep
	order      []Ordering
	limit      int
	offset     int
}

func NewQuery[T any](finder Finder[T], strategies StrategySource) Query[T] {
	return Query[T]{finder: finder, strategies: strategies}
}

func (q Query[T]) clone() Query[T] {
	q.conds = slices.Clone(q.conds)
	q.steps = slices.Clone(q.steps)
	q.order = slices.Clone(q.order)
	return q
}

func (q Query[T]) Where(expr string, args ...any) Query[T] {
	q = q.clone()
	q.conds = append(q.conds, Cond{Expr: expr, Args: args})
	return q
}

// Fetch eagerly loads a single-valued association of T.
func (q Query[T]) Fetch(name string) Query[T] {
	return q.fetch(name, CardinalityOne, false)
}

// FetchMany eagerly loads a collection association of T.
func (q Query[T]) FetchMany(name string) Query[T] {
	return q.fetch(name, CardinalityMany, false)
}

// ThenFetch extends the previous fetch with a single-valued association of
// the entity it loaded.
func (q Query[T]) ThenFetch(name string) Query[T] {
	return q.fetch(name, CardinalityOne, true)
}

func (q Query[T]) ThenFetchMany(name string) Query[T] {
	return q.fetch(name, CardinalityMany, true)
}

func (q Query[T]) fetch(name string, c Cardinality, then bool) Query[T] {
	q = q.clone()
	q.steps = append(q.steps, fetchStep{segment: Segment{Name: name, Cardinality: c}, then: then})
	return q
}

func (q Query[T]) OrderBy(column string, desc bool) Query[T] {
	q = q.clone()
	q.order = append(q.order, Ordering{Column: column, Desc: desc})
	return q
}

func (q Query[T]) Limit(n int) Query[T] {
	q.limit = n
	return q
}

func (q Query[T]) Offset(n int) Query[T] {
	q.offset = n
	return q
}

// For applies every fetching strategy registered for T under name, in
// registration order. An unknown name leaves the query as it is.
func (q Query[T]) For(name string) Query[T] {
	if q.strategies == nil {
		return q
	}
	for _, s := range q.strategies.Strategies(TypeOf[T](), name) {
		if strategy, ok := s.(Strategy[T]); ok {
			q = strategy.Define(q)
		}
	}
	return q
}

// Criteria returns what the query would send to the backend.
func (q Query[T]) Criteria() (Criteria, error) {
	plan, err := buildPlan(q.steps)
	if err != nil {
		return Criteria{}, err
	}
	return Criteria{
		Conditions: slices.Clone(q.conds),
		Fetch:      plan,
		Order:      slices.Clone(q.order),
		Limit:      q.limit,
		Offset:     q.offset,
	}, nil
}

func (q Query[T]) List(ctx context.Context) ([]*T, error) {
	if q.finder == nil {
		return nil, newConfigurationError("query", "query has no backend", nil)
	}
	c, err := q.Criteria()
	if err != nil {
		return nil, err
	}
	return q.finder.Find(ctx, c)
}

// First returns the first match or ErrNotFound.
func (q Query[T]) First(ctx context.Context) (*T, error) {
	items, err := q.Limit(1).List(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

// SingleOrDefault returns the only match, nil when there is none, and
// ErrNotUnique when there are more. A smaller limit set by the caller is
// kept.
func (q Query[T]) SingleOrDefault(ctx context.Context) (*T, error) {
	limit := 2
	if q.limit > 0 {
		limit = min(q.limit, limit)
	}
	items, err := q.Limit(limit).List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return items[0], nil
	default:
		return nil, ErrNotUnique
	}
}

func (q Query[T]) Count(ctx context.Context) (int64, error) {
	if q.finder == nil {
		return 0, newConfigurationError("query", "query has no backend", nil)
	}
	c, err := q.Criteria()
	if err != nil {
		return 0, err
	}
	c.Fetch = nil
	return q.finder.Count(ctx, c)
}

// All returns the results as a sequence. The query runs when the sequence is
// ranged over, once per range; a failure is yielded as the only element.
func (q Query[T]) All(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		items, err := q.List(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}
