package sqldata

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/DioGolang/GoCommon/pkg/data"
)

// Scanner is the part of *sql.Row and *sql.Rows a Table reads from.
type Scanner interface {
	Scan(dest ...any) error
}

// Table maps T to one table. Columns lists every column, key included, in
// the order Scan reads them and Values returns them.
type Table[T any] struct {
	Name    string
	Key     string
	Columns []string
	Scan    func(row Scanner) (*T, error)
	Values  func(entity *T) []any
	KeyOf   func(entity *T) any

	// Associations are the relations fetch plans may name, keyed by the
	// association name used in Fetch and FetchMany.
	Associations map[string]Association[T]
}

func (t *Table[T]) validate() error {
	switch {
	case t.Name == "":
		return data.NewConfigurationError("sql mapping", fmt.Sprintf("%s: table name is empty", data.TypeOf[T]()), nil)
	case t.Scan == nil || t.Values == nil || t.KeyOf == nil:
		return data.NewConfigurationError("sql mapping", fmt.Sprintf("%s: Scan, Values and KeyOf are required", t.Name), nil)
	case t.keyIndex() < 0:
		return data.NewConfigurationError("sql mapping", fmt.Sprintf("%s: key %q is not one of the columns", t.Name, t.Key), nil)
	}
	return nil
}

func (t *Table[T]) keyIndex() int {
	for i, c := range t.Columns {
		if c == t.Key {
			return i
		}
	}
	return -1
}

func (t *Table[T]) selectList() string {
	return strings.Join(t.Columns, ", ")
}

// selectIn reads every row whose column matches one of keys.
func (t *Table[T]) selectIn(ctx context.Context, q querier, d Dialect, column string, keys []any) ([]*T, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
		t.selectList(), t.Name, column, placeholders(d, 1, len(keys)))
	return t.query(ctx, q, query, keys...)
}

func (t *Table[T]) query(ctx context.Context, q querier, query string, args ...any) ([]*T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.Name, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		entity, err := t.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		out = append(out, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", t.Name, err)
	}
	return out, nil
}

// fetch loads the associations named by nodes on every entity, level by
// level: one query per association per level whatever the number of
// entities. The plan is checked even when there is nothing to load.
func (t *Table[T]) fetch(ctx context.Context, q querier, d Dialect, entities []*T, nodes []*fetchNode) error {
	for _, node := range nodes {
		assoc, ok := t.Associations[node.name]
		if !ok {
			return data.NewConfigurationError("fetch plan",
				fmt.Sprintf("%s has no association %q", data.TypeOf[T](), node.name), nil)
		}
		if assoc.cardinality() != node.cardinality {
			return data.NewConfigurationError("fetch plan",
				fmt.Sprintf("%s.%s is a %s association, fetched as %s",
					data.TypeOf[T]().Name(), node.name, assoc.cardinality(), node.cardinality), nil)
		}
		if err := assoc.load(ctx, q, d, entities, node.children); err != nil {
			return err
		}
	}
	return nil
}

// Association loads a related entity or collection onto a batch of P.
type Association[P any] interface {
	cardinality() data.Cardinality
	load(ctx context.Context, q querier, d Dialect, parents []*P, next []*fetchNode) error
}

// HasMany is a one-to-many relation where C holds the key of P.
type HasMany[P, C any] struct {
	Child      *Table[C]
	ForeignKey string
	ParentKey  func(parent *P) any
	ChildKey   func(child *C) any
	Set        func(parent *P, children []*C)
}

func (HasMany[P, C]) cardinality() data.Cardinality { return data.CardinalityMany }

func (h HasMany[P, C]) load(ctx context.Context, q querier, d Dialect, parents []*P, next []*fetchNode) error {
	keys := distinct(parents, h.ParentKey)
	children, err := h.Child.selectIn(ctx, q, d, h.ForeignKey, keys)
	if err != nil {
		return err
	}

	byParent := make(map[any][]*C, len(keys))
	for _, c := range children {
		k := h.ChildKey(c)
		byParent[k] = append(byParent[k], c)
	}
	for _, p := range parents {
		found := byParent[h.ParentKey(p)]
		if found == nil {
			found = []*C{}
		}
		h.Set(p, found)
	}
	return h.Child.fetch(ctx, q, d, children, next)
}

// BelongsTo is a many-to-one relation where P holds the key of C. A nil
// foreign key leaves the association unset.
type BelongsTo[P, C any] struct {
	Target     *Table[C]
	ForeignKey func(parent *P) any
	Set        func(parent *P, target *C)
}

func (BelongsTo[P, C]) cardinality() data.Cardinality { return data.CardinalityOne }

func (b BelongsTo[P, C]) load(ctx context.Context, q querier, d Dialect, parents []*P, next []*fetchNode) error {
	keys := distinct(parents, b.ForeignKey)
	targets, err := b.Target.selectIn(ctx, q, d, b.Target.Key, keys)
	if err != nil {
		return err
	}

	byKey := make(map[any]*C, len(targets))
	for _, t := range targets {
		byKey[b.Target.KeyOf(t)] = t
	}
	for _, p := range parents {
		if k := b.ForeignKey(p); k != nil {
			if t, ok := byKey[k]; ok {
				b.Set(p, t)
			}
		}
	}
	return b.Target.fetch(ctx, q, d, targets, next)
}

func distinct[T any](entities []*T, key func(*T) any) []any {
	seen := make(map[any]struct{}, len(entities))
	out := make([]any, 0, len(entities))
	for _, e := range entities {
		k := key(e)
		if k == nil {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

type fetchNode struct {
	name        string
	cardinality data.Cardinality
	children    []*fetchNode
}

// treeOf merges the paths of a plan so a shared prefix is loaded once.
func treeOf(plan data.FetchPlan) []*fetchNode {
	var roots []*fetchNode
	for _, path := range plan {
		level := &roots
		for _, seg := range path {
			var node *fetchNode
			for _, n := range *level {
				if n.name == seg.Name {
					node = n
					break
				}
			}
			if node == nil {
				node = &fetchNode{name: seg.Name, cardinality: seg.Cardinality}
				*level = append(*level, node)
			}
			level = &node.children
		}
	}
	return roots
}

// Mapper holds the table mapping of every type a factory serves.
type Mapper struct {
	mu     sync.RWMutex
	tables map[reflect.Type]any
	order  []reflect.Type
}

func NewMapper() *Mapper {
	return &Mapper{tables: make(map[reflect.Type]any)}
}

// Map registers the table of T. Mapping a type twice is an error.
func Map[T any](m *Mapper, t *Table[T]) error {
	if err := t.validate(); err != nil {
		return err
	}
	typ := data.TypeOf[T]()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[typ]; ok {
		return data.NewConfigurationError("sql mapping", fmt.Sprintf("%s is already mapped", typ), nil)
	}
	m.tables[typ] = t
	m.order = append(m.order, typ)
	return nil
}

// TableOf returns the table registered for T.
func TableOf[T any](m *Mapper) (*Table[T], error) {
	typ := data.TypeOf[T]()
	m.mu.RLock()
	t, ok := m.tables[typ]
	m.mu.RUnlock()
	if !ok {
		return nil, data.NewConfigurationError("sql mapping", fmt.Sprintf("%s has no table mapping", typ), nil)
	}
	return t.(*Table[T]), nil
}

func (m *Mapper) Types() []reflect.Type {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]reflect.Type(nil), m.order...)
}
