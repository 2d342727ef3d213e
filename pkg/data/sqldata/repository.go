package sqldata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/metrics"
)

// Repository persists T through the sql session the unit of work in ctx
// holds for it, using the table T was mapped to.
type Repository[T any] struct {
	strategies data.StrategySource
	metrics    metrics.Metrics
	entity     string
}

func NewRepository[T any](strategies data.StrategySource, m metrics.Metrics) *Repository[T] {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Repository[T]{
		strategies: strategies,
		metrics:    m,
		entity:     data.TypeOf[T]().Name(),
	}
}

func (r *Repository[T]) session(ctx context.Context) (*Session, *Table[T], error) {
	session, err := data.SessionOf[T](ctx)
	if err != nil {
		return nil, nil, err
	}
	s, ok := session.(*Session)
	if !ok {
		return nil, nil, data.NewConfigurationError("sql repository",
			fmt.Sprintf("%s is mapped by a %T, not a sql session", r.entity, session), nil)
	}
	table, err := TableOf[T](s.mapper)
	if err != nil {
		return nil, nil, err
	}
	return s, table, nil
}

func (r *Repository[T]) observe(op string, start time.Time, err error) {
	r.metrics.ObserveQueryDuration(r.entity, op, err == nil, time.Since(start))
}

func (r *Repository[T]) Add(ctx context.Context, entity *T) (err error) {
	defer func(start time.Time) { r.observe("add", start, err) }(time.Now())
	s, t, err := r.session(ctx)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, t.selectList(), placeholders(s.dialect, 1, len(t.Columns)))
	if _, err := s.querier().ExecContext(ctx, query, t.Values(entity)...); err != nil {
		return fmt.Errorf("insert %s: %w", t.Name, err)
	}
	return nil
}

func (r *Repository[T]) Update(ctx context.Context, entity *T) (err error) {
	defer func(start time.Time) { r.observe("update", start, err) }(time.Now())
	s, t, err := r.session(ctx)
	if err != nil {
		return err
	}

	values := t.Values(entity)
	keyIdx := t.keyIndex()
	sets := make([]string, 0, len(t.Columns)-1)
	args := make([]any, 0, len(t.Columns))
	for i, col := range t.Columns {
		if i == keyIdx {
			continue
		}
		args = append(args, values[i])
		sets = append(sets, fmt.Sprintf("%s = %s", col, s.dialect.Placeholder(len(args))))
	}
	args = append(args, values[keyIdx])
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		t.Name, strings.Join(sets, ", "), t.Key, s.dialect.Placeholder(len(args)))

	res, err := s.querier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.Name, err)
	}
	return affected(res, t.Name)
}

func (r *Repository[T]) Delete(ctx context.Context, entity *T) (err error) {
	defer func(start time.Time) { r.observe("delete", start, err) }(time.Now())
	s, t, err := r.session(ctx)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", t.Name, t.Key, s.dialect.Placeholder(1))
	res, err := s.querier().ExecContext(ctx, query, t.KeyOf(entity))
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.Name, err)
	}
	return affected(res, t.Name)
}

// Get loads T by key, or fails with data.ErrNotFound.
func (r *Repository[T]) Get(ctx context.Context, key any) (_ *T, err error) {
	defer func(start time.Time) { r.observe("get", start, err) }(time.Now())
	s, t, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", t.selectList(), t.Name, t.Key, s.dialect.Placeholder(1))
	entity, err := t.Scan(s.querier().QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %v", data.ErrNotFound, t.Name, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", t.Name, err)
	}
	return entity, nil
}

func (r *Repository[T]) Query() data.Query[T] {
	return data.NewQuery[T](r, r.strategies)
}

// Find runs c and then loads its fetch plan, one batched query per
// association and level, inside the same transaction.
func (r *Repository[T]) Find(ctx context.Context, c data.Criteria) (_ []*T, err error) {
	defer func(start time.Time) { r.observe("find", start, err) }(time.Now())
	s, t, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	where, args := whereClause(s.dialect, c.Conditions)
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s", t.selectList(), t.Name, where)
	if len(c.Order) > 0 {
		parts := make([]string, len(c.Order))
		for i, o := range c.Order {
			parts[i] = o.Column
			if o.Desc {
				parts[i] += " DESC"
			}
		}
		b.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	b.WriteString(s.dialect.LimitOffset(c.Limit, c.Offset))

	q := s.querier()
	out, err := t.query(ctx, q, b.String(), args...)
	if err != nil {
		return nil, err
	}
	if err := t.fetch(ctx, q, s.dialect, out, treeOf(c.Fetch)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository[T]) Count(ctx context.Context, c data.Criteria) (_ int64, err error) {
	defer func(start time.Time) { r.observe("count", start, err) }(time.Now())
	s, t, err := r.session(ctx)
	if err != nil {
		return 0, err
	}
	where, args := whereClause(s.dialect, c.Conditions)
	var n int64
	if err := s.querier().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.Name+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}
	return n, nil
}

func whereClause(d Dialect, conds []data.Cond) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	parts := make([]string, len(conds))
	var args []any
	next := 1
	for i, c := range conds {
		expr, n := rebind(d, c.Expr, next)
		next += n
		parts[i] = "(" + expr + ")"
		args = append(args, c.Args...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// affected reports ErrNotFound when the driver says no row changed.
func affected(res sql.Result, table string) error {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: no row of %s matched", data.ErrNotFound, table)
	}
	return nil
}
