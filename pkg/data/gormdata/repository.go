package gormdata

import (
	"context"
	"fmt"
	"time"

	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists T through the gorm session the unit of work in ctx
// holds for it. Every method needs a scope in ctx.
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

func (r *Repository[T]) db(ctx context.Context) (*gorm.DB, error) {
	session, err := data.SessionOf[T](ctx)
	if err != nil {
		return nil, err
	}
	s, ok := session.(*Session)
	if !ok {
		return nil, data.NewConfigurationError("gorm repository",
			fmt.Sprintf("%s is mapped by a %T, not a gorm session", r.entity, session), nil)
	}
	return s.DB().WithContext(ctx), nil
}

func (r *Repository[T]) observe(op string, start time.Time, err error) {
	r.metrics.ObserveQueryDuration(r.entity, op, err == nil, time.Since(start))
}

func (r *Repository[T]) Add(ctx context.Context, entity *T) (err error) {
	defer func(start time.Time) { r.observe("add", start, err) }(time.Now())
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	return mapError(db.Create(entity).Error)
}

// Update writes every column of entity over the stored row. A row that
// does not exist is data.ErrNotFound, as in the sql backend.
func (r *Repository[T]) Update(ctx context.Context, entity *T) (err error) {
	defer func(start time.Time) { r.observe("update", start, err) }(time.Now())
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	res := db.Model(entity).Select("*").Omit(clause.Associations).Updates(entity)
	if res.Error != nil {
		return mapError(res.Error)
	}
	return r.affected(res)
}

func (r *Repository[T]) Delete(ctx context.Context, entity *T) (err error) {
	defer func(start time.Time) { r.observe("delete", start, err) }(time.Now())
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(entity)
	if res.Error != nil {
		return mapError(res.Error)
	}
	return r.affected(res)
}

func (r *Repository[T]) affected(res *gorm.DB) error {
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: no row of %s matched", data.ErrNotFound, r.entity)
	}
	return nil
}

// Get loads T by primary key, or fails with data.ErrNotFound.
func (r *Repository[T]) Get(ctx context.Context, key any) (_ *T, err error) {
	defer func(start time.Time) { r.observe("get", start, err) }(time.Now())
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var entity T
	if err := db.Where(clause.Eq{Column: clause.PrimaryColumn, Value: key}).First(&entity).Error; err != nil {
		return nil, mapError(err)
	}
	return &entity, nil
}

func (r *Repository[T]) Query() data.Query[T] {
	return data.NewQuery[T](r, r.strategies)
}

// Find runs c as one query; every fetch path becomes a Preload.
func (r *Repository[T]) Find(ctx context.Context, c data.Criteria) (_ []*T, err error) {
	defer func(start time.Time) { r.observe("find", start, err) }(time.Now())
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	db = apply(db, c)
	for _, path := range c.Fetch {
		db = db.Preload(path.String())
	}
	if c.Limit > 0 {
		db = db.Limit(c.Limit)
	}
	if c.Offset > 0 {
		db = db.Offset(c.Offset)
	}

	var out []*T
	if err := db.Find(&out).Error; err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *Repository[T]) Count(ctx context.Context, c data.Criteria) (_ int64, err error) {
	defer func(start time.Time) { r.observe("count", start, err) }(time.Now())
	db, err := r.db(ctx)
	if err != nil {
		return 0, err
	}
	c.Order = nil
	var n int64
	if err := apply(db.Model(new(T)), c).Count(&n).Error; err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func apply(db *gorm.DB, c data.Criteria) *gorm.DB {
	for _, cond := range c.Conditions {
		db = db.Where(cond.Expr, cond.Args...)
	}
	for _, o := range c.Order {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	return db
}
