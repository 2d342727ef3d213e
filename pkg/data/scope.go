package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/DioGolang/GoCommon/pkg/metrics"
)

const (
	OutcomeCommitted    = "committed"
	OutcomeRolledBack   = "rolled_back"
	OutcomeCommitFailed = "commit_failed"
)

// Manager starts unit of work scopes. It is safe for concurrent use; the
// scopes it hands out are not.
type Manager struct {
	resolver *Resolver
	logger   logger.Logger
	metrics  metrics.Metrics
	mode     TransactionMode
	txOpts   TxOptions
}

type ManagerOption func(*Manager)

func WithLogger(l logger.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

func WithMetrics(mt metrics.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = mt }
}

// WithDefaultMode sets the mode used when Start is not given one.
func WithDefaultMode(mode TransactionMode) ManagerOption {
	return func(m *Manager) { m.mode = mode }
}

func WithDefaultTxOptions(opts TxOptions) ManagerOption {
	return func(m *Manager) { m.txOpts = opts }
}

func NewManager(resolver *Resolver, opts ...ManagerOption) *Manager {
	m := &Manager{
		resolver: resolver,
		logger:   logger.NewNop(),
		metrics:  metrics.Nop{},
		mode:     TransactionModeDefault,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

type scopeConfig struct {
	mode TransactionMode
	tx   TxOptions
}

type ScopeOption func(*scopeConfig)

func WithTransactionMode(mode TransactionMode) ScopeOption {
	return func(c *scopeConfig) { c.mode = mode }
}

// WithIsolationLevel only applies to root scopes; a joined scope runs in
// the transactions its root opened.
func WithIsolationLevel(level sql.IsolationLevel) ScopeOption {
	return func(c *scopeConfig) { c.tx.Isolation = level }
}

func WithReadOnly(readOnly bool) ScopeOption {
	return func(c *scopeConfig) { c.tx.ReadOnly = readOnly }
}

// Start opens a scope and returns a context carrying it. With the default
// mode a scope already present in ctx is joined; otherwise the new scope is
// a root that owns its own sessions and transactions.
//
// The caller must Dispose the scope, normally with defer, and must use the
// returned context for work that belongs to it.
func (m *Manager) Start(ctx context.Context, opts ...ScopeOption) (context.Context, *Scope, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.resolver == nil {
		return ctx, nil, newConfigurationError("unit of work", "manager has no session resolver", nil)
	}

	cfg := scopeConfig{mode: m.mode, tx: m.txOpts}
	for _, opt := range opts {
		opt(&cfg)
	}

	if ambient := CurrentScope(ctx); ambient != nil && cfg.mode == TransactionModeDefault {
		if s, ok := ambient.root.join(cfg.mode); ok {
			return withScope(ctx, s), s, nil
		}
	}

	r := &root{
		manager: m,
		ctx:     ctx,
		started: time.Now(),
	}
	r.uow = newUnitOfWork(m.resolver, cfg.tx, m.metrics.RecordSessionOpened)
	s := &Scope{root: r, mode: cfg.mode, isRoot: true}
	r.stack = []*Scope{s}

	m.logger.Debug(ctx, "unit of work started",
		logger.String("mode", cfg.mode.String()),
		logger.Bool("read_only", cfg.tx.ReadOnly),
	)
	return withScope(ctx, s), s, nil
}

// Do runs fn inside a scope. The scope commits when fn returns nil and
// rolls back when it returns an error or panics; a panic is re-raised once
// the rollback is done.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error, opts ...ScopeOption) (err error) {
	scopeCtx, scope, err := m.Start(ctx, opts...)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = scope.Dispose()
			panic(p)
		}
	}()

	if err = fn(scopeCtx); err != nil {
		if dErr := scope.Dispose(); dErr != nil {
			return errors.Join(err, dErr)
		}
		return err
	}

	if err = scope.Commit(); err != nil {
		return errors.Join(err, scope.Dispose())
	}
	return scope.Dispose()
}

// root is the state shared by a root scope and every scope that joined it.
type root struct {
	mu           sync.Mutex
	manager      *Manager
	ctx          context.Context
	uow          *unitOfWork
	stack        []*Scope
	rollbackOnly bool
	finished     bool
	started      time.Time
}

func (r *root) join(mode TransactionMode) (*Scope, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return nil, false
	}
	s := &Scope{root: r, mode: mode}
	r.stack = append(r.stack, s)
	return s, true
}

// finish ends the transactions. Called with r.mu held.
func (r *root) finish(commit bool) error {
	r.finished = true
	m := r.manager
	sessions := r.uow.sessionCount()

	var outcome string
	var errs []error
	if commit {
		if err := r.uow.commit(); err != nil {
			outcome = OutcomeCommitFailed
			errs = append(errs, err)
		} else {
			outcome = OutcomeCommitted
		}
	} else {
		outcome = OutcomeRolledBack
		if err := r.uow.rollback(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.uow.close(); err != nil {
		errs = append(errs, err)
	}

	elapsed := time.Since(r.started)
	m.metrics.RecordScopeOutcome(outcome, elapsed)

	fields := []logger.Field{
		logger.String("outcome", outcome),
		logger.Int("sessions", sessions),
		logger.Duration("duration", elapsed),
	}
	err := errors.Join(errs...)
	switch {
	case err != nil:
		m.logger.Error(r.ctx, "unit of work failed to complete", append(fields, logger.WithError(err))...)
	case outcome == OutcomeRolledBack:
		m.logger.Warn(r.ctx, "unit of work rolled back", fields...)
	default:
		m.logger.Debug(r.ctx, "unit of work committed", fields...)
	}
	return err
}

// Scope is one participant of a unit of work. Only the root scope ends the
// transactions; joined scopes vote by committing or not.
type Scope struct {
	root      *root
	mode      TransactionMode
	isRoot    bool
	committed bool
	disposed  bool
}

func (s *Scope) IsRoot() bool {
	return s != nil && s.isRoot
}

func (s *Scope) Mode() TransactionMode {
	return s.mode
}

// Commit marks the scope as successful. Nothing is written until the root
// scope is disposed, and only if every joined scope committed too.
func (s *Scope) Commit() error {
	if s == nil {
		return newStateError("commit", ErrNoScope)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	if s.disposed || s.root.finished {
		return newStateError("commit", ErrScopeDisposed)
	}
	if s.committed {
		return newStateError("commit", ErrAlreadyCommitted)
	}
	s.committed = true
	return nil
}

// Dispose leaves the scope. A scope that did not commit dooms the whole unit
// of work. Disposing the root commits or rolls back every transaction and
// closes the sessions; a committed root that had to roll back because of a
// joined scope reports ErrRolledBack. Calling Dispose again, or on a nil
// scope, does nothing.
func (s *Scope) Dispose() error {
	if s == nil {
		return nil
	}
	r := s.root
	r.mu.Lock()

	if s.disposed {
		r.mu.Unlock()
		return nil
	}
	s.disposed = true
	if r.finished {
		r.mu.Unlock()
		return nil
	}

	var orderErr error
	idx := slices.Index(r.stack, s)
	if idx != len(r.stack)-1 {
		orderErr = newStateError("dispose", ErrOutOfOrder)
		r.rollbackOnly = true
		r.manager.logger.Warn(r.ctx, "unit of work scope disposed out of order",
			logger.Int("depth", idx),
			logger.Int("open_scopes", len(r.stack)),
		)
	}
	if idx >= 0 {
		r.stack = slices.Delete(r.stack, idx, idx+1)
	}
	if !s.committed {
		r.rollbackOnly = true
	}

	if !s.isRoot {
		r.mu.Unlock()
		return orderErr
	}

	err := r.finish(s.committed && !r.rollbackOnly)
	if err == nil && s.committed && r.rollbackOnly {
		err = newStateError("dispose", ErrRolledBack)
	}
	committed := err == nil && s.committed
	r.mu.Unlock()

	if committed {
		r.uow.runHooks(r.ctx)
	}
	return errors.Join(orderErr, err)
}

// AfterCommit registers fn to run once the root scope has committed. It is
// dropped if the unit of work rolls back.
func (s *Scope) AfterCommit(fn func(ctx context.Context)) error {
	if s == nil {
		return newStateError("after commit", ErrNoScope)
	}
	s.root.mu.Lock()
	finished := s.disposed || s.root.finished
	s.root.mu.Unlock()
	if finished {
		return newStateError("after commit", ErrScopeDisposed)
	}
	s.root.uow.afterCommit(fn)
	return nil
}

// Session returns the session of the factory mapping t, opening it and
// beginning its transaction on first use.
func (s *Scope) Session(ctx context.Context, t reflect.Type) (Session, error) {
	if s == nil {
		return nil, newStateError("session", ErrNoScope)
	}
	s.root.mu.Lock()
	disposed := s.disposed
	s.root.mu.Unlock()
	if disposed {
		return nil, newStateError("session", ErrScopeDisposed)
	}
	session, err := s.root.uow.sessionFor(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("session for %s: %w", typeName(EntityType(t)), err)
	}
	return session, nil
}
