package data

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

type sessionEntry struct {
	key     uuid.UUID
	factory string
	session Session
	tx      Transaction
}

// unitOfWork is the transactional resource owned by a root scope: one
// session and one transaction per session factory touched while it is open.
type unitOfWork struct {
	mu       sync.Mutex
	resolver *Resolver
	opts     TxOptions
	onOpen   func(factory string)
	sessions map[uuid.UUID]*sessionEntry
	order    []*sessionEntry
	hooks    []func(context.Context)
	closed   bool
}

func newUnitOfWork(resolver *Resolver, opts TxOptions, onOpen func(string)) *unitOfWork {
	return &unitOfWork{
		resolver: resolver,
		opts:     opts,
		onOpen:   onOpen,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
}

// sessionFor returns the session of the factory mapping t, opening it and
// beginning its transaction on first use.
func (u *unitOfWork) sessionFor(ctx context.Context, t reflect.Type) (Session, error) {
	key, err := u.resolver.ResolveKeyFor(t)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil, newStateError("session", ErrScopeDisposed)
	}
	if entry, ok := u.sessions[key]; ok {
		return entry.session, nil
	}

	session, err := u.resolver.OpenSession(ctx, key)
	if err != nil {
		return nil, err
	}
	tx, err := session.Begin(ctx, u.opts)
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	entry := &sessionEntry{key: key, factory: u.resolver.FactoryName(key), session: session, tx: tx}
	u.sessions[key] = entry
	u.order = append(u.order, entry)
	if u.onOpen != nil {
		u.onOpen(entry.factory)
	}
	return session, nil
}

func (u *unitOfWork) afterCommit(fn func(context.Context)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hooks = append(u.hooks, fn)
}

// commit commits every transaction in the order the sessions were opened.
// The first failure rolls back whatever is still pending.
func (u *unitOfWork) commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	for i, entry := range u.order {
		if err := entry.tx.Commit(); err != nil {
			errs := []error{fmt.Errorf("commit %q: %w", entry.factory, err)}
			for _, rest := range u.order[i+1:] {
				if rbErr := rest.tx.Rollback(); rbErr != nil {
					errs = append(errs, fmt.Errorf("rollback %q: %w", rest.factory, rbErr))
				}
			}
			return errors.Join(errs...)
		}
	}
	return nil
}

func (u *unitOfWork) rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	var errs []error
	for i := len(u.order) - 1; i >= 0; i-- {
		entry := u.order[i]
		if err := entry.tx.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("rollback %q: %w", entry.factory, err))
		}
	}
	return errors.Join(errs...)
}

func (u *unitOfWork) close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.closed = true
	var errs []error
	for i := len(u.order) - 1; i >= 0; i-- {
		if err := u.order[i].session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session %q: %w", u.order[i].factory, err))
		}
	}
	return errors.Join(errs...)
}

func (u *unitOfWork) runHooks(ctx context.Context) {
	u.mu.Lock()
	hooks := u.hooks
	u.hooks = nil
	u.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx)
	}
}

func (u *unitOfWork) sessionCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.order)
}
