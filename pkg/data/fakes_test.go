package data

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

type customer struct{ ID int }
type order struct{ ID int }
type auditEntry struct{ ID int }

// journal records what happened to the transactions of a test.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type fakeFactory struct {
	name      string
	types     []reflect.Type
	journal   *journal
	opened    int
	openErr   error
	commitErr error
}

func (f *fakeFactory) Name() string                { return f.name }
func (f *fakeFactory) MappedTypes() []reflect.Type { return f.types }

func (f *fakeFactory) OpenSession(context.Context) (Session, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	f.journal.add(f.name + ":open")
	return &fakeSession{factory: f}, nil
}

func (f *fakeFactory) provider() FactoryProvider {
	return func() (SessionFactory, error) { return f, nil }
}

type fakeSession struct {
	factory *fakeFactory
	opts    TxOptions
}

func (s *fakeSession) Begin(_ context.Context, opts TxOptions) (Transaction, error) {
	s.opts = opts
	s.factory.journal.add(s.factory.name + ":begin")
	return &fakeTx{factory: s.factory}, nil
}

func (s *fakeSession) Close() error {
	s.factory.journal.add(s.factory.name + ":close")
	return nil
}

type fakeTx struct {
	factory *fakeFactory
}

func (t *fakeTx) Commit() error {
	if t.factory.commitErr != nil {
		t.factory.journal.add(t.factory.name + ":commit-failed")
		return t.factory.commitErr
	}
	t.factory.journal.add(t.factory.name + ":commit")
	return nil
}

func (t *fakeTx) Rollback() error {
	t.factory.journal.add(t.factory.name + ":rollback")
	return nil
}

func newFixture() (*Manager, *fakeFactory, *fakeFactory, *journal) {
	j := &journal{}
	orders := &fakeFactory{
		name:    "orders",
		types:   []reflect.Type{TypeOf[customer](), TypeOf[order]()},
		journal: j,
	}
	audit := &fakeFactory{
		name:    "audit",
		types:   []reflect.Type{TypeOf[auditEntry]()},
		journal: j,
	}
	r := NewResolver()
	if _, err := r.RegisterFactory(orders.provider()); err != nil {
		panic(err)
	}
	if _, err := r.RegisterFactory(audit.provider()); err != nil {
		panic(err)
	}
	return NewManager(r), orders, audit, j
}

var errBoom = errors.New("boom")
