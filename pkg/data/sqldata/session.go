package sqldata

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DioGolang/GoCommon/pkg/data"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var errTxInProgress = errors.New("sql session already has a transaction")

// Session is a database/sql session: the pool plus, once begun, the
// transaction every statement of the unit of work runs in.
type Session struct {
	db      *sql.DB
	tx      *sql.Tx
	dialect Dialect
	mapper  *Mapper
}

func (s *Session) Begin(ctx context.Context, opts data.TxOptions) (data.Transaction, error) {
	if s.tx != nil {
		return nil, errTxInProgress
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, err
	}
	s.tx = tx
	return &transaction{session: s, tx: tx}, nil
}

func (s *Session) Close() error {
	s.tx = nil
	return nil
}

func (s *Session) Dialect() Dialect {
	return s.dialect
}

func (s *Session) querier() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

type transaction struct {
	session *Session
	tx      *sql.Tx
}

func (t *transaction) Commit() error {
	defer t.release()
	return t.tx.Commit()
}

func (t *transaction) Rollback() error {
	defer t.release()
	return t.tx.Rollback()
}

func (t *transaction) release() {
	if t.session.tx == t.tx {
		t.session.tx = nil
	}
}
