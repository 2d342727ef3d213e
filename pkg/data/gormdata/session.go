package gormdata

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DioGolang/GoCommon/pkg/data"
	"gorm.io/gorm"
)

var errTxInProgress = errors.New("gorm session already has a transaction")

type Session struct {
	db *gorm.DB
	tx *gorm.DB
}

func (s *Session) Begin(ctx context.Context, opts data.TxOptions) (data.Transaction, error) {
	if s.tx != nil {
		return nil, errTxInProgress
	}
	tx := s.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly})
	if tx.Error != nil {
		return nil, tx.Error
	}
	s.tx = tx
	return &transaction{session: s, tx: tx}, nil
}

// DB is the handle repositories must use: the open transaction when there
// is one.
func (s *Session) DB() *gorm.DB {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Session) Close() error {
	s.tx = nil
	return nil
}

type transaction struct {
	session *Session
	tx      *gorm.DB
}

func (t *transaction) Commit() error {
	defer t.release()
	return t.tx.Commit().Error
}

func (t *transaction) Rollback() error {
	defer t.release()
	return t.tx.Rollback().Error
}

func (t *transaction) release() {
	if t.session.tx == t.tx {
		t.session.tx = nil
	}
}
