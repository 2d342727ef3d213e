package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// FilterScope decides when the unit of work of a request is committed.
type FilterScope int

const (
	// FilterScopeAction commits once the handler returns, before any byte of
	// the response is sent. The response is buffered so a failed commit can
	// still turn into a 500.
	FilterScopeAction FilterScope = iota
	// FilterScopeResult streams the response and commits after it was
	// written. A failed commit can only be logged.
	FilterScopeResult
)

func (s FilterScope) String() string {
	if s == FilterScopeResult {
		return "result"
	}
	return "action"
}

func ParseFilterScope(s string) (FilterScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "action":
		return FilterScopeAction, nil
	case "result":
		return FilterScopeResult, nil
	}
	return 0, fmt.Errorf("unknown unit of work filter scope %q", s)
}

type Options struct {
	Scope           FilterScope
	TransactionMode data.TransactionMode
}

type contextKey string

// ContextUnitOfWorkKey is the request context key the scope is stored under.
const ContextUnitOfWorkKey contextKey = "gocommon.unit_of_work"

var ErrNoUnitOfWork = errors.New("no unit of work in request context")

// CurrentUnitOfWork returns the scope UnitOfWork started for r.
func CurrentUnitOfWork(r *http.Request) (*data.Scope, error) {
	s, ok := r.Context().Value(ContextUnitOfWorkKey).(*data.Scope)
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: is the unit of work middleware mounted on %s %s?",
			ErrNoUnitOfWork, r.Method, r.URL.Path)
	}
	return s, nil
}

// UnitOfWork binds one data scope to each request it wraps.
type UnitOfWork struct {
	manager *data.Manager
	opts    Options
	logger  logger.Logger
}

func NewUnitOfWork(m *data.Manager, opts Options, log logger.Logger) *UnitOfWork {
	return &UnitOfWork{manager: m, opts: opts, logger: log}
}

// Start opens the scope of r and returns r carrying it.
func (u *UnitOfWork) Start(r *http.Request) (*http.Request, *data.Scope, error) {
	ctx, scope, err := u.manager.Start(r.Context(), data.WithTransactionMode(u.opts.TransactionMode))
	if err != nil {
		return r, nil, err
	}
	ctx = context.WithValue(ctx, ContextUnitOfWorkKey, scope)
	return r.WithContext(ctx), scope, nil
}

// CleanUp commits the scope of r when commit is set and disposes it either
// way. Without a commit, disposing rolls the scope back.
func (u *UnitOfWork) CleanUp(r *http.Request, commit bool) error {
	scope, err := CurrentUnitOfWork(r)
	if err != nil {
		return err
	}
	var commitErr error
	if commit {
		commitErr = scope.Commit()
	}
	return errors.Join(commitErr, scope.Dispose())
}

func (u *UnitOfWork) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, scope, err := u.Start(r)
		if err != nil {
			u.logger.Error(r.Context(), "Failed to start unit of work", logger.WithError(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		defer func() {
			if p := recover(); p != nil {
				if err := scope.Dispose(); err != nil {
					u.logger.Error(r.Context(), "Failed to roll back unit of work", logger.WithError(err))
				}
				panic(p)
			}
		}()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		if u.opts.Scope == FilterScopeResult {
			next.ServeHTTP(ww, r)
			if err := u.CleanUp(r, succeeded(ww.Status())); err != nil {
				u.logger.Error(r.Context(), "Unit of work failed after the response was sent",
					logger.Int("status", ww.Status()),
					logger.WithError(err),
				)
			}
			return
		}

		var body bytes.Buffer
		ww.Tee(&body)
		ww.Discard()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if err := u.CleanUp(r, succeeded(status)); err != nil {
			u.logger.Error(r.Context(), "Failed to commit unit of work", logger.WithError(err))
			for k := range w.Header() {
				w.Header().Del(k)
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(status)
		if _, err := body.WriteTo(w); err != nil {
			u.logger.Warn(r.Context(), "Failed to write buffered response", logger.WithError(err))
		}
	})
}

func succeeded(status int) bool {
	return status < http.StatusInternalServerError
}
