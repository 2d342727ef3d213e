package data

import (
	"errors"
	"fmt"
	"reflect"
)

// Error kinds. Every typed error below unwraps to one of them.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrLookup        = errors.New("lookup error")
	ErrState         = errors.New("state error")
)

var (
	ErrNotFound  = errors.New("entity not found")
	ErrNotUnique = errors.New("sequence contains more than one element")

	ErrNoScope          = errors.New("no unit of work scope found")
	ErrScopeDisposed    = errors.New("unit of work scope already disposed")
	ErrAlreadyCommitted = errors.New("unit of work scope already committed")
	ErrOutOfOrder       = errors.New("unit of work scope disposed out of stack order")
	ErrRolledBack       = errors.New("unit of work rolled back: a joined scope did not commit")
)

// ConfigurationError reports a missing or invalid registration.
type ConfigurationError struct {
	Component string
	Reason    string
	Err       error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Component, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

func newConfigurationError(component, reason string, err error) error {
	return &ConfigurationError{Component: component, Reason: reason, Err: err}
}

// NewConfigurationError is used by backends to report mapping problems.
func NewConfigurationError(component, reason string, err error) error {
	return newConfigurationError(component, reason, err)
}

// LookupError reports an entity type no session factory was registered for.
type LookupError struct {
	Type reflect.Type
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: no session factory has been registered for %s", ErrLookup, typeName(e.Type))
}

func (e *LookupError) Unwrap() error {
	return ErrLookup
}

// StateError reports an operation attempted in the wrong scope state.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrState, e.Op, e.Err)
}

func (e *StateError) Unwrap() []error {
	return []error{ErrState, e.Err}
}

func newStateError(op string, err error) error {
	return &StateError{Op: op, Err: err}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
