package container

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DioGolang/GoCommon/pkg/data"
)

var (
	ErrNotRegistered       = errors.New("service not registered")
	ErrAlreadyRegistered   = errors.New("service already registered")
	ErrCircularDependency  = errors.New("circular dependency")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrTypeMismatch        = errors.New("resolved value has the wrong type")
)

// ResolveError reports which key failed and the chain of keys that led to
// it. Registration and cycle problems also unwrap to data.ErrConfiguration.
type ResolveError struct {
	Key  Key
	Path []Key
	Err  error
}

func (e *ResolveError) Error() string {
	if len(e.Path) > 1 {
		parts := make([]string, len(e.Path))
		for i, k := range e.Path {
			parts[i] = string(k)
		}
		return fmt.Sprintf("resolve %s (%s): %s", e.Key, strings.Join(parts, " -> "), e.Err)
	}
	return fmt.Sprintf("resolve %s: %s", e.Key, e.Err)
}

func (e *ResolveError) Unwrap() []error {
	if errors.Is(e.Err, ErrNotRegistered) || errors.Is(e.Err, ErrCircularDependency) {
		return []error{e.Err, data.ErrConfiguration}
	}
	return []error{e.Err}
}

func registrationError(key Key, err error) error {
	return data.NewConfigurationError("container", string(key), err)
}
