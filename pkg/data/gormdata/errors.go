package gormdata

import (
	"errors"
	"fmt"

	"github.com/DioGolang/GoCommon/pkg/data"
	"gorm.io/gorm"
)

var ErrDuplicateKey = errors.New("duplicate key")

// mapError translates gorm errors into the data package's errors while
// keeping the original in the chain.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", data.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	default:
		return err
	}
}
