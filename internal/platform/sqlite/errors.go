package sqlite

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskpulse-api/internal/store"
	"gorm.io/gorm"
)

// mapError translates gorm errors into store errors. notFound replaces
// gorm.ErrRecordNotFound so callers see the entity-specific error.
func mapError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: foreign key violation: %v", store.ErrInvalidEntity, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: check constraint violation: %v", store.ErrInvalidEntity, err)
	}
	return err
}
