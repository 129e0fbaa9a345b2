package persistence

import (
	"errors"

	"github.com/japabox/storefront/internal/domain/shared"
	"gorm.io/gorm"
)

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound and leaves
// other errors untouched
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
