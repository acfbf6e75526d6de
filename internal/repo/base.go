package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/techcreator/storefront/pkg/errors"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// First loads one row into dest. A missing row becomes a NOT_FOUND error
// carrying notFound as its message.
func (b Base) First(ctx context.Context, dest any, notFound string, query any, args ...any) error {
	err := b.DB(ctx).Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return err
}

// DeleteByID removes the row of model with the given id. Deleting nothing is a
// NOT_FOUND error.
func (b Base) DeleteByID(ctx context.Context, model any, id any, notFound string) error {
	res := b.DB(ctx).Delete(model, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return nil
}
