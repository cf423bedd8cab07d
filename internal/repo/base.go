package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by the costume, customer and rental repositories. It holds
// either the root connection or a transaction handed over by WithTx.
type Base struct {
	db *gorm.DB
}

// NewBase wraps a connection or an open transaction.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle scoped to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
