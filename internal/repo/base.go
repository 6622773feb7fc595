package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the shared foundation embedded by the domain repositories.
// It owns the GORM handle so context binding and transaction rebinding
// work the same way everywhere.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Rebind returns a Base backed by the transaction handle. Repositories
// use it to implement WithTx so every query inside a settlement or
// refund joins the caller's transaction.
func (b Base) Rebind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}
