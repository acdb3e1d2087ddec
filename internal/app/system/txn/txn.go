// Package txn runs fetch-check-mutate sequences inside one GORM
// transaction.
package txn

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Run executes fn in a transaction bound to ctx, with an optional
// deadline. fn must use the tx it is given, never the outer db. A non-nil
// error from fn rolls the transaction back and is returned unchanged.
func Run(ctx context.Context, db *gorm.DB, timeout time.Duration, fn func(tx *gorm.DB) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.WithContext(ctx).Transaction(fn)
}
