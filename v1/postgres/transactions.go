package postgres

import (
	"context"

	"gorm.io/gorm"
)

// cloneWithTx returns a Postgres that shares configuration, logger and
// shutdown state with p but runs every statement on tx.
func (p *Postgres) cloneWithTx(tx *gorm.DB) *Postgres {
	clone := &Postgres{
		cfg:             p.cfg,
		logger:          p.logger,
		shutdownSignal:  p.shutdownSignal,
		retryChanSignal: p.retryChanSignal,
		shutdownOnce:    p.shutdownOnce,
		closeOnce:       p.closeOnce,
	}
	clone.client.Store(tx)
	return clone
}

// Transaction executes the given function within a database transaction.
// It creates a transaction-specific Postgres instance and passes it to the provided function.
// If the function returns an error, the transaction is rolled back; otherwise, it's committed.
//
// Example usage:
//
//	err := pg.Transaction(ctx, func(tx *postgres.Postgres) error {
//		if _, err := tx.Execute(ctx, "DELETE FROM docs WHERE namespace = ?", []any{"old"}); err != nil {
//			return err
//		}
//		_, err := tx.Execute(ctx, "UPDATE stats SET dirty = true", nil)
//		return err
//	})
func (p *Postgres) Transaction(ctx context.Context, fn func(tx *Postgres) error) error {
	return p.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(p.cloneWithTx(tx))
	})
}
