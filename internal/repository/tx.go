// Package repository holds the PostgreSQL implementations of the domain
// repository interfaces, backed by GORM.
package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxRunner executes units of work in database transactions. A nested call
// reuses the transaction already bound to the context, so a workflow and the
// billing writes it triggers commit or roll back together.
type TxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the ambient transaction when one is bound to the context,
// otherwise a session on the root connection.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
