package aggregates

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/pkg/dbctx"
)

var errNilRunner = errors.New("tx runner: nil db")

// TxRunner runs multi-row writes in one transaction. Repos called from fn
// must be handed the dbctx it receives.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
	// InTxRetry reruns fn in a fresh transaction while it fails with a
	// unique-constraint violation, up to tries runs in total.
	InTxRetry(ctx context.Context, tries int, fn func(dbc dbctx.Context) error) error
}

type txRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &txRunner{db: db}
}

func (r *txRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r == nil || r.db == nil {
		return errNilRunner
	}
	if fn == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

func (r *txRunner) InTxRetry(ctx context.Context, tries int, fn func(dbc dbctx.Context) error) error {
	if tries < 1 {
		tries = 1
	}
	var err error
	for i := 0; i < tries; i++ {
		if err = r.InTx(ctx, fn); err == nil || !IsDuplicate(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
