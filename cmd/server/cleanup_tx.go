package main

import (
	"context"
	"database/sql"
	"time"

	"credtrust/internal/cleanup"
	credstore "credtrust/internal/credential/store"
	"credtrust/internal/did"
	"credtrust/internal/issuer"
	"credtrust/internal/storage"
	"credtrust/internal/team"
	dErrors "credtrust/pkg/domain-errors"
)

const defaultCleanupTxTimeout = 10 * time.Second

// cleanupPostgresTx binds every store a cascade touches to one database
// transaction so the whole sweep commits or rolls back together.
type cleanupPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newCleanupPostgresTx(db *sql.DB) *cleanupPostgresTx {
	return &cleanupPostgresTx{db: db}
}

func (t *cleanupPostgresTx) RunInTx(ctx context.Context, fn func(cleanup.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultCleanupTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stores := cleanup.Stores{
		Credentials: credstore.NewPostgresTx(tx),
		Issuers:     issuer.NewPostgresTx(tx),
		DIDs:        did.NewPostgresTx(tx),
		Teams:       team.NewPostgresTx(tx),
		Users:       storage.NewPostgresTx(tx),
		Candidates:  storage.NewPostgresCandidatesTx(tx),
		Pipelines:   storage.NewPostgresPipelinesTx(tx),
		Activity:    storage.NewPostgresActivityTx(tx),
		Quizzes:     storage.NewPostgresQuizzesTx(tx),
	}
	if err := fn(stores); err != nil {
		return err
	}

	return tx.Commit()
}
