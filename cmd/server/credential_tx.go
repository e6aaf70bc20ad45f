package main

import (
	"context"
	"database/sql"
	"time"

	credstore "credtrust/internal/credential/store"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
)

const defaultCredentialTxTimeout = 5 * time.Second

// credentialPostgresTx runs lifecycle transitions inside a database
// transaction. Row-level isolation serializes concurrent transitions on the
// same credential; the ID argument only matters to the in-memory variant.
type credentialPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newCredentialPostgresTx(db *sql.DB) *credentialPostgresTx {
	return &credentialPostgresTx{db: db}
}

func (t *credentialPostgresTx) RunInTx(ctx context.Context, _ id.CredentialID, fn func(credstore.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultCredentialTxTimeout
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

	if err := fn(credstore.NewPostgresTx(tx)); err != nil {
		return err
	}

	return tx.Commit()
}
