package issuer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

// PostgresStore persists issuers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed issuer store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed issuer store bound to a transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, issuer *Issuer) error {
	query := `
		INSERT INTO issuers (id, owner_id, name, status, rejection_reason, did, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var storedID uuid.UUID
	err := s.execer().QueryRowContext(ctx, query,
		uuid.UUID(issuer.ID),
		uuid.UUID(issuer.OwnerID),
		issuer.Name,
		string(issuer.Status),
		nullString(issuer.RejectionReason),
		nullString(issuer.DID),
		issuer.CreatedAt,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, issuerID id.IssuerID) (*Issuer, error) {
	query := selectIssuer + ` WHERE id = $1`
	issuer, err := scanIssuer(s.execer().QueryRowContext(ctx, query, uuid.UUID(issuerID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find issuer: %w", err)
	}
	return issuer, nil
}

func (s *PostgresStore) FindByOwner(ctx context.Context, ownerID id.UserID) (*Issuer, error) {
	query := selectIssuer + ` WHERE owner_id = $1`
	issuer, err := scanIssuer(s.execer().QueryRowContext(ctx, query, uuid.UUID(ownerID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find issuer by owner: %w", err)
	}
	return issuer, nil
}

func (s *PostgresStore) Update(ctx context.Context, issuer *Issuer) error {
	query := `
		UPDATE issuers
		SET status = $2, rejection_reason = $3, did = $4
		WHERE id = $1
	`
	result, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(issuer.ID),
		string(issuer.Status),
		nullString(issuer.RejectionReason),
		nullString(issuer.DID),
	)
	if err != nil {
		return fmt.Errorf("update issuer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update issuer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, issuerID id.IssuerID) error {
	result, err := s.execer().ExecContext(ctx, `DELETE FROM issuers WHERE id = $1`, uuid.UUID(issuerID))
	if err != nil {
		return fmt.Errorf("delete issuer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete issuer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectIssuer = `
	SELECT id, owner_id, name, status, rejection_reason, did, created_at
	FROM issuers
`

func scanIssuer(row *sql.Row) (*Issuer, error) {
	var (
		issuer    Issuer
		rawID     uuid.UUID
		rawOwner  uuid.UUID
		status    string
		reason    sql.NullString
		didString sql.NullString
	)
	err := row.Scan(&rawID, &rawOwner, &issuer.Name, &status, &reason, &didString, &issuer.CreatedAt)
	if err != nil {
		return nil, err
	}
	issuer.ID = id.IssuerID(rawID)
	issuer.OwnerID = id.UserID(rawOwner)
	issuer.Status = Status(status)
	issuer.RejectionReason = reason.String
	issuer.DID = didString.String
	return &issuer, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
