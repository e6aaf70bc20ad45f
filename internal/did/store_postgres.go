package did

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

// PostgresStore persists DID assignments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed DID store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed DID store bound to a transaction.
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

func (s *PostgresStore) Create(ctx context.Context, assignment Assignment) error {
	query := `
		INSERT INTO did_assignments (owner_type, owner_id, did, assigned_by, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_type, owner_id) DO NOTHING
		RETURNING did
	`
	var stored string
	err := s.execer().QueryRowContext(ctx, query,
		string(assignment.OwnerType),
		assignment.OwnerID,
		assignment.DID,
		uuid.UUID(assignment.AssignedBy),
		assignment.AssignedAt,
	).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create did assignment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, assignment Assignment) error {
	query := `
		INSERT INTO did_assignments (owner_type, owner_id, did, assigned_by, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_type, owner_id)
		DO UPDATE SET did = EXCLUDED.did, assigned_by = EXCLUDED.assigned_by, assigned_at = EXCLUDED.assigned_at
	`
	_, err := s.execer().ExecContext(ctx, query,
		string(assignment.OwnerType),
		assignment.OwnerID,
		assignment.DID,
		uuid.UUID(assignment.AssignedBy),
		assignment.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert did assignment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID) (Assignment, error) {
	query := `
		SELECT owner_type, owner_id, did, assigned_by, assigned_at
		FROM did_assignments
		WHERE owner_type = $1 AND owner_id = $2
	`
	var (
		assignment Assignment
		rawType    string
		rawBy      uuid.UUID
	)
	err := s.execer().QueryRowContext(ctx, query, string(ownerType), ownerID).Scan(
		&rawType,
		&assignment.OwnerID,
		&assignment.DID,
		&rawBy,
		&assignment.AssignedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, sentinel.ErrNotFound
		}
		return Assignment{}, fmt.Errorf("find did assignment: %w", err)
	}
	assignment.OwnerType = OwnerType(rawType)
	assignment.AssignedBy = id.UserID(rawBy)
	return assignment, nil
}

func (s *PostgresStore) DeleteByOwner(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID) error {
	query := `DELETE FROM did_assignments WHERE owner_type = $1 AND owner_id = $2`
	if _, err := s.execer().ExecContext(ctx, query, string(ownerType), ownerID); err != nil {
		return fmt.Errorf("delete did assignment: %w", err)
	}
	return nil
}
