package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"credtrust/internal/credential/models"
	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

// PostgresStore persists credentials in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed credential store bound to a transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, credential *models.Credential) error {
	if credential == nil {
		return fmt.Errorf("credential is required")
	}
	query := `
		INSERT INTO credentials (id, candidate_id, category, title, sub_type, file_ref, issuer_id, status, verified, vc_payload, verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var storedID uuid.UUID
	err := s.execer().QueryRowContext(ctx, query,
		uuid.UUID(credential.ID),
		uuid.UUID(credential.CandidateID),
		string(credential.Category),
		credential.Title,
		credential.SubType,
		nullString(credential.FileRef),
		issuerArg(credential.IssuerID),
		string(credential.Status),
		credential.Status == models.StatusVerified,
		nullBytes(credential.VCPayload),
		credential.VerifiedAt,
		credential.CreatedAt,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error) {
	query := selectCredential + ` WHERE id = $1`
	credential, err := scanCredential(s.execer().QueryRowContext(ctx, query, uuid.UUID(credentialID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return credential, nil
}

func (s *PostgresStore) ListByCandidate(ctx context.Context, candidateID id.CandidateID, filter *models.ListFilter) ([]*models.Credential, error) {
	query := selectCredential + ` WHERE candidate_id = $1`
	args := []any{uuid.UUID(candidateID)}

	if filter != nil {
		if filter.Category != nil {
			args = append(args, string(*filter.Category))
			query += fmt.Sprintf(" AND category = $%d", len(args))
		}
		if filter.Status != nil {
			args = append(args, string(*filter.Status))
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
	}

	query += orderClause(filter)

	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var credentials []*models.Credential
	for rows.Next() {
		credential, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		credentials = append(credentials, credential)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return credentials, nil
}

func (s *PostgresStore) ListIDsByIssuer(ctx context.Context, issuerID id.IssuerID) ([]id.CredentialID, error) {
	query := `SELECT id FROM credentials WHERE issuer_id = $1`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(issuerID))
	if err != nil {
		return nil, fmt.Errorf("list credential ids: %w", err)
	}
	defer rows.Close()

	var ids []id.CredentialID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan credential id: %w", err)
		}
		ids = append(ids, id.CredentialID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential ids: %w", err)
	}
	return ids, nil
}

// UpdateStatus applies a status change as one statement. The verified column
// is derived from the new status here, never passed in, so the two cannot
// disagree at rest.
func (s *PostgresStore) UpdateStatus(ctx context.Context, credentialID id.CredentialID, change models.StatusChange) error {
	query := `
		UPDATE credentials
		SET status = $2,
		    verified = $3,
		    verified_at = $4,
		    vc_payload = COALESCE($5, vc_payload),
		    issuer_id = CASE WHEN $6 THEN NULL ELSE issuer_id END
		WHERE id = $1
	`
	result, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(credentialID),
		string(change.Status),
		change.Status == models.StatusVerified,
		change.VerifiedAt,
		nullBytes(change.VCPayload),
		change.ClearIssuer,
	)
	if err != nil {
		return fmt.Errorf("update credential status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ResetByIssuer(ctx context.Context, issuerID id.IssuerID) (int, error) {
	query := `
		UPDATE credentials
		SET issuer_id = NULL,
		    status = $2,
		    verified = FALSE,
		    verified_at = NULL
		WHERE issuer_id = $1
	`
	result, err := s.execer().ExecContext(ctx, query, uuid.UUID(issuerID), string(models.StatusUnverified))
	if err != nil {
		return 0, fmt.Errorf("reset credentials by issuer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset credentials by issuer: %w", err)
	}
	return int(affected), nil
}

func (s *PostgresStore) DeleteByCandidate(ctx context.Context, candidateID id.CandidateID) error {
	query := `DELETE FROM credentials WHERE candidate_id = $1`
	if _, err := s.execer().ExecContext(ctx, query, uuid.UUID(candidateID)); err != nil {
		return fmt.Errorf("delete credentials by candidate: %w", err)
	}
	return nil
}

const selectCredential = `
	SELECT id, candidate_id, category, title, sub_type, file_ref, issuer_id, status, verified, vc_payload, verified_at, created_at
	FROM credentials
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	var (
		credential models.Credential
		rawID      uuid.UUID
		rawCand    uuid.UUID
		category   string
		status     string
		fileRef    sql.NullString
		rawIssuer  uuid.NullUUID
		payload    []byte
	)
	err := row.Scan(
		&rawID,
		&rawCand,
		&category,
		&credential.Title,
		&credential.SubType,
		&fileRef,
		&rawIssuer,
		&status,
		&credential.Verified,
		&payload,
		&credential.VerifiedAt,
		&credential.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	credential.ID = id.CredentialID(rawID)
	credential.CandidateID = id.CandidateID(rawCand)
	credential.Category = models.Category(category)
	credential.Status = models.Status(status)
	if fileRef.Valid {
		credential.FileRef = fileRef.String
	}
	if rawIssuer.Valid {
		issuerID := id.IssuerID(rawIssuer.UUID)
		credential.IssuerID = &issuerID
	}
	if len(payload) > 0 {
		credential.VCPayload = payload
	}
	return &credential, nil
}

func orderClause(filter *models.ListFilter) string {
	field := models.SortByCreatedAt
	direction := "ASC"
	if filter != nil {
		switch filter.SortBy {
		case models.SortByTitle, models.SortByVerifiedAt, models.SortByCreatedAt:
			field = filter.SortBy
		}
		if filter.SortDesc {
			direction = "DESC"
		}
	}
	return fmt.Sprintf(" ORDER BY %s %s", string(field), direction)
}

func issuerArg(issuerID *id.IssuerID) uuid.NullUUID {
	if issuerID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*issuerID), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
