package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore implements every minor-entity interface against PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed store bound to a transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, name, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var storedID uuid.UUID
	err := s.execer().QueryRowContext(ctx, query,
		uuid.UUID(user.ID), user.Email, user.Name, user.Role, user.CreatedAt,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	var (
		user  User
		rawID uuid.UUID
	)
	err := s.execer().QueryRowContext(ctx,
		`SELECT id, email, name, role, created_at FROM users WHERE id = $1`,
		uuid.UUID(userID),
	).Scan(&rawID, &user.Email, &user.Name, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.ID = id.UserID(rawID)
	return &user, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	result, err := s.execer().ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresCandidates implements CandidateStore against PostgreSQL.
type PostgresCandidates struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgresCandidates(db *sql.DB) *PostgresCandidates {
	return &PostgresCandidates{db: db}
}

func NewPostgresCandidatesTx(tx *sql.Tx) *PostgresCandidates {
	return &PostgresCandidates{tx: tx}
}

func (s *PostgresCandidates) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresCandidates) Create(ctx context.Context, candidate *Candidate) error {
	query := `
		INSERT INTO candidates (id, user_id, team_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var storedID uuid.UUID
	err := s.execer().QueryRowContext(ctx, query,
		uuid.UUID(candidate.ID), uuid.UUID(candidate.UserID), uuid.UUID(candidate.TeamID), candidate.CreatedAt,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

func (s *PostgresCandidates) FindByID(ctx context.Context, candidateID id.CandidateID) (*Candidate, error) {
	var (
		candidate Candidate
		rawID     uuid.UUID
		rawUser   uuid.UUID
		rawTeam   uuid.UUID
	)
	err := s.execer().QueryRowContext(ctx,
		`SELECT id, user_id, team_id, created_at FROM candidates WHERE id = $1`,
		uuid.UUID(candidateID),
	).Scan(&rawID, &rawUser, &rawTeam, &candidate.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	candidate.ID = id.CandidateID(rawID)
	candidate.UserID = id.UserID(rawUser)
	candidate.TeamID = id.TeamID(rawTeam)
	return &candidate, nil
}

func (s *PostgresCandidates) FindByUser(ctx context.Context, userID id.UserID) (*Candidate, error) {
	var (
		candidate Candidate
		rawID     uuid.UUID
		rawUser   uuid.UUID
		rawTeam   uuid.UUID
	)
	err := s.execer().QueryRowContext(ctx,
		`SELECT id, user_id, team_id, created_at FROM candidates WHERE user_id = $1`,
		uuid.UUID(userID),
	).Scan(&rawID, &rawUser, &rawTeam, &candidate.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	candidate.ID = id.CandidateID(rawID)
	candidate.UserID = id.UserID(rawUser)
	candidate.TeamID = id.TeamID(rawTeam)
	return &candidate, nil
}

func (s *PostgresCandidates) Delete(ctx context.Context, candidateID id.CandidateID) error {
	result, err := s.execer().ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, uuid.UUID(candidateID))
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresPipelines implements PipelineStore against PostgreSQL.
type PostgresPipelines struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgresPipelines(db *sql.DB) *PostgresPipelines {
	return &PostgresPipelines{db: db}
}

func NewPostgresPipelinesTx(tx *sql.Tx) *PostgresPipelines {
	return &PostgresPipelines{tx: tx}
}

func (s *PostgresPipelines) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresPipelines) Create(ctx context.Context, pipeline *Pipeline) error {
	query := `
		INSERT INTO pipelines (id, owner_id, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var storedID uuid.UUID
	err := s.execer().QueryRowContext(ctx, query,
		uuid.UUID(pipeline.ID), uuid.UUID(pipeline.OwnerID), pipeline.Name, pipeline.CreatedAt,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create pipeline: %w", err)
	}
	return nil
}

func (s *PostgresPipelines) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*Pipeline, error) {
	rows, err := s.execer().QueryContext(ctx,
		`SELECT id, owner_id, name, created_at FROM pipelines WHERE owner_id = $1`,
		uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	var pipelines []*Pipeline
	for rows.Next() {
		var (
			pipeline Pipeline
			rawID    uuid.UUID
			rawOwner uuid.UUID
		)
		if err := rows.Scan(&rawID, &rawOwner, &pipeline.Name, &pipeline.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}
		pipeline.ID = id.PipelineID(rawID)
		pipeline.OwnerID = id.UserID(rawOwner)
		pipelines = append(pipelines, &pipeline)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pipelines: %w", err)
	}
	return pipelines, nil
}

func (s *PostgresPipelines) AddMembership(ctx context.Context, membership PipelineMembership) error {
	_, err := s.execer().ExecContext(ctx,
		`INSERT INTO pipeline_memberships (pipeline_id, candidate_id, stage, added_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(membership.PipelineID), uuid.UUID(membership.CandidateID), membership.Stage, membership.AddedAt)
	if err != nil {
		return fmt.Errorf("add pipeline membership: %w", err)
	}
	return nil
}

// DeleteAll removes the given pipelines and their membership rows in two bulk
// statements. A single ANY($1) sweep per table keeps the delete count
// independent of how many pipelines a recruiter owns.
func (s *PostgresPipelines) DeleteAll(ctx context.Context, pipelineIDs []id.PipelineID) (int, error) {
	if len(pipelineIDs) == 0 {
		return 0, nil
	}
	raw := make([]uuid.UUID, len(pipelineIDs))
	for i, pipelineID := range pipelineIDs {
		raw[i] = uuid.UUID(pipelineID)
	}

	if _, err := s.execer().ExecContext(ctx,
		`DELETE FROM pipeline_memberships WHERE pipeline_id = ANY($1)`, pq.Array(raw)); err != nil {
		return 0, fmt.Errorf("delete pipeline memberships: %w", err)
	}
	result, err := s.execer().ExecContext(ctx,
		`DELETE FROM pipelines WHERE id = ANY($1)`, pq.Array(raw))
	if err != nil {
		return 0, fmt.Errorf("delete pipelines: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete pipelines: %w", err)
	}
	return int(affected), nil
}

func (s *PostgresPipelines) RemoveCandidate(ctx context.Context, candidateID id.CandidateID) error {
	if _, err := s.execer().ExecContext(ctx,
		`DELETE FROM pipeline_memberships WHERE candidate_id = $1`, uuid.UUID(candidateID)); err != nil {
		return fmt.Errorf("remove candidate from pipelines: %w", err)
	}
	return nil
}

// PostgresActivity implements ActivityStore against PostgreSQL.
type PostgresActivity struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgresActivity(db *sql.DB) *PostgresActivity {
	return &PostgresActivity{db: db}
}

func NewPostgresActivityTx(tx *sql.Tx) *PostgresActivity {
	return &PostgresActivity{tx: tx}
}

func (s *PostgresActivity) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresActivity) Append(ctx context.Context, entry *ActivityEntry) error {
	err := s.execer().QueryRowContext(ctx,
		`INSERT INTO activity_log (user_id, action, created_at) VALUES ($1, $2, $3) RETURNING id`,
		uuid.UUID(entry.UserID), entry.Action, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (s *PostgresActivity) ListByUser(ctx context.Context, userID id.UserID) ([]ActivityEntry, error) {
	rows, err := s.execer().QueryContext(ctx,
		`SELECT id, user_id, action, created_at FROM activity_log WHERE user_id = $1 ORDER BY id`,
		uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var (
			entry   ActivityEntry
			rawUser uuid.UUID
		)
		if err := rows.Scan(&entry.ID, &rawUser, &entry.Action, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entry.UserID = id.UserID(rawUser)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return entries, nil
}

func (s *PostgresActivity) DeleteByUser(ctx context.Context, userID id.UserID) error {
	if _, err := s.execer().ExecContext(ctx,
		`DELETE FROM activity_log WHERE user_id = $1`, uuid.UUID(userID)); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// PostgresQuizzes implements QuizStore against PostgreSQL.
type PostgresQuizzes struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgresQuizzes(db *sql.DB) *PostgresQuizzes {
	return &PostgresQuizzes{db: db}
}

func NewPostgresQuizzesTx(tx *sql.Tx) *PostgresQuizzes {
	return &PostgresQuizzes{tx: tx}
}

func (s *PostgresQuizzes) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresQuizzes) Append(ctx context.Context, attempt *QuizAttempt) error {
	err := s.execer().QueryRowContext(ctx,
		`INSERT INTO quiz_attempts (candidate_id, quiz_name, score, taken_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		uuid.UUID(attempt.CandidateID), attempt.QuizName, attempt.Score, attempt.TakenAt).Scan(&attempt.ID)
	if err != nil {
		return fmt.Errorf("append quiz attempt: %w", err)
	}
	return nil
}

func (s *PostgresQuizzes) ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]QuizAttempt, error) {
	rows, err := s.execer().QueryContext(ctx,
		`SELECT id, candidate_id, quiz_name, score, taken_at FROM quiz_attempts WHERE candidate_id = $1 ORDER BY id`,
		uuid.UUID(candidateID))
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	defer rows.Close()

	var attempts []QuizAttempt
	for rows.Next() {
		var (
			attempt      QuizAttempt
			rawCandidate uuid.UUID
		)
		if err := rows.Scan(&attempt.ID, &rawCandidate, &attempt.QuizName, &attempt.Score, &attempt.TakenAt); err != nil {
			return nil, fmt.Errorf("scan quiz attempt: %w", err)
		}
		attempt.CandidateID = id.CandidateID(rawCandidate)
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz attempts: %w", err)
	}
	return attempts, nil
}

func (s *PostgresQuizzes) DeleteByCandidate(ctx context.Context, candidateID id.CandidateID) error {
	if _, err := s.execer().ExecContext(ctx,
		`DELETE FROM quiz_attempts WHERE candidate_id = $1`, uuid.UUID(candidateID)); err != nil {
		return fmt.Errorf("delete quiz attempts: %w", err)
	}
	return nil
}
