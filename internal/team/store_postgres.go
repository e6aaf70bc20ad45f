package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "credtrust/pkg/domain"
	"credtrust/pkg/platform/sentinel"
)

// PostgresStore persists teams and memberships in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed team store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed team store bound to a transaction.
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

func (s *PostgresStore) CreateTeam(ctx context.Context, team *Team) error {
	query := `
		INSERT INTO teams (id, creator_id, name, personal, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
		RETURNING id
	`
	var storedID uuid.UUID
	err := s.execer().QueryRowContext(ctx, query,
		uuid.UUID(team.ID),
		uuid.UUID(team.CreatorID),
		team.Name,
		team.Personal,
		team.CreatedAt,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindTeam(ctx context.Context, teamID id.TeamID) (*Team, error) {
	query := `SELECT id, creator_id, name, personal, created_at FROM teams WHERE id = $1`
	team, err := scanTeam(s.execer().QueryRowContext(ctx, query, uuid.UUID(teamID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find team: %w", err)
	}
	return team, nil
}

func (s *PostgresStore) FindPersonalTeam(ctx context.Context, creatorID id.UserID) (*Team, error) {
	query := `SELECT id, creator_id, name, personal, created_at FROM teams WHERE creator_id = $1 AND personal = TRUE`
	team, err := scanTeam(s.execer().QueryRowContext(ctx, query, uuid.UUID(creatorID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find personal team: %w", err)
	}
	return team, nil
}

func (s *PostgresStore) TeamsCreatedBy(ctx context.Context, creatorID id.UserID) ([]*Team, error) {
	query := `SELECT id, creator_id, name, personal, created_at FROM teams WHERE creator_id = $1`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(creatorID))
	if err != nil {
		return nil, fmt.Errorf("list teams by creator: %w", err)
	}
	defer rows.Close()

	var teams []*Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}

func (s *PostgresStore) DeleteTeam(ctx context.Context, teamID id.TeamID) error {
	if _, err := s.execer().ExecContext(ctx, `DELETE FROM team_memberships WHERE team_id = $1`, uuid.UUID(teamID)); err != nil {
		return fmt.Errorf("delete team memberships: %w", err)
	}
	result, err := s.execer().ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, uuid.UUID(teamID))
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddMembership(ctx context.Context, membership Membership) error {
	query := `
		INSERT INTO team_memberships (team_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, user_id) DO NOTHING
		RETURNING team_id
	`
	var storedID uuid.UUID
	err := s.execer().QueryRowContext(ctx, query,
		uuid.UUID(membership.TeamID),
		uuid.UUID(membership.UserID),
		membership.Role,
		membership.JoinedAt,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("add membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveMembership(ctx context.Context, teamID id.TeamID, userID id.UserID) error {
	result, err := s.execer().ExecContext(ctx,
		`DELETE FROM team_memberships WHERE team_id = $1 AND user_id = $2`,
		uuid.UUID(teamID), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("remove membership: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove membership: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RemoveMembershipsByUser(ctx context.Context, userID id.UserID) error {
	if _, err := s.execer().ExecContext(ctx,
		`DELETE FROM team_memberships WHERE user_id = $1`, uuid.UUID(userID)); err != nil {
		return fmt.Errorf("remove memberships by user: %w", err)
	}
	return nil
}

func (s *PostgresStore) MembershipsByUser(ctx context.Context, userID id.UserID) ([]Membership, error) {
	query := `SELECT team_id, user_id, role, joined_at FROM team_memberships WHERE user_id = $1`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		var (
			membership Membership
			rawTeam    uuid.UUID
			rawUser    uuid.UUID
		)
		if err := rows.Scan(&rawTeam, &rawUser, &membership.Role, &membership.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		membership.TeamID = id.TeamID(rawTeam)
		membership.UserID = id.UserID(rawUser)
		memberships = append(memberships, membership)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return memberships, nil
}

func (s *PostgresStore) RoleOf(ctx context.Context, teamID id.TeamID, userID id.UserID) (string, error) {
	var role string
	err := s.execer().QueryRowContext(ctx,
		`SELECT role FROM team_memberships WHERE team_id = $1 AND user_id = $2`,
		uuid.UUID(teamID), uuid.UUID(userID)).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("find membership role: %w", err)
	}
	return role, nil
}

func (s *PostgresStore) MemberCount(ctx context.Context, teamID id.TeamID) (int, error) {
	var count int
	err := s.execer().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM team_memberships WHERE team_id = $1`, uuid.UUID(teamID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (*Team, error) {
	var (
		team       Team
		rawID      uuid.UUID
		rawCreator uuid.UUID
	)
	if err := row.Scan(&rawID, &rawCreator, &team.Name, &team.Personal, &team.CreatedAt); err != nil {
		return nil, err
	}
	team.ID = id.TeamID(rawID)
	team.CreatorID = id.UserID(rawCreator)
	return &team, nil
}
