//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"credtrust/migrations"
	id "credtrust/pkg/domain"
)

// PostgresContainer wraps a testcontainers Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container with migrations applied.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("credtrust_test"),
		postgres.WithUsername("credtrust"),
		postgres.WithPassword("credtrust_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	pc := &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}

	if err := pc.runMigrations(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Note: We don't register t.Cleanup here because the container is managed
	// by the singleton Manager and shared across test suites. Ryuk (testcontainers'
	// cleanup sidecar) handles container cleanup when the test process exits.

	return pc
}

// runMigrations executes all *.sql migrations from the embedded migrations.FS
// in lexical order.
func (p *PostgresContainer) runMigrations(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(migrations.FS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		if _, err := p.DB.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", file, err)
		}
	}

	return nil
}

// TruncateTables clears all data from the specified tables.
// Use between tests to ensure isolation without restarting the container.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		_, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		if err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// TruncateModuleTables truncates all module tables for full integration test
// isolation. CASCADE handles foreign key dependencies.
func (p *PostgresContainer) TruncateModuleTables(ctx context.Context) error {
	tables := []string{
		"quiz_attempts",
		"activity_log",
		"pipeline_memberships",
		"pipelines",
		"credentials",
		"did_assignments",
		"issuers",
		"candidates",
		"team_memberships",
		"teams",
		"users",
	}
	return p.TruncateTables(ctx, tables...)
}

// Exec runs a SQL statement and returns the result.
func (p *PostgresContainer) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.DB.ExecContext(ctx, query, args...)
}

// QueryRow runs a SQL query expected to return a single row.
func (p *PostgresContainer) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.DB.QueryRowContext(ctx, query, args...)
}

// CreateTestUser inserts a user row and returns its ID.
func (p *PostgresContainer) CreateTestUser(ctx context.Context, t testing.TB, role string) id.UserID {
	t.Helper()
	userID := id.NewUserID()
	_, err := p.Exec(ctx, `
		INSERT INTO users (id, email, name, role)
		VALUES ($1, $2, 'Test User', $3)
	`, uuid.UUID(userID), "test-"+uuid.NewString()+"@example.com", role)
	if err != nil {
		t.Fatalf("CreateTestUser: %v", err)
	}
	return userID
}

// CreateTestTeam inserts a team row and returns its ID.
func (p *PostgresContainer) CreateTestTeam(ctx context.Context, t testing.TB, creatorID id.UserID, personal bool) id.TeamID {
	t.Helper()
	teamID := id.NewTeamID()
	_, err := p.Exec(ctx, `
		INSERT INTO teams (id, creator_id, name, personal)
		VALUES ($1, $2, $3, $4)
	`, uuid.UUID(teamID), uuid.UUID(creatorID), "Test Team "+uuid.NewString(), personal)
	if err != nil {
		t.Fatalf("CreateTestTeam: %v", err)
	}
	return teamID
}

// CreateTestCandidate inserts a candidate profile and returns its ID.
func (p *PostgresContainer) CreateTestCandidate(ctx context.Context, t testing.TB, userID id.UserID, teamID id.TeamID) id.CandidateID {
	t.Helper()
	candidateID := id.NewCandidateID()
	_, err := p.Exec(ctx, `
		INSERT INTO candidates (id, user_id, team_id)
		VALUES ($1, $2, $3)
	`, uuid.UUID(candidateID), uuid.UUID(userID), uuid.UUID(teamID))
	if err != nil {
		t.Fatalf("CreateTestCandidate: %v", err)
	}
	return candidateID
}

// CreateTestIssuer inserts an ACTIVE issuer owned by the given user and
// returns its ID.
func (p *PostgresContainer) CreateTestIssuer(ctx context.Context, t testing.TB, ownerID id.UserID) id.IssuerID {
	t.Helper()
	issuerID := id.NewIssuerID()
	_, err := p.Exec(ctx, `
		INSERT INTO issuers (id, owner_id, name, status, did)
		VALUES ($1, $2, 'Test Issuer', 'ACTIVE', 'did:key:test-issuer')
	`, uuid.UUID(issuerID), uuid.UUID(ownerID))
	if err != nil {
		t.Fatalf("CreateTestIssuer: %v", err)
	}
	return issuerID
}
