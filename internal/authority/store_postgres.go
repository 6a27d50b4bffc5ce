package authority

import (
	"context"
	"database/sql"
	"fmt"

	"custodia/pkg/platform/sentinel"
)

// PostgresStore persists role grants in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS role_grants (
	role  TEXT NOT NULL,
	actor TEXT NOT NULL,
	PRIMARY KEY (role, actor)
);
`

// EnsureSchema applies the role grants schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure authority schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Grant(ctx context.Context, role Role, actor string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO role_grants (role, actor) VALUES ($1, $2)
		ON CONFLICT (role, actor) DO NOTHING`,
		string(role), actor)
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (s *PostgresStore) Revoke(ctx context.Context, role Role, actor string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM role_grants WHERE role = $1 AND actor = $2`,
		string(role), actor)
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) HasRole(ctx context.Context, role Role, actor string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM role_grants WHERE role = $1 AND actor = $2)`,
		string(role), actor).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has role: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) RolesOf(ctx context.Context, actor string) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role FROM role_grants WHERE actor = $1 ORDER BY role`, actor)
	if err != nil {
		return nil, fmt.Errorf("roles of actor: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, Role(role))
	}
	return roles, rows.Err()
}
