package dossier

import (
	"context"
	"database/sql"
	"fmt"

	"custodia/pkg/platform/sentinel"
)

// PostgresStore persists dossiers in PostgreSQL. The id is computed inside
// the insert transaction so ids stay dense from 0 even across restarts.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS dossiers (
	id            BIGINT PRIMARY KEY,
	document_hash TEXT NOT NULL,
	subject       TEXT NOT NULL,
	uri           TEXT NOT NULL DEFAULT '',
	issued_by     TEXT NOT NULL,
	issued_at     TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema applies the dossier schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure dossier schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, d Dossier) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO dossiers (id, document_hash, subject, uri, issued_by, issued_at)
		VALUES ((SELECT COALESCE(MAX(id) + 1, 0) FROM dossiers), $1, $2, $3, $4, $5)
		RETURNING id`,
		d.DocumentHash, d.Subject, d.URI, d.IssuedBy, d.IssuedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert dossier: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return uint64(id), nil
}

func (s *PostgresStore) Get(ctx context.Context, id uint64) (Dossier, error) {
	var d Dossier
	var dbID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, document_hash, subject, uri, issued_by, issued_at
		FROM dossiers WHERE id = $1`, int64(id)).
		Scan(&dbID, &d.DocumentHash, &d.Subject, &d.URI, &d.IssuedBy, &d.IssuedAt)
	if err == sql.ErrNoRows {
		return Dossier{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Dossier{}, fmt.Errorf("get dossier: %w", err)
	}
	d.ID = uint64(dbID)
	return d, nil
}

func (s *PostgresStore) Exists(ctx context.Context, id uint64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM dossiers WHERE id = $1)`, int64(id)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("dossier exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Count(ctx context.Context) (uint64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dossiers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count dossiers: %w", err)
	}
	return uint64(count), nil
}
