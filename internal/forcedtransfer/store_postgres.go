package forcedtransfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"custodia/pkg/platform/sentinel"

	"github.com/lib/pq"
)

// PostgresStore persists coordinator state in PostgreSQL. Proof consumption
// and request creation share one transaction; the consumed_proofs primary key
// turns a replayed proof into a unique violation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS consumed_proofs (
	proof_id BIGINT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS forced_transfer_requests (
	id                BIGINT PRIMARY KEY,
	from_holder       TEXT NOT NULL,
	to_holder         TEXT NOT NULL,
	amount            BIGINT NOT NULL CHECK (amount > 0),
	proof_id          BIGINT NOT NULL UNIQUE REFERENCES consumed_proofs (proof_id),
	initiator         TEXT NOT NULL,
	initiated_at      TIMESTAMPTZ NOT NULL,
	reason            TEXT NOT NULL DEFAULT '',
	treasury_approval BOOLEAN NOT NULL DEFAULT FALSE,
	auditor_approval  BOOLEAN NOT NULL DEFAULT FALSE,
	orgadmin_approval BOOLEAN NOT NULL DEFAULT FALSE,
	status            TEXT NOT NULL
);
`

// EnsureSchema applies the coordinator schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure forced-transfer schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, req Request) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO consumed_proofs (proof_id) VALUES ($1)`, int64(req.ProofID)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, sentinel.ErrAlreadyUsed
		}
		return 0, fmt.Errorf("consume proof: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO forced_transfer_requests
			(id, from_holder, to_holder, amount, proof_id, initiator, initiated_at, reason,
			 treasury_approval, auditor_approval, orgadmin_approval, status)
		VALUES ((SELECT COALESCE(MAX(id) + 1, 0) FROM forced_transfer_requests),
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		req.From, req.To, req.Amount, int64(req.ProofID), req.Initiator, req.InitiatedAt,
		req.Reason, req.TreasuryApproval, req.AuditorApproval, req.OrgAdminApproval,
		string(req.Status)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert request: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return uint64(id), nil
}

func (s *PostgresStore) Get(ctx context.Context, id uint64) (Request, error) {
	var req Request
	var dbID, proofID int64
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, from_holder, to_holder, amount, proof_id, initiator, initiated_at, reason,
		       treasury_approval, auditor_approval, orgadmin_approval, status
		FROM forced_transfer_requests WHERE id = $1`, int64(id)).
		Scan(&dbID, &req.From, &req.To, &req.Amount, &proofID, &req.Initiator,
			&req.InitiatedAt, &req.Reason, &req.TreasuryApproval, &req.AuditorApproval,
			&req.OrgAdminApproval, &status)
	if err == sql.ErrNoRows {
		return Request{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Request{}, fmt.Errorf("get request: %w", err)
	}
	req.ID = uint64(dbID)
	req.ProofID = uint64(proofID)
	req.Status = Status(status)
	return req, nil
}

func (s *PostgresStore) Update(ctx context.Context, req Request) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE forced_transfer_requests
		SET treasury_approval = $2, auditor_approval = $3, orgadmin_approval = $4, status = $5
		WHERE id = $1`,
		int64(req.ID), req.TreasuryApproval, req.AuditorApproval, req.OrgAdminApproval,
		string(req.Status))
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (uint64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM forced_transfer_requests`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return uint64(count), nil
}

func (s *PostgresStore) IsProofUsed(ctx context.Context, proofID uint64) (bool, error) {
	var used bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM consumed_proofs WHERE proof_id = $1)`,
		int64(proofID)).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("proof used: %w", err)
	}
	return used, nil
}
