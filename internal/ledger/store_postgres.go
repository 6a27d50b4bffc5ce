package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"custodia/pkg/platform/sentinel"
)

// PostgresStore persists ledger state in PostgreSQL. Multi-row mutations run
// in a transaction so a failed move never half-applies.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ledger_accounts (
	holder  TEXT PRIMARY KEY,
	balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	frozen  BIGINT NOT NULL DEFAULT 0 CHECK (frozen >= 0),
	allowed BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS ledger_state (
	id           BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
	total_supply BIGINT NOT NULL DEFAULT 0,
	paused       BOOLEAN NOT NULL DEFAULT FALSE
);
INSERT INTO ledger_state (id) VALUES (TRUE) ON CONFLICT DO NOTHING;
`

// EnsureSchema applies the ledger schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, holder string) (Account, error) {
	acct := Account{Holder: holder}
	err := s.db.QueryRowContext(ctx, `
		SELECT balance, frozen, allowed FROM ledger_accounts WHERE holder = $1`,
		holder).Scan(&acct.Balance, &acct.Frozen, &acct.Allowed)
	if err == sql.ErrNoRows {
		return acct, nil
	}
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return acct, nil
}

func (s *PostgresStore) SetAllowed(ctx context.Context, holder string, allowed bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_accounts (holder, allowed) VALUES ($1, $2)
		ON CONFLICT (holder) DO UPDATE SET allowed = EXCLUDED.allowed`,
		holder, allowed)
	if err != nil {
		return fmt.Errorf("set allowed: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetFrozen(ctx context.Context, holder string, frozen int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_accounts (holder, frozen) VALUES ($1, $2)
		ON CONFLICT (holder) DO UPDATE SET frozen = EXCLUDED.frozen`,
		holder, frozen)
	if err != nil {
		return fmt.Errorf("set frozen: %w", err)
	}
	return nil
}

func (s *PostgresStore) Mint(ctx context.Context, to string, amount int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_accounts (holder, balance) VALUES ($1, $2)
			ON CONFLICT (holder) DO UPDATE SET balance = ledger_accounts.balance + EXCLUDED.balance`,
			to, amount); err != nil {
			return fmt.Errorf("credit: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE ledger_state SET total_supply = total_supply + $1`, amount); err != nil {
			return fmt.Errorf("grow supply: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Burn(ctx context.Context, from string, amount int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := debit(ctx, tx, from, amount); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE ledger_state SET total_supply = total_supply - $1`, amount); err != nil {
			return fmt.Errorf("shrink supply: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Move(ctx context.Context, from, to string, amount int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := debit(ctx, tx, from, amount); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_accounts (holder, balance) VALUES ($1, $2)
			ON CONFLICT (holder) DO UPDATE SET balance = ledger_accounts.balance + EXCLUDED.balance`,
			to, amount); err != nil {
			return fmt.Errorf("credit: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) GetState(ctx context.Context) (State, error) {
	var state State
	err := s.db.QueryRowContext(ctx, `
		SELECT total_supply, paused FROM ledger_state`).Scan(&state.TotalSupply, &state.Paused)
	if err != nil {
		return State{}, fmt.Errorf("get ledger state: %w", err)
	}
	return state, nil
}

func (s *PostgresStore) SetPaused(ctx context.Context, paused bool) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE ledger_state SET paused = $1`, paused); err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	return nil
}

// debit subtracts from a holder's balance, failing with sentinel.ErrInvalidState
// when the balance is insufficient. The guarded UPDATE makes the check-and-set
// race-free without an explicit row lock.
func debit(ctx context.Context, tx *sql.Tx, from string, amount int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE ledger_accounts SET balance = balance - $2
		WHERE holder = $1 AND balance >= $2`, from, amount)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
