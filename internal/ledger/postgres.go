package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/reelhouse/engine/internal/domain"
	"github.com/shopspring/decimal"
)

// PostgresStore is the durable Store implementation. Balance updates run in
// a transaction with row-level locking (SELECT ... FOR UPDATE) and jackpot
// mutations are single atomic statements, so concurrent spins can never
// lose an update or double-claim the pool.
type PostgresStore struct {
	db       *sql.DB
	currency string
}

// NewPostgres opens and pings a database connection.
func NewPostgres(driver, dsn, currency string) (*PostgresStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{db: db, currency: currency}, nil
}

// DB exposes the underlying connection for collaborators that share it,
// such as the audit service.
func (s *PostgresStore) DB() *sql.DB { return s.db }

// Close closes the underlying connection.
func (s *PostgresStore) Close() error { return s.db.Close() }

// Migrate creates all required tables and seeds the jackpot pool row at the
// given floor if it does not exist yet.
func (s *PostgresStore) Migrate(poolFloor decimal.Decimal) error {
	schema := `
	CREATE TABLE IF NOT EXISTS balances (
		player_id VARCHAR(255) PRIMARY KEY,
		cash BIGINT NOT NULL DEFAULT 0,
		tokens BIGINT NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS jackpot (
		id SMALLINT PRIMARY KEY CHECK (id = 1),
		pool NUMERIC(20, 6) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS spins (
		id UUID PRIMARY KEY,
		player_id VARCHAR(255) NOT NULL REFERENCES balances(player_id),
		ts TIMESTAMP NOT NULL,
		grid JSONB NOT NULL,
		bet BIGINT NOT NULL,
		points BIGINT NOT NULL DEFAULT 0,
		regular_win BIGINT NOT NULL DEFAULT 0,
		bonus_win BIGINT NOT NULL DEFAULT 0,
		jackpot_win BIGINT NOT NULL DEFAULT 0,
		total_win BIGINT NOT NULL DEFAULT 0,
		balance_after BIGINT NOT NULL,
		pool NUMERIC(20, 6) NOT NULL,
		triggers JSONB,
		currency VARCHAR(3) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		type VARCHAR(100) NOT NULL,
		severity VARCHAR(20) NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		player_id VARCHAR(255),
		description TEXT NOT NULL,
		data JSONB,
		component VARCHAR(100) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_spins_player ON spins(player_id);
	CREATE INDEX IF NOT EXISTS idx_spins_ts ON spins(ts);
	CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	_, err := s.db.Exec(`INSERT INTO jackpot (id, pool) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`, poolFloor.String())
	if err != nil {
		return fmt.Errorf("failed to seed jackpot pool: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePlayer(ctx context.Context, playerID string, initial domain.Money) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances (player_id, cash, tokens, currency, updated_at)
		VALUES ($1, $2, 0, $3, $4)
	`, playerID, initial.Amount, s.currency, time.Now().UTC())
	if err != nil {
		return &StorageError{Op: "create player", Err: err}
	}
	return nil
}

func (s *PostgresStore) GetBalance(ctx context.Context, playerID string) (*domain.Balance, error) {
	var bal domain.Balance
	var cash, tokens int64
	var currency string

	err := s.db.QueryRowContext(ctx, `
		SELECT cash, tokens, currency, updated_at FROM balances WHERE player_id = $1
	`, playerID).Scan(&cash, &tokens, &currency, &bal.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, &StorageError{Op: "get balance", Err: err}
	}

	bal.PlayerID = playerID
	bal.Cash = domain.Money{Amount: cash, Currency: currency}
	bal.Tokens = domain.Money{Amount: tokens, Currency: currency}
	return &bal, nil
}

func (s *PostgresStore) UpdateBalance(ctx context.Context, playerID string, apply func(domain.Money) (domain.Money, error)) (*domain.Balance, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &StorageError{Op: "update balance", Err: err}
	}
	defer tx.Rollback()

	var cash, tokens int64
	var currency string
	err = tx.QueryRowContext(ctx, `
		SELECT cash, tokens, currency FROM balances WHERE player_id = $1 FOR UPDATE
	`, playerID).Scan(&cash, &tokens, &currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, &StorageError{Op: "update balance", Err: err}
	}

	next, err := apply(domain.Money{Amount: cash, Currency: currency})
	if err != nil {
		// domain refusal, not a storage fault: no mutation happens
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE balances SET cash = $1, updated_at = $2 WHERE player_id = $3
	`, next.Amount, now, playerID)
	if err != nil {
		return nil, &StorageError{Op: "update balance", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &StorageError{Op: "update balance commit", Err: err}
	}

	return &domain.Balance{
		PlayerID:  playerID,
		Cash:      next,
		Tokens:    domain.Money{Amount: tokens, Currency: currency},
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) GetJackpotPool(ctx context.Context) (decimal.Decimal, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT pool FROM jackpot WHERE id = 1`).Scan(&raw)
	if err != nil {
		return decimal.Zero, &StorageError{Op: "get jackpot", Err: err}
	}
	pool, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &StorageError{Op: "get jackpot", Err: err}
	}
	return pool, nil
}

func (s *PostgresStore) AccrueJackpot(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		UPDATE jackpot SET pool = pool + $1 WHERE id = 1 RETURNING pool
	`, delta.String()).Scan(&raw)
	if err != nil {
		return decimal.Zero, &StorageError{Op: "accrue jackpot", Err: err}
	}
	pool, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &StorageError{Op: "accrue jackpot", Err: err}
	}
	return pool, nil
}

func (s *PostgresStore) ClaimJackpot(ctx context.Context, floor decimal.Decimal) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, &StorageError{Op: "claim jackpot", Err: err}
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT pool FROM jackpot WHERE id = 1 FOR UPDATE`).Scan(&raw)
	if err != nil {
		return decimal.Zero, &StorageError{Op: "claim jackpot", Err: err}
	}
	claimed, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &StorageError{Op: "claim jackpot", Err: err}
	}

	_, err = tx.ExecContext(ctx, `UPDATE jackpot SET pool = $1 WHERE id = 1`, floor.String())
	if err != nil {
		return decimal.Zero, &StorageError{Op: "claim jackpot", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, &StorageError{Op: "claim jackpot commit", Err: err}
	}
	return claimed, nil
}

func (s *PostgresStore) AppendResult(ctx context.Context, rec *domain.SpinRecord) error {
	gridJSON, err := json.Marshal(rec.Grid)
	if err != nil {
		return &StorageError{Op: "append result", Err: err}
	}
	triggersJSON, err := json.Marshal(rec.Triggers)
	if err != nil {
		return &StorageError{Op: "append result", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO spins (id, player_id, ts, grid, bet, points, regular_win, bonus_win, jackpot_win, total_win, balance_after, pool, triggers, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, rec.ID, rec.PlayerID, rec.Timestamp, string(gridJSON), rec.Bet.Amount, rec.Points,
		rec.RegularWin.Amount, rec.BonusWin.Amount, rec.JackpotWin.Amount, rec.TotalWin.Amount,
		rec.BalanceAfter.Amount, rec.JackpotPool.String(), string(triggersJSON), rec.Bet.Currency)
	if err != nil {
		return &StorageError{Op: "append result", Err: err}
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, playerID string, limit int) ([]*domain.SpinRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, grid, bet, points, regular_win, bonus_win, jackpot_win, total_win, balance_after, pool, triggers, currency
		FROM spins WHERE player_id = $1 ORDER BY ts DESC LIMIT $2
	`, playerID, limit)
	if err != nil {
		return nil, &StorageError{Op: "history", Err: err}
	}
	defer rows.Close()

	var history []*domain.SpinRecord
	for rows.Next() {
		rec := &domain.SpinRecord{PlayerID: playerID}
		var gridJSON, triggersJSON, poolRaw, currency string
		var bet, points, regular, bonus, jackpot, total, after int64

		err := rows.Scan(&rec.ID, &rec.Timestamp, &gridJSON, &bet, &points,
			&regular, &bonus, &jackpot, &total, &after, &poolRaw, &triggersJSON, &currency)
		if err != nil {
			return nil, &StorageError{Op: "history", Err: err}
		}

		if err := json.Unmarshal([]byte(gridJSON), &rec.Grid); err != nil {
			return nil, &StorageError{Op: "history", Err: err}
		}
		if err := json.Unmarshal([]byte(triggersJSON), &rec.Triggers); err != nil {
			return nil, &StorageError{Op: "history", Err: err}
		}
		rec.JackpotPool, err = decimal.NewFromString(poolRaw)
		if err != nil {
			return nil, &StorageError{Op: "history", Err: err}
		}

		rec.Bet = domain.Money{Amount: bet, Currency: currency}
		rec.Points = points
		rec.RegularWin = domain.Money{Amount: regular, Currency: currency}
		rec.BonusWin = domain.Money{Amount: bonus, Currency: currency}
		rec.JackpotWin = domain.Money{Amount: jackpot, Currency: currency}
		rec.TotalWin = domain.Money{Amount: total, Currency: currency}
		rec.BalanceAfter = domain.Money{Amount: after, Currency: currency}

		history = append(history, rec)
	}
	return history, rows.Err()
}
