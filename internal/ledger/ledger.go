// Package ledger defines the store that holds the authoritative wallet
// balances, the progressive jackpot pool and the append-only spin history.
//
// Balances and the pool are read-modify-write targets shared by concurrent
// spins, so the interface exposes serialized update primitives instead of
// bare get/set pairs: implementations must guarantee that UpdateBalance,
// AccrueJackpot and ClaimJackpot are atomic with respect to each other.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelhouse/engine/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrPlayerNotFound = errors.New("player not found")

// StorageError marks a failure of the underlying store. It is a distinct
// error kind so callers never mistake a failed commit for a domain error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Store is the ledger collaborator consumed by the engine.
type Store interface {
	// CreatePlayer creates a balance row for a new player.
	CreatePlayer(ctx context.Context, playerID string, initial domain.Money) error

	// GetBalance returns the current balance for a player.
	GetBalance(ctx context.Context, playerID string) (*domain.Balance, error)

	// UpdateBalance applies a read-modify-write to the player's cash
	// balance under exclusive ownership of the row. If apply returns an
	// error, no mutation happens and that error is returned verbatim.
	UpdateBalance(ctx context.Context, playerID string, apply func(cash domain.Money) (domain.Money, error)) (*domain.Balance, error)

	// GetJackpotPool returns the current pool value in cents.
	GetJackpotPool(ctx context.Context) (decimal.Decimal, error)

	// AccrueJackpot atomically adds delta (cents) to the pool and returns
	// the new value. Concurrent accruals never lose updates.
	AccrueJackpot(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error)

	// ClaimJackpot atomically reads the pool, resets it to floor and
	// returns the pre-reset value. Racing claims are totally ordered:
	// exactly one claimant observes any given pool value.
	ClaimJackpot(ctx context.Context, floor decimal.Decimal) (decimal.Decimal, error)

	// AppendResult durably appends a spin record.
	AppendResult(ctx context.Context, rec *domain.SpinRecord) error

	// History returns the most recent spin records for a player.
	History(ctx context.Context, playerID string, limit int) ([]*domain.SpinRecord, error)
}
