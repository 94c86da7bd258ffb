// Package jackpot owns the progressive pool: a share of every bet accrues
// into it, and a qualifying grid claims the full pool, resetting it to its
// floor. All mutation goes through the ledger store's atomic primitives, so
// the pool is never the subject of a read-then-write race and racing claims
// resolve to exactly one winner per pre-reset value.
package jackpot

import (
	"context"

	"github.com/reelhouse/engine/internal/domain"
	"github.com/reelhouse/engine/internal/ledger"
	"github.com/shopspring/decimal"
)

// Manager accrues into and claims from the shared pool.
type Manager struct {
	store ledger.Store
	rate  decimal.Decimal // fraction of each bet, e.g. 0.02
	floor decimal.Decimal // reset value, cents
}

// New creates a jackpot manager. rate is the fraction of each bet accrued
// into the pool; floor is the value the pool resets to after a win, in
// cents.
func New(store ledger.Store, rate, floor decimal.Decimal) *Manager {
	return &Manager{store: store, rate: rate, floor: floor}
}

// Floor returns the configured reset value in cents.
func (m *Manager) Floor() decimal.Decimal { return m.floor }

// Current returns the pool value in cents.
func (m *Manager) Current(ctx context.Context) (decimal.Decimal, error) {
	return m.store.GetJackpotPool(ctx)
}

// Accrue adds bet × rate to the pool and returns the new value. This
// happens on every bet regardless of the spin's outcome.
func (m *Manager) Accrue(ctx context.Context, bet domain.Money) (decimal.Decimal, error) {
	delta := bet.Decimal().Mul(m.rate)
	return m.store.AccrueJackpot(ctx, delta)
}

// Claim pays out the pool: it atomically takes the current value and
// resets the pool to its floor. Two simultaneous winners are totally
// ordered by the store; the second claim observes the already-reset floor
// value, never the first winner's pool.
func (m *Manager) Claim(ctx context.Context) (decimal.Decimal, error) {
	return m.store.ClaimJackpot(ctx, m.floor)
}

// Restore puts a previously claimed amount back, used as compensation when
// settlement fails after a claim. The pool was reset to the floor by the
// claim, so re-adding (claimed − floor) restores its value.
func (m *Manager) Restore(ctx context.Context, claimed decimal.Decimal) error {
	delta := claimed.Sub(m.floor)
	if delta.IsNegative() || delta.IsZero() {
		return nil
	}
	_, err := m.store.AccrueJackpot(ctx, delta)
	return err
}
