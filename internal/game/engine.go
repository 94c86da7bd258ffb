package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reelhouse/engine/internal/audit"
	"github.com/reelhouse/engine/internal/domain"
	"github.com/reelhouse/engine/internal/jackpot"
	"github.com/reelhouse/engine/internal/ledger"
	"github.com/reelhouse/engine/internal/rng"
	"github.com/reelhouse/engine/internal/wallet"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidWager = errors.New("invalid wager amount")
)

// Params holds the engine's settlement parameters.
type Params struct {
	Currency  string
	HouseEdge float64 // fraction of payable winnings kept by the house
	MinBet    int64   // cents
	MaxBet    int64   // cents
	// LargeWinThreshold is the payable amount (cents) above which a win is
	// audited as significant.
	LargeWinThreshold int64
}

// Engine executes one complete spin cycle: grid generation, payline
// evaluation, jackpot accrual and claim, bonus draw, and settlement against
// the player's wallet. A spin, once its bet is debited, runs to settlement.
type Engine struct {
	provider Provider
	sampler  *Sampler
	wallet   *wallet.Service
	jackpot  *jackpot.Manager
	audit    *audit.Service
	store    ledger.Store
	params   Params
	edge     decimal.Decimal

	mu        sync.Mutex
	stats     domain.SessionStats
	onSettled func(*domain.SpinRecord)
}

// New creates a new spin engine.
func New(provider Provider, rngSvc *rng.Service, walletSvc *wallet.Service, jackpotMgr *jackpot.Manager, auditSvc *audit.Service, store ledger.Store, params Params) *Engine {
	return &Engine{
		provider: provider,
		sampler:  NewSampler(rngSvc),
		wallet:   walletSvc,
		jackpot:  jackpotMgr,
		audit:    auditSvc,
		store:    store,
		params:   params,
		edge:     decimal.NewFromFloat(params.HouseEdge),
	}
}

// OnSettled registers a hook invoked after every successfully settled spin,
// e.g. for broadcasting results to live feeds. Must be set before serving.
func (e *Engine) OnSettled(fn func(*domain.SpinRecord)) {
	e.mu.Lock()
	e.onSettled = fn
	e.mu.Unlock()
}

// SpinRequest contains the data for one spin.
type SpinRequest struct {
	PlayerID string `json:"player_id"`
	Bet      int64  `json:"bet"` // cents
}

// SpinResult contains the settled outcome of one spin.
type SpinResult struct {
	Record  *domain.SpinRecord `json:"record"`
	Outcome *SpinOutcome       `json:"outcome"`
	Balance domain.Money       `json:"balance"`
	Pool    decimal.Decimal    `json:"pool"` // pool after this spin's accrual
}

// Play executes a full spin cycle as a single request-response unit.
//
// Ordering: the bet is debited first (atomically, with a funds check), the
// pool accrues its share, then jackpot claim, bonus draw and winnings
// credit follow. Storage failures after the debit trigger compensating
// rollback rather than silent loss.
func (e *Engine) Play(ctx context.Context, req *SpinRequest) (*SpinResult, error) {
	if req.PlayerID == "" {
		return nil, ledger.ErrPlayerNotFound
	}
	if req.Bet < e.params.MinBet || req.Bet > e.params.MaxBet {
		return nil, ErrInvalidWager
	}
	bet := domain.Money{Amount: req.Bet, Currency: e.params.Currency}

	// Pure computation first: grid and payline evaluation touch no shared
	// state and consume nothing but entropy.
	grid, err := e.sampler.Spin(e.provider.ReelSet(), e.provider.GridRows())
	if err != nil {
		return nil, err
	}
	outcome, err := Evaluate(grid, e.provider.Paylines(), e.provider.PayTable())
	if err != nil {
		return nil, err
	}

	// Debit the bet. Insufficient funds fail here with nothing mutated.
	if _, err := e.wallet.PlaceBet(ctx, req.PlayerID, bet); err != nil {
		return nil, err
	}

	// Every bet funds the pool, win or lose.
	pool, err := e.jackpot.Accrue(ctx, bet)
	if err != nil {
		return nil, e.abortAfterDebit(ctx, req.PlayerID, bet, err)
	}

	// Jackpot detection counts the symbol across the flattened grid, not
	// along a payline.
	jackpotWin := decimal.Zero
	jackpotClaimed := false
	if MeetsCountRule(grid, e.provider.JackpotRule()) {
		jackpotWin, err = e.jackpot.Claim(ctx)
		if err != nil {
			return nil, e.abortAfterDebit(ctx, req.PlayerID, bet, err)
		}
		jackpotClaimed = true
	}

	// The bonus draw runs at most once per spin, whether signalled by a
	// pay table trigger or by the grid-wide bonus symbol count.
	bonusWin := decimal.Zero
	if outcome.Triggered(TriggerBonusGame) || MeetsCountRule(grid, e.provider.BonusRule()) {
		bonusWin, err = e.sampler.DrawPrize(e.provider.BonusPrizes())
		if err != nil {
			if jackpotClaimed {
				if rerr := e.restoreClaim(ctx, req.PlayerID, jackpotWin); rerr != nil {
					err = fmt.Errorf("%v; %w", err, rerr)
				}
			}
			return nil, e.abortAfterDebit(ctx, req.PlayerID, bet, err)
		}
	}

	regularWin := outcome.TotalPayout.Mul(bet.Decimal())
	gross := regularWin.Add(bonusWin).Add(jackpotWin)

	payable, bal, err := e.wallet.SettleWinnings(ctx, req.PlayerID, bet, gross, e.edge)
	if err != nil {
		// A failed credit was already compensated or escalated by the
		// wallet; a failed balance read after a settled loss leaves the
		// debit standing. Undo the claim so the pool is not lost.
		if jackpotClaimed {
			if rerr := e.restoreClaim(ctx, req.PlayerID, jackpotWin); rerr != nil {
				err = fmt.Errorf("%v; %w", err, rerr)
			}
		}
		return nil, err
	}

	record := &domain.SpinRecord{
		ID:           uuid.New().String(),
		PlayerID:     req.PlayerID,
		Timestamp:    time.Now().UTC(),
		Grid:         grid.Strings(),
		Bet:          bet,
		Points:       outcome.TotalPoints,
		RegularWin:   toMoney(regularWin, e.params.Currency),
		BonusWin:     toMoney(bonusWin, e.params.Currency),
		JackpotWin:   toMoney(jackpotWin, e.params.Currency),
		TotalWin:     payable,
		BalanceAfter: bal.Cash,
		JackpotPool:  pool,
		Triggers:     outcome.Triggers,
	}

	if err := e.store.AppendResult(ctx, record); err != nil {
		// The wallet is settled; the record must not vanish silently.
		e.audit.Log(ctx, audit.EventStorageFault, domain.SeverityCritical,
			"spin settled but record append failed",
			record, audit.WithPlayer(req.PlayerID))
		return nil, fmt.Errorf("append spin record: %w", err)
	}

	e.recordStats(bet, payable)
	e.auditSettled(ctx, record, jackpotClaimed)

	e.mu.Lock()
	hook := e.onSettled
	e.mu.Unlock()
	if hook != nil {
		hook(record)
	}

	return &SpinResult{
		Record:  record,
		Outcome: outcome,
		Balance: bal.Cash,
		Pool:    pool,
	}, nil
}

// abortAfterDebit refunds the bet after a storage failure between debit and
// credit. A failed refund surfaces as an inconsistent-state error.
func (e *Engine) abortAfterDebit(ctx context.Context, playerID string, bet domain.Money, cause error) error {
	if _, rerr := e.wallet.RefundBet(ctx, playerID, bet); rerr != nil {
		e.audit.Log(ctx, audit.EventStorageFault, domain.SeverityCritical,
			"spin aborted and bet refund failed",
			map[string]interface{}{"bet": bet.Float64()},
			audit.WithPlayer(playerID))
		return fmt.Errorf("%w: spin aborted (%v), refund failed (%v)", wallet.ErrInconsistentState, cause, rerr)
	}
	return fmt.Errorf("spin aborted, bet refunded: %w", cause)
}

// restoreClaim re-accrues a claimed pool after a failed settlement. A
// failed restore means the claimed amount is gone from the pool with no
/// winner: it is audited critical and escalated, never swallowed.
func (e *Engine) restoreClaim(ctx context.Context, playerID string, claimed decimal.Decimal) error {
	if err := e.jackpot.Restore(ctx, claimed); err != nil {
		e.audit.Log(ctx, audit.EventStorageFault, domain.SeverityCritical,
			"jackpot pool restore failed after aborted settlement",
			map[string]interface{}{"claimed": claimed.String()},
			audit.WithPlayer(playerID))
		return fmt.Errorf("%w: jackpot restore failed, claimed %s lost from pool (%v)", wallet.ErrInconsistentState, claimed, err)
	}
	return nil
}

func (e *Engine) recordStats(bet, payable domain.Money) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.TotalSpins++
	e.stats.TotalWagered = e.stats.TotalWagered.Add(bet)
	e.stats.TotalWon = e.stats.TotalWon.Add(payable)
	if e.stats.TotalWagered.Amount > 0 {
		e.stats.RTP = float64(e.stats.TotalWon.Amount) / float64(e.stats.TotalWagered.Amount)
	}
}

func (e *Engine) auditSettled(ctx context.Context, rec *domain.SpinRecord, jackpotClaimed bool) {
	e.audit.Log(ctx, audit.EventSpinSettled, domain.SeverityInfo,
		fmt.Sprintf("Spin settled: bet %.2f, won %.2f", rec.Bet.Float64(), rec.TotalWin.Float64()),
		map[string]interface{}{
			"spin_id": rec.ID,
			"bet":     rec.Bet.Float64(),
			"won":     rec.TotalWin.Float64(),
			"points":  rec.Points,
		},
		audit.WithPlayer(rec.PlayerID))

	if jackpotClaimed {
		e.audit.Log(ctx, audit.EventJackpotWon, domain.SeverityWarning,
			fmt.Sprintf("Jackpot won: %.2f", rec.JackpotWin.Float64()),
			map[string]interface{}{"spin_id": rec.ID, "amount": rec.JackpotWin.Float64()},
			audit.WithPlayer(rec.PlayerID))
	}
	if rec.BonusWin.Amount > 0 {
		e.audit.Log(ctx, audit.EventBonusAwarded, domain.SeverityInfo,
			fmt.Sprintf("Bonus prize: %.2f", rec.BonusWin.Float64()),
			map[string]interface{}{"spin_id": rec.ID, "amount": rec.BonusWin.Float64()},
			audit.WithPlayer(rec.PlayerID))
	}
	if e.params.LargeWinThreshold > 0 && rec.TotalWin.Amount >= e.params.LargeWinThreshold {
		e.audit.Log(ctx, audit.EventLargeWin, domain.SeverityInfo,
			fmt.Sprintf("Large win: %.2f", rec.TotalWin.Float64()),
			map[string]interface{}{"spin_id": rec.ID, "win": rec.TotalWin.Float64()},
			audit.WithPlayer(rec.PlayerID))
	}
}

// Stats returns the engine's running return-to-player totals.
func (e *Engine) Stats() domain.SessionStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// GetHistory retrieves recent spin records for a player.
func (e *Engine) GetHistory(ctx context.Context, playerID string, limit int) ([]*domain.SpinRecord, error) {
	return e.store.History(ctx, playerID, limit)
}

func toMoney(cents decimal.Decimal, currency string) domain.Money {
	return domain.Money{Amount: cents.Round(0).IntPart(), Currency: currency}
}
