// Package wallet provides balance management and bet settlement on top of
// the ledger store. Every mutation is a serialized read-modify-write at the
// store layer; a balance can never go negative as an effect of this engine.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelhouse/engine/internal/audit"
	"github.com/reelhouse/engine/internal/domain"
	"github.com/reelhouse/engine/internal/ledger"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")

	// ErrInconsistentState marks a failed compensating rollback: the bet
	// was debited, the winnings credit failed, and the refund failed too.
	// The affected wallet requires reconciliation against the spin log.
	ErrInconsistentState = errors.New("wallet state inconsistent, reconciliation required")
)

// Service provides wallet functionality.
type Service struct {
	store    ledger.Store
	audit    *audit.Service
	currency string
}

// New creates a new wallet service.
func New(store ledger.Store, auditSvc *audit.Service, currency string) *Service {
	return &Service{store: store, audit: auditSvc, currency: currency}
}

// CreateWallet provisions a balance row for a new player with an optional
// opening balance.
func (s *Service) CreateWallet(ctx context.Context, playerID string, initial domain.Money) (*domain.Balance, error) {
	if initial.Amount < 0 {
		return nil, ErrInvalidAmount
	}
	if err := s.store.CreatePlayer(ctx, playerID, initial); err != nil {
		return nil, err
	}
	return s.store.GetBalance(ctx, playerID)
}

// GetBalance retrieves the current balance for a player.
func (s *Service) GetBalance(ctx context.Context, playerID string) (*domain.Balance, error) {
	return s.store.GetBalance(ctx, playerID)
}

// Deposit adds funds to a player's cash balance.
func (s *Service) Deposit(ctx context.Context, playerID string, amount domain.Money) (*domain.Balance, error) {
	if amount.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	bal, err := s.store.UpdateBalance(ctx, playerID, func(cash domain.Money) (domain.Money, error) {
		return cash.Add(amount), nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.EventDeposit, domain.SeverityInfo,
		fmt.Sprintf("Deposit of %.2f %s", amount.Float64(), amount.Currency),
		map[string]interface{}{"amount": amount.Float64()},
		audit.WithPlayer(playerID))

	return bal, nil
}

// Withdraw removes funds from a player's cash balance.
func (s *Service) Withdraw(ctx context.Context, playerID string, amount domain.Money) (*domain.Balance, error) {
	if amount.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	bal, err := s.store.UpdateBalance(ctx, playerID, func(cash domain.Money) (domain.Money, error) {
		if cash.Amount < amount.Amount {
			return cash, ErrInsufficientFunds
		}
		return cash.Sub(amount), nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.EventWithdrawal, domain.SeverityInfo,
		fmt.Sprintf("Withdrawal of %.2f %s", amount.Float64(), amount.Currency),
		map[string]interface{}{"amount": amount.Float64()},
		audit.WithPlayer(playerID))

	return bal, nil
}

// PlaceBet atomically verifies funds and debits the bet. On
// ErrInsufficientFunds nothing is mutated.
func (s *Service) PlaceBet(ctx context.Context, playerID string, bet domain.Money) (*domain.Balance, error) {
	if bet.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	return s.store.UpdateBalance(ctx, playerID, func(cash domain.Money) (domain.Money, error) {
		if cash.Amount < bet.Amount {
			return cash, ErrInsufficientFunds
		}
		return cash.Sub(bet), nil
	})
}

// RefundBet credits a previously debited bet back, used as compensation
// when settlement cannot complete.
func (s *Service) RefundBet(ctx context.Context, playerID string, bet domain.Money) (*domain.Balance, error) {
	return s.store.UpdateBalance(ctx, playerID, func(cash domain.Money) (domain.Money, error) {
		return cash.Add(bet), nil
	})
}

// Payable computes the amount credited for a spin with gross winnings
// (cents): the original bet is added back, then the house edge is applied
// multiplicatively to the sum, rounded down to whole cents in the house's
// favor. Zero when there are no gross winnings.
func Payable(bet domain.Money, gross decimal.Decimal, houseEdge decimal.Decimal) domain.Money {
	if !gross.IsPositive() {
		return domain.Money{Currency: bet.Currency}
	}
	keep := decimal.NewFromInt(1).Sub(houseEdge)
	amount := gross.Add(bet.Decimal()).Mul(keep).Floor()
	return domain.Money{Amount: amount.IntPart(), Currency: bet.Currency}
}

// SettleWinnings credits the payable amount for a spin whose bet was
// already debited. If the credit fails at the storage layer, the bet is
// refunded as compensation; if that refund fails too, ErrInconsistentState
// is returned and the wallet must be reconciled from the spin log.
func (s *Service) SettleWinnings(ctx context.Context, playerID string, bet domain.Money, gross decimal.Decimal, houseEdge decimal.Decimal) (domain.Money, *domain.Balance, error) {
	payable := Payable(bet, gross, houseEdge)

	if payable.Amount == 0 {
		// Nothing to credit: the debit stands and the wallet is already
		// in its final state. Only the balance read can fail here.
		bal, err := s.store.GetBalance(ctx, playerID)
		if err != nil {
			return payable, nil, fmt.Errorf("balance read after settled loss: %w", err)
		}
		return payable, bal, nil
	}

	bal, err := s.store.UpdateBalance(ctx, playerID, func(cash domain.Money) (domain.Money, error) {
		return cash.Add(payable), nil
	})
	if err != nil {
		if _, rerr := s.RefundBet(ctx, playerID, bet); rerr != nil {
			s.audit.Log(ctx, audit.EventStorageFault, domain.SeverityCritical,
				"winnings credit and compensating refund both failed",
				map[string]interface{}{"bet": bet.Float64(), "payable": payable.Float64()},
				audit.WithPlayer(playerID))
			return payable, nil, fmt.Errorf("%w: credit failed (%v), refund failed (%v)", ErrInconsistentState, err, rerr)
		}
		return payable, nil, fmt.Errorf("winnings credit failed, bet refunded: %w", err)
	}

	return payable, bal, nil
}
