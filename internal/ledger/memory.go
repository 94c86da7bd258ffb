package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reelhouse/engine/internal/domain"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-process Store used for development and tests.
// Each balance is guarded by its own mutex so updates to one player never
// block another; the pool has a single owner lock.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*memoryAccount

	poolMu sync.Mutex
	pool   decimal.Decimal

	recMu   sync.Mutex
	records []*domain.SpinRecord
}

type memoryAccount struct {
	mu  sync.Mutex
	bal domain.Balance
}

// NewMemoryStore creates an empty store with the pool at the given floor.
func NewMemoryStore(poolFloor decimal.Decimal) *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*memoryAccount),
		pool:     poolFloor,
	}
}

func (s *MemoryStore) account(playerID string) (*memoryAccount, error) {
	s.mu.RLock()
	acc, ok := s.accounts[playerID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return acc, nil
}

func (s *MemoryStore) CreatePlayer(ctx context.Context, playerID string, initial domain.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[playerID]; ok {
		return &StorageError{Op: "create player", Err: fmt.Errorf("player %s already exists", playerID)}
	}
	s.accounts[playerID] = &memoryAccount{
		bal: domain.Balance{
			PlayerID:  playerID,
			Cash:      initial,
			Tokens:    domain.Money{Currency: initial.Currency},
			UpdatedAt: time.Now().UTC(),
		},
	}
	return nil
}

func (s *MemoryStore) GetBalance(ctx context.Context, playerID string) (*domain.Balance, error) {
	acc, err := s.account(playerID)
	if err != nil {
		return nil, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	bal := acc.bal
	return &bal, nil
}

func (s *MemoryStore) UpdateBalance(ctx context.Context, playerID string, apply func(domain.Money) (domain.Money, error)) (*domain.Balance, error) {
	acc, err := s.account(playerID)
	if err != nil {
		return nil, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()

	next, err := apply(acc.bal.Cash)
	if err != nil {
		return nil, err
	}
	acc.bal.Cash = next
	acc.bal.UpdatedAt = time.Now().UTC()
	bal := acc.bal
	return &bal, nil
}

func (s *MemoryStore) GetJackpotPool(ctx context.Context) (decimal.Decimal, error) {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	return s.pool, nil
}

func (s *MemoryStore) AccrueJackpot(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	s.pool = s.pool.Add(delta)
	return s.pool, nil
}

func (s *MemoryStore) ClaimJackpot(ctx context.Context, floor decimal.Decimal) (decimal.Decimal, error) {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	claimed := s.pool
	s.pool = floor
	return claimed, nil
}

func (s *MemoryStore) AppendResult(ctx context.Context, rec *domain.SpinRecord) error {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryStore) History(ctx context.Context, playerID string, limit int) ([]*domain.SpinRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	s.recMu.Lock()
	defer s.recMu.Unlock()

	var out []*domain.SpinRecord
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].PlayerID == playerID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}
