package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/reelhouse/engine/internal/domain"
	"github.com/shopspring/decimal"
)

func TestMemoryStoreBalances(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		s := NewMemoryStore(decimal.Zero)
		if err := s.CreatePlayer(ctx, "p1", domain.Money{Amount: 5000, Currency: "USD"}); err != nil {
			t.Fatalf("CreatePlayer failed: %v", err)
		}

		bal, err := s.GetBalance(ctx, "p1")
		if err != nil {
			t.Fatalf("GetBalance failed: %v", err)
		}
		if bal.Cash.Amount != 5000 {
			t.Errorf("Expected 5000 cents, got %d", bal.Cash.Amount)
		}
	})

	t.Run("DuplicateCreateFails", func(t *testing.T) {
		s := NewMemoryStore(decimal.Zero)
		if err := s.CreatePlayer(ctx, "p1", domain.Money{Amount: 0, Currency: "USD"}); err != nil {
			t.Fatalf("CreatePlayer failed: %v", err)
		}
		err := s.CreatePlayer(ctx, "p1", domain.Money{Amount: 0, Currency: "USD"})
		if !IsStorageError(err) {
			t.Errorf("Expected storage error for duplicate player, got %v", err)
		}
	})

	t.Run("UnknownPlayer", func(t *testing.T) {
		s := NewMemoryStore(decimal.Zero)
		if _, err := s.GetBalance(ctx, "ghost"); !errors.Is(err, ErrPlayerNotFound) {
			t.Errorf("Expected ErrPlayerNotFound, got %v", err)
		}
	})

	t.Run("ApplyErrorMutatesNothing", func(t *testing.T) {
		s := NewMemoryStore(decimal.Zero)
		if err := s.CreatePlayer(ctx, "p1", domain.Money{Amount: 100, Currency: "USD"}); err != nil {
			t.Fatalf("CreatePlayer failed: %v", err)
		}

		sentinel := errors.New("rejected")
		_, err := s.UpdateBalance(ctx, "p1", func(cash domain.Money) (domain.Money, error) {
			return cash, sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Errorf("Expected apply error returned verbatim, got %v", err)
		}

		bal, _ := s.GetBalance(ctx, "p1")
		if bal.Cash.Amount != 100 {
			t.Errorf("Balance must be untouched, got %d", bal.Cash.Amount)
		}
	})

	t.Run("ConcurrentUpdatesNeverLost", func(t *testing.T) {
		s := NewMemoryStore(decimal.Zero)
		if err := s.CreatePlayer(ctx, "p1", domain.Money{Amount: 0, Currency: "USD"}); err != nil {
			t.Fatalf("CreatePlayer failed: %v", err)
		}

		const workers = 50
		const perWorker = 100
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					_, err := s.UpdateBalance(ctx, "p1", func(cash domain.Money) (domain.Money, error) {
						return cash.Add(domain.Money{Amount: 1, Currency: "USD"}), nil
					})
					if err != nil {
						t.Errorf("UpdateBalance failed: %v", err)
						return
					}
				}
			}()
		}
		wg.Wait()

		bal, _ := s.GetBalance(ctx, "p1")
		if bal.Cash.Amount != workers*perWorker {
			t.Errorf("Expected %d cents after concurrent increments, got %d", workers*perWorker, bal.Cash.Amount)
		}
	})
}

func TestMemoryStoreJackpot(t *testing.T) {
	ctx := context.Background()

	t.Run("StartsAtFloor", func(t *testing.T) {
		s := NewMemoryStore(decimal.NewFromInt(100000))
		pool, err := s.GetJackpotPool(ctx)
		if err != nil {
			t.Fatalf("GetJackpotPool failed: %v", err)
		}
		if !pool.Equal(decimal.NewFromInt(100000)) {
			t.Errorf("Expected pool at floor, got %s", pool)
		}
	})

	t.Run("ClaimSwapsToFloor", func(t *testing.T) {
		s := NewMemoryStore(decimal.NewFromInt(100000))
		if _, err := s.AccrueJackpot(ctx, decimal.NewFromInt(777)); err != nil {
			t.Fatalf("AccrueJackpot failed: %v", err)
		}

		claimed, err := s.ClaimJackpot(ctx, decimal.NewFromInt(100000))
		if err != nil {
			t.Fatalf("ClaimJackpot failed: %v", err)
		}
		if !claimed.Equal(decimal.NewFromInt(100777)) {
			t.Errorf("Expected claim of 100777, got %s", claimed)
		}

		pool, _ := s.GetJackpotPool(ctx)
		if !pool.Equal(decimal.NewFromInt(100000)) {
			t.Errorf("Expected pool reset to floor, got %s", pool)
		}
	})
}

func TestMemoryStoreHistory(t *testing.T) {
	ctx := context.Background()

	record := func(player string, i int) *domain.SpinRecord {
		return &domain.SpinRecord{
			ID:        fmt.Sprintf("%s-%d", player, i),
			PlayerID:  player,
			Timestamp: time.Now().UTC(),
			Bet:       domain.Money{Amount: 1000, Currency: "USD"},
		}
	}

	t.Run("NewestFirstPerPlayer", func(t *testing.T) {
		s := NewMemoryStore(decimal.Zero)
		for i := 0; i < 5; i++ {
			if err := s.AppendResult(ctx, record("p1", i)); err != nil {
				t.Fatalf("AppendResult failed: %v", err)
			}
			if err := s.AppendResult(ctx, record("p2", i)); err != nil {
				t.Fatalf("AppendResult failed: %v", err)
			}
		}

		recs, err := s.History(ctx, "p1", 3)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(recs) != 3 {
			t.Fatalf("Expected 3 records, got %d", len(recs))
		}
		if recs[0].ID != "p1-4" || recs[2].ID != "p1-2" {
			t.Errorf("Expected newest-first ordering, got %s .. %s", recs[0].ID, recs[2].ID)
		}
		for _, r := range recs {
			if r.PlayerID != "p1" {
				t.Errorf("Got record for wrong player: %s", r.PlayerID)
			}
		}
	})

	t.Run("EmptyHistory", func(t *testing.T) {
		s := NewMemoryStore(decimal.Zero)
		recs, err := s.History(ctx, "ghost", 10)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(recs) != 0 {
			t.Errorf("Expected no records, got %d", len(recs))
		}
	})
}
