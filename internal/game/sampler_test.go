package game

import (
	"errors"
	"math"
	"testing"

	"github.com/reelhouse/engine/internal/rng"
	"github.com/shopspring/decimal"
)

func TestDrawSymbol(t *testing.T) {
	s := NewSampler(rng.New())

	t.Run("DrawsFromReel", func(t *testing.T) {
		reel := Reel{
			{Symbol: "CHER", Weight: 5},
			{Symbol: "STAR", Weight: 2},
			{Symbol: "WILD", Weight: 1},
		}
		valid := map[Symbol]bool{"CHER": true, "STAR": true, "WILD": true}

		for i := 0; i < 1000; i++ {
			sym, err := s.DrawSymbol(reel)
			if err != nil {
				t.Fatalf("Failed to draw: %v", err)
			}
			if !valid[sym] {
				t.Errorf("Drew symbol %q not on reel", sym)
			}
		}
	})

	t.Run("ConvergesToWeights", func(t *testing.T) {
		reel := Reel{
			{Symbol: "CHER", Weight: 5},
			{Symbol: "ONIO", Weight: 4},
			{Symbol: "CLOC", Weight: 3},
			{Symbol: "STAR", Weight: 2},
			{Symbol: "DIAMN", Weight: 1},
		}

		const samples = 30000
		counts := make(map[Symbol]int)
		for i := 0; i < samples; i++ {
			sym, err := s.DrawSymbol(reel)
			if err != nil {
				t.Fatalf("Failed to draw: %v", err)
			}
			counts[sym]++
		}

		var total float64
		for _, ws := range reel {
			total += ws.Weight
		}
		for _, ws := range reel {
			expected := ws.Weight / total
			observed := float64(counts[ws.Symbol]) / float64(samples)
			if math.Abs(observed-expected) > 0.02 {
				t.Errorf("Symbol %s: observed frequency %.4f, expected %.4f", ws.Symbol, observed, expected)
			}
		}
	})

	t.Run("RejectsEmptyReel", func(t *testing.T) {
		_, err := s.DrawSymbol(nil)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Expected config error for empty reel, got %v", err)
		}
	})

	t.Run("RejectsAllZeroWeights", func(t *testing.T) {
		reel := Reel{
			{Symbol: "CHER", Weight: 0},
			{Symbol: "STAR", Weight: 0},
		}
		_, err := s.DrawSymbol(reel)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Expected config error for zero-weight reel, got %v", err)
		}
	})

	t.Run("SingleSymbolAlwaysDrawn", func(t *testing.T) {
		reel := Reel{{Symbol: "WILD", Weight: 1}}
		for i := 0; i < 100; i++ {
			sym, err := s.DrawSymbol(reel)
			if err != nil {
				t.Fatalf("Failed to draw: %v", err)
			}
			if sym != "WILD" {
				t.Errorf("Expected WILD, got %s", sym)
			}
		}
	})
}

func TestDrawPrize(t *testing.T) {
	s := NewSampler(rng.New())

	t.Run("DrawsConfiguredPrizes", func(t *testing.T) {
		table := BonusPrizeTable{
			{Prize: decimal.Zero, Weight: 50},
			{Prize: decimal.NewFromInt(500), Weight: 10},
			{Prize: decimal.NewFromInt(5000), Weight: 1},
		}
		valid := map[string]bool{"0": true, "500": true, "5000": true}

		for i := 0; i < 1000; i++ {
			prize, err := s.DrawPrize(table)
			if err != nil {
				t.Fatalf("Failed to draw prize: %v", err)
			}
			if !valid[prize.String()] {
				t.Errorf("Drew prize %s not in table", prize)
			}
		}
	})

	t.Run("ZeroPrizeDominates", func(t *testing.T) {
		// Mirrors a real table: zero holds the bulk of the weight
		table := BonusPrizeTable{
			{Prize: decimal.Zero, Weight: 90},
			{Prize: decimal.NewFromInt(1000), Weight: 10},
		}

		const samples = 10000
		zeros := 0
		for i := 0; i < samples; i++ {
			prize, err := s.DrawPrize(table)
			if err != nil {
				t.Fatalf("Failed to draw prize: %v", err)
			}
			if prize.IsZero() {
				zeros++
			}
		}

		ratio := float64(zeros) / float64(samples)
		if ratio < 0.87 || ratio > 0.93 {
			t.Errorf("Expected ~0.90 zero-prize ratio, got %f", ratio)
		}
	})

	t.Run("RejectsEmptyTable", func(t *testing.T) {
		_, err := s.DrawPrize(nil)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Expected config error for empty table, got %v", err)
		}
	})
}

func TestSpin(t *testing.T) {
	s := NewSampler(rng.New())

	reel := Reel{
		{Symbol: "CHER", Weight: 5},
		{Symbol: "STAR", Weight: 2},
	}
	reels := ReelSet{reel, reel, reel, reel, reel}

	t.Run("ProducesFullGrid", func(t *testing.T) {
		grid, err := s.Spin(reels, 3)
		if err != nil {
			t.Fatalf("Failed to spin: %v", err)
		}
		if grid.Columns() != 5 {
			t.Errorf("Expected 5 columns, got %d", grid.Columns())
		}
		if grid.Rows() != 3 {
			t.Errorf("Expected 3 rows, got %d", grid.Rows())
		}
		for col := range grid {
			for row := range grid[col] {
				if grid[col][row] == "" {
					t.Errorf("Empty cell at [%d][%d]", col, row)
				}
			}
		}
	})

	t.Run("RejectsEmptyReelSet", func(t *testing.T) {
		_, err := s.Spin(nil, 3)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Expected config error for empty reel set, got %v", err)
		}
	})

	t.Run("RejectsZeroRows", func(t *testing.T) {
		_, err := s.Spin(reels, 0)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Expected config error for zero rows, got %v", err)
		}
	})
}
