package game

import (
	"github.com/reelhouse/engine/internal/rng"
	"github.com/shopspring/decimal"
)

// Sampler draws symbols and bonus prizes from weighted distributions using
// the crypto RNG service.
type Sampler struct {
	rng *rng.Service
}

// NewSampler creates a sampler backed by the given RNG service.
func NewSampler(r *rng.Service) *Sampler {
	return &Sampler{rng: r}
}

// DrawSymbol draws one symbol from a reel. Weights are normalized at draw
// time; selection walks the cumulative distribution and falls back to the
// last symbol should floating error leave no bucket selected.
func (s *Sampler) DrawSymbol(reel Reel) (Symbol, error) {
	if len(reel) == 0 {
		return "", configErrorf("cannot draw from an empty reel")
	}

	weights := make([]float64, len(reel))
	for i, ws := range reel {
		weights[i] = ws.Weight
	}

	idx, err := s.rng.SelectWeighted(weights)
	if err != nil {
		return "", configErrorf("reel draw: %v", err)
	}
	return reel[idx].Symbol, nil
}

// DrawPrize draws one prize amount from the bonus prize table. The same
// cumulative-weight selection as DrawSymbol, over discrete prize amounts;
// zero is a valid and intentionally likely outcome.
func (s *Sampler) DrawPrize(table BonusPrizeTable) (decimal.Decimal, error) {
	if len(table) == 0 {
		return decimal.Zero, configErrorf("cannot draw from an empty prize table")
	}

	weights := make([]float64, len(table))
	for i, p := range table {
		weights[i] = p.Weight
	}

	idx, err := s.rng.SelectWeighted(weights)
	if err != nil {
		return decimal.Zero, configErrorf("prize draw: %v", err)
	}
	return table[idx].Prize, nil
}

// Spin builds the visible grid for one spin: for each column, rows
// independent identically distributed draws against that column's reel.
// Columns are statistically independent of each other.
func (s *Sampler) Spin(reels ReelSet, rows int) (Grid, error) {
	if len(reels) == 0 {
		return nil, configErrorf("cannot spin an empty reel set")
	}
	if rows < 1 {
		return nil, configErrorf("grid rows must be >= 1, got %d", rows)
	}

	grid := make(Grid, len(reels))
	for col, reel := range reels {
		grid[col] = make([]Symbol, rows)
		for row := 0; row < rows; row++ {
			sym, err := s.DrawSymbol(reel)
			if err != nil {
				return nil, err
			}
			grid[col][row] = sym
		}
	}
	return grid, nil
}
