// Package game implements the spin and settlement engine: weighted symbol
// sampling, grid generation, payline evaluation, bonus prize draws and the
// orchestration that ties them to the wallet and jackpot pool.
package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Symbol represents a slot reel symbol. The alphabet is supplied by the
// config provider; the engine only requires symbols to be non-empty.
type Symbol string

// Wildcard matches any symbol at its position in a pay table pattern.
const Wildcard Symbol = "*"

// Trigger tags a pay table entry or grid condition with a secondary effect.
const (
	TriggerBonusGame = "bonus_game"
	TriggerFreeSpins = "free_spins"
	TriggerJackpot   = "jackpot"
)

// ConfigError reports malformed game configuration. It is fatal: the engine
// refuses to spin rather than produce undefined output.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "game config: " + e.Reason
}

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// WeightedSymbol is one symbol on a reel together with its draw weight.
// Order is significant: draws walk the cumulative distribution in slice
// order, so a reel's distribution is stable across processes.
type WeightedSymbol struct {
	Symbol Symbol  `yaml:"symbol"`
	Weight float64 `yaml:"weight"`
}

// Reel is a weighted symbol distribution for one grid column.
type Reel []WeightedSymbol

// ReelSet is an ordered sequence of reels, one per grid column.
type ReelSet []Reel

// Grid is the visible symbol matrix for one spin, indexed [column][row].
// It is created fresh per spin and never mutated afterwards.
type Grid [][]Symbol

// Columns returns the number of reel columns.
func (g Grid) Columns() int { return len(g) }

// Rows returns the number of visible rows.
func (g Grid) Rows() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Count returns how many cells of the flattened grid hold the given symbol.
func (g Grid) Count(sym Symbol) int {
	n := 0
	for _, col := range g {
		for _, s := range col {
			if s == sym {
				n++
			}
		}
	}
	return n
}

// Strings returns the grid as plain string columns for record storage.
func (g Grid) Strings() [][]string {
	out := make([][]string, len(g))
	for i, col := range g {
		out[i] = make([]string, len(col))
		for j, s := range col {
			out[i][j] = string(s)
		}
	}
	return out
}

// Payline defines a path through the grid: one row index per column.
type Payline []int

// Line extracts the payline's symbols from the grid.
func (p Payline) Line(g Grid) []Symbol {
	line := make([]Symbol, len(p))
	for col, row := range p {
		line[col] = g[col][row]
	}
	return line
}

// PayTableEntry is one winning pattern: an ordered sequence of symbols or
// wildcards the same length as a payline, with its points, payout multiplier
// (applied to the bet) and optional trigger tag.
type PayTableEntry struct {
	Pattern []Symbol        `yaml:"pattern"`
	Points  int64           `yaml:"points"`
	Payout  decimal.Decimal `yaml:"payout"`
	Trigger string          `yaml:"trigger,omitempty"`
}

// PayTable is an ordered list of entries. Declaration order is the conflict
// resolution order: a payline pays at most one entry, the first that
// matches, so tables should list highest-value entries first.
type PayTable []PayTableEntry

// LineWin records one payline matching one pay table entry.
type LineWin struct {
	Line    int             `json:"line"`    // payline index, 0-based
	Entry   int             `json:"entry"`   // pay table entry index
	Symbols []Symbol        `json:"symbols"`
	Points  int64           `json:"points"`
	Payout  decimal.Decimal `json:"payout"`  // multiplier of the bet
}

// SpinOutcome aggregates the evaluation of one grid across all paylines.
type SpinOutcome struct {
	Grid        Grid            `json:"grid"`
	TotalPoints int64           `json:"total_points"`
	LineWins    []LineWin       `json:"line_wins"`
	Triggers    []string        `json:"triggers"`     // deduplicated, in first-seen order
	MaxPayout   decimal.Decimal `json:"max_payout"`   // largest single-entry multiplier seen
	TotalPayout decimal.Decimal `json:"total_payout"` // sum of multipliers across paylines
}

// Triggered reports whether a trigger tag was collected during evaluation.
func (o *SpinOutcome) Triggered(tag string) bool {
	for _, t := range o.Triggers {
		if t == tag {
			return true
		}
	}
	return false
}

// BonusPrize is one entry of the bonus prize table: a fixed prize amount
// in cents, with a draw weight. A zero prize is a valid and typically the
// most likely outcome.
type BonusPrize struct {
	Prize  decimal.Decimal `yaml:"prize"`
	Weight float64         `yaml:"weight"`
}

// BonusPrizeTable is a fixed weighted list of prizes, structurally a reel
// that draws one discrete prize instead of a symbol.
type BonusPrizeTable []BonusPrize
