package game

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// uniformGrid builds a 5x3 grid filled with one symbol.
func uniformGrid(sym Symbol) Grid {
	grid := make(Grid, 5)
	for col := range grid {
		grid[col] = []Symbol{sym, sym, sym}
	}
	return grid
}

// rowGrid builds a 5x3 grid whose middle row holds the given symbols and
// whose other rows hold filler.
func rowGrid(middle [5]Symbol) Grid {
	grid := make(Grid, 5)
	for col := range grid {
		grid[col] = []Symbol{"XXXX", middle[col], "XXXX"}
	}
	return grid
}

func TestMatchLine(t *testing.T) {
	t.Run("ExactMatch", func(t *testing.T) {
		line := []Symbol{"CHER", "CHER", "CHER", "STAR", "STAR"}
		ok, err := MatchLine(line, []Symbol{"CHER", "CHER", "CHER", "STAR", "STAR"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !ok {
			t.Error("Expected exact pattern to match")
		}
	})

	t.Run("WildcardMatchesAnything", func(t *testing.T) {
		line := []Symbol{"CHER", "ONIO", "CLOC", "STAR", "DIAMN"}
		ok, err := MatchLine(line, []Symbol{"CHER", "*", "*", "*", "*"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !ok {
			t.Error("Expected wildcard pattern to match")
		}
	})

	t.Run("PositionalMismatch", func(t *testing.T) {
		// Same multiset of symbols, different positions
		line := []Symbol{"STAR", "CHER", "CHER", "CHER", "STAR"}
		ok, err := MatchLine(line, []Symbol{"CHER", "CHER", "CHER", "STAR", "STAR"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if ok {
			t.Error("Expected positional mismatch to fail")
		}
	})

	t.Run("WildcardInLineIsLiteral", func(t *testing.T) {
		// A wildcard is only special inside the pattern
		line := []Symbol{"CHER", "CHER", "CHER", "CHER", "CHER"}
		ok, err := MatchLine(line, []Symbol{"WILD", "CHER", "CHER", "CHER", "CHER"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if ok {
			t.Error("WILD symbol in pattern must not act as a wildcard")
		}
	})

	t.Run("LengthMismatchIsConfigError", func(t *testing.T) {
		line := []Symbol{"CHER", "CHER", "CHER", "CHER", "CHER"}
		_, err := MatchLine(line, []Symbol{"CHER", "CHER", "CHER"})
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Expected config error for length mismatch, got %v", err)
		}
	})
}

func TestEvaluate(t *testing.T) {
	paylines := []Payline{
		{1, 1, 1, 1, 1},
		{0, 0, 0, 0, 0},
		{2, 2, 2, 2, 2},
	}

	t.Run("FirstMatchWinsPerPayline", func(t *testing.T) {
		table := PayTable{
			{Pattern: []Symbol{"CHER", "CHER", "CHER", "CHER", "CHER"}, Points: 100, Payout: decimal.NewFromInt(50)},
			{Pattern: []Symbol{"CHER", "CHER", "CHER", "*", "*"}, Points: 10, Payout: decimal.NewFromInt(5)},
		}
		grid := rowGrid([5]Symbol{"CHER", "CHER", "CHER", "CHER", "CHER"})

		outcome, err := Evaluate(grid, []Payline{{1, 1, 1, 1, 1}}, table)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if len(outcome.LineWins) != 1 {
			t.Fatalf("Expected exactly 1 line win, got %d", len(outcome.LineWins))
		}
		if outcome.LineWins[0].Entry != 0 {
			t.Errorf("Expected first entry to win, got entry %d", outcome.LineWins[0].Entry)
		}
		if outcome.TotalPoints != 100 {
			t.Errorf("Expected 100 points, got %d", outcome.TotalPoints)
		}
	})

	t.Run("PointsAccumulateAcrossPaylines", func(t *testing.T) {
		table := PayTable{
			{Pattern: []Symbol{"CHER", "CHER", "CHER", "*", "*"}, Points: 10, Payout: decimal.NewFromInt(5)},
		}
		grid := uniformGrid("CHER")

		outcome, err := Evaluate(grid, paylines, table)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if outcome.TotalPoints != 30 {
			t.Errorf("Expected 30 points across 3 paylines, got %d", outcome.TotalPoints)
		}
		if !outcome.TotalPayout.Equal(decimal.NewFromInt(15)) {
			t.Errorf("Expected total payout 15, got %s", outcome.TotalPayout)
		}
		if !outcome.MaxPayout.Equal(decimal.NewFromInt(5)) {
			t.Errorf("Expected max payout 5, got %s", outcome.MaxPayout)
		}
	})

	t.Run("NoMatchesYieldsEmptyOutcome", func(t *testing.T) {
		table := PayTable{
			{Pattern: []Symbol{"CHER", "CHER", "CHER", "CHER", "CHER"}, Points: 100, Payout: decimal.NewFromInt(50)},
		}
		grid := uniformGrid("STAR")

		outcome, err := Evaluate(grid, paylines, table)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if outcome.TotalPoints != 0 || len(outcome.LineWins) != 0 {
			t.Errorf("Expected empty outcome, got points=%d wins=%d", outcome.TotalPoints, len(outcome.LineWins))
		}
		if !outcome.TotalPayout.IsZero() {
			t.Errorf("Expected zero payout, got %s", outcome.TotalPayout)
		}
	})

	t.Run("TriggersDeduplicated", func(t *testing.T) {
		table := PayTable{
			{Pattern: []Symbol{"BONUS", "BONUS", "BONUS", "*", "*"}, Points: 50, Payout: decimal.NewFromInt(10), Trigger: TriggerBonusGame},
		}
		grid := uniformGrid("BONUS")

		outcome, err := Evaluate(grid, paylines, table)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if len(outcome.Triggers) != 1 {
			t.Fatalf("Expected 1 deduplicated trigger, got %v", outcome.Triggers)
		}
		if outcome.Triggers[0] != TriggerBonusGame {
			t.Errorf("Expected %s trigger, got %s", TriggerBonusGame, outcome.Triggers[0])
		}
		if !outcome.Triggered(TriggerBonusGame) {
			t.Error("Triggered should report bonus_game")
		}
		if outcome.Triggered(TriggerJackpot) {
			t.Error("Triggered should not report jackpot")
		}
	})

	t.Run("DefaultMathJackpotGrid", func(t *testing.T) {
		cfg := DefaultConfig()
		grid := uniformGrid("JACKP")

		outcome, err := Evaluate(grid, cfg.Lines, cfg.Table)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		// Five jackpot symbols on every payline pay the top entry each
		expected := int64(10000 * len(cfg.Lines))
		if outcome.TotalPoints != expected {
			t.Errorf("Expected %d points for an all-jackpot grid, got %d", expected, outcome.TotalPoints)
		}
		if !outcome.Triggered(TriggerJackpot) {
			t.Error("Expected jackpot trigger on all-jackpot grid")
		}
	})
}

func TestMeetsCountRule(t *testing.T) {
	t.Run("CountsAcrossFlattenedGrid", func(t *testing.T) {
		grid := Grid{
			{"JACKP", "CHER", "CHER"},
			{"CHER", "JACKP", "CHER"},
			{"CHER", "CHER", "JACKP"},
			{"CHER", "CHER", "CHER"},
			{"CHER", "CHER", "CHER"},
		}
		if !MeetsCountRule(grid, CountRule{Symbol: "JACKP", Required: 3}) {
			t.Error("Expected rule met: 3 scattered symbols")
		}
		if MeetsCountRule(grid, CountRule{Symbol: "JACKP", Required: 4}) {
			t.Error("Expected rule not met: only 3 symbols present")
		}
	})

	t.Run("PaylinesIrrelevant", func(t *testing.T) {
		// All three in one column, off every straight payline's path
		grid := Grid{
			{"JACKP", "JACKP", "JACKP"},
			{"CHER", "CHER", "CHER"},
			{"CHER", "CHER", "CHER"},
			{"CHER", "CHER", "CHER"},
			{"CHER", "CHER", "CHER"},
		}
		if !MeetsCountRule(grid, CountRule{Symbol: "JACKP", Required: 3}) {
			t.Error("Expected rule met regardless of payline geometry")
		}
	})
}
