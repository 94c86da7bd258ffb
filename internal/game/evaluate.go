package game

import (
	"github.com/shopspring/decimal"
)

// MatchLine reports whether a line of symbols matches a pay table pattern.
// Comparison is positional: a wildcard matches anything, any other pattern
// symbol requires exact equality. A length mismatch is a configuration
// fault; it can never occur for config that passed validation.
func MatchLine(line, pattern []Symbol) (bool, error) {
	if len(line) != len(pattern) {
		return false, configErrorf("line length %d != pattern length %d", len(line), len(pattern))
	}
	for i, p := range pattern {
		if p == Wildcard {
			continue
		}
		if line[i] != p {
			return false, nil
		}
	}
	return true, nil
}

// Evaluate runs the pattern matcher across every configured payline.
//
// A payline pays at most one pay table entry: entries are tested in
// declaration order and the first match wins, so tables should list
// highest-value entries first. Points accumulate across paylines, the
// maximum single-entry payout is tracked, and trigger tags are collected
// deduplicated in first-seen order.
func Evaluate(grid Grid, paylines []Payline, table PayTable) (*SpinOutcome, error) {
	outcome := &SpinOutcome{
		Grid:        grid,
		MaxPayout:   decimal.Zero,
		TotalPayout: decimal.Zero,
	}
	seen := make(map[string]bool)

	for li, payline := range paylines {
		line := payline.Line(grid)

		for ei, entry := range table {
			ok, err := MatchLine(line, entry.Pattern)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			outcome.TotalPoints += entry.Points
			outcome.TotalPayout = outcome.TotalPayout.Add(entry.Payout)
			if entry.Payout.GreaterThan(outcome.MaxPayout) {
				outcome.MaxPayout = entry.Payout
			}
			if entry.Trigger != "" && !seen[entry.Trigger] {
				seen[entry.Trigger] = true
				outcome.Triggers = append(outcome.Triggers, entry.Trigger)
			}
			outcome.LineWins = append(outcome.LineWins, LineWin{
				Line:    li,
				Entry:   ei,
				Symbols: line,
				Points:  entry.Points,
				Payout:  entry.Payout,
			})
			break // first match per payline
		}
	}

	return outcome, nil
}

// MeetsCountRule reports whether a grid-wide symbol count condition holds:
// the rule's symbol appears at least Required times anywhere in the
// flattened grid, independent of paylines.
func MeetsCountRule(grid Grid, rule CountRule) bool {
	return grid.Count(rule.Symbol) >= rule.Required
}
