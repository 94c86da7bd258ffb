// Package domain contains the core data model shared across the engine:
// monetary values, player balances, and the spin record that is handed to
// the ledger store after every settlement.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value in the smallest currency unit (cents).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewMoney creates a Money value from a major-unit amount. The conversion
// goes through decimal so binary float amounts land on exact cents.
func NewMoney(amount float64, currency string) Money {
	cents := decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return Money{
		Amount:   cents,
		Currency: currency,
	}
}

// Float64 returns the monetary value in major units.
func (m Money) Float64() float64 {
	return float64(m.Amount) / 100.0
}

// Decimal returns the amount in cents as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount)
}

// Add adds two money values.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Sub subtracts a money value.
func (m Money) Sub(other Money) Money {
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Balance represents the authoritative wallet state for one player.
// Cash is the bettable balance; Tokens is an optional secondary balance
// that settlement never touches.
type Balance struct {
	PlayerID  string    `json:"player_id"`
	Cash      Money     `json:"cash"`
	Tokens    Money     `json:"tokens"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SpinRecord is the immutable per-spin transaction record. It is the one
// durable artifact of a spin and its shape is a stable schema for any
// downstream reporting.
type SpinRecord struct {
	ID           string          `json:"id"`
	PlayerID     string          `json:"player_id"`
	Timestamp    time.Time       `json:"timestamp"`
	Grid         [][]string      `json:"grid"` // columns × rows, as drawn
	Bet          Money           `json:"bet"`
	Points       int64           `json:"points"`
	RegularWin   Money           `json:"regular_win"`
	BonusWin     Money           `json:"bonus_win"`
	JackpotWin   Money           `json:"jackpot_win"`
	TotalWin     Money           `json:"total_win"` // payable amount after house edge
	BalanceAfter Money           `json:"balance_after"`
	JackpotPool  decimal.Decimal `json:"jackpot_pool"` // pool value at spin time, cents
	Triggers     []string        `json:"triggers,omitempty"`
}

// SessionStats carries running totals for return-to-player monitoring.
type SessionStats struct {
	TotalSpins   int64 `json:"total_spins"`
	TotalWagered Money `json:"total_wagered"`
	TotalWon     Money `json:"total_won"`
	// RTP is total won over total wagered, 0 when nothing wagered yet.
	RTP float64 `json:"rtp"`
}

// EventSeverity represents audit event severity.
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityError    EventSeverity = "error"
	SeverityCritical EventSeverity = "critical"
)

// AuditEvent represents a significant event recorded for later review.
type AuditEvent struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	Severity    EventSeverity `json:"severity"`
	Timestamp   time.Time     `json:"timestamp"`
	PlayerID    *string       `json:"player_id,omitempty"`
	Description string        `json:"description"`
	Data        []byte        `json:"data,omitempty"`
	Component   string        `json:"component"`
}
