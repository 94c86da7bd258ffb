package domain

import (
	"testing"
)

func TestNewMoney(t *testing.T) {
	t.Run("ExactCentsFromMajorUnits", func(t *testing.T) {
		// Amounts with no exact binary representation must still land on
		// the right cent.
		cases := []struct {
			amount float64
			cents  int64
		}{
			{4.35, 435},
			{0.1, 10},
			{0.29, 29},
			{19.99, 1999},
			{100.0, 10000},
			{0, 0},
		}
		for _, tc := range cases {
			got := NewMoney(tc.amount, "USD")
			if got.Amount != tc.cents {
				t.Errorf("NewMoney(%v): expected %d cents, got %d", tc.amount, tc.cents, got.Amount)
			}
		}
	})

	t.Run("RoundTripsThroughFloat64", func(t *testing.T) {
		m := NewMoney(4.35, "USD")
		if m.Float64() != 4.35 {
			t.Errorf("Expected 4.35, got %v", m.Float64())
		}
	})
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Amount: 1050, Currency: "USD"}
	b := Money{Amount: 325, Currency: "USD"}

	if got := a.Add(b); got.Amount != 1375 {
		t.Errorf("Add: expected 1375, got %d", got.Amount)
	}
	if got := a.Sub(b); got.Amount != 725 {
		t.Errorf("Sub: expected 725, got %d", got.Amount)
	}
	if !a.Decimal().Equal(b.Decimal().Add(Money{Amount: 725}.Decimal())) {
		t.Error("Decimal conversion must preserve cents exactly")
	}
}
