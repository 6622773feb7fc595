package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitHundredDollars(t *testing.T) {
	seller, commission := Split(decimal.RequireFromString("100"))

	if !seller.Equal(decimal.RequireFromString("75")) {
		t.Fatalf("expected seller 75.00, got %s", seller)
	}
	if !commission.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("expected commission 25.00, got %s", commission)
	}
}

func TestSplitSumsToRoundedPrice(t *testing.T) {
	// Sweep prices from 0.01 upward in odd steps to catch rounding drift.
	price := decimal.RequireFromString("0.01")
	step := decimal.RequireFromString("0.07")
	limit := decimal.RequireFromString("250")

	for price.LessThan(limit) {
		seller, commission := Split(price)

		if seller.Add(commission).Cmp(price.Round(2)) != 0 {
			t.Fatalf("price %s: seller %s + commission %s != %s", price, seller, commission, price.Round(2))
		}
		if !seller.Equal(price.Mul(decimal.RequireFromString("0.75")).Round(2)) {
			t.Fatalf("price %s: seller %s is not round(0.75p, 2)", price, seller)
		}
		if seller.IsNegative() || commission.IsNegative() {
			t.Fatalf("price %s: negative share seller=%s commission=%s", price, seller, commission)
		}

		price = price.Add(step)
	}
}

func TestSplitHalfUpRounding(t *testing.T) {
	// 0.75 * 0.02 = 0.015, which must round up to 0.02.
	seller, commission := Split(decimal.RequireFromString("0.02"))
	if !seller.Equal(decimal.RequireFromString("0.02")) {
		t.Fatalf("expected half-up seller 0.02, got %s", seller)
	}
	if !commission.Equal(decimal.Zero) {
		t.Fatalf("expected commission 0.00, got %s", commission)
	}
}
