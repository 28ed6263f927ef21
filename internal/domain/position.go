package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position aggregates one user's operations on one outcome token.
// Cash amounts are raw units.
type Position struct {
	UserID          string
	TokenID         string
	MarketID        string
	RealizedUSDC    decimal.Decimal // sum of SELL proceeds
	TotalSpent      decimal.Decimal // sum of BUY cost
	TokenBalance    decimal.Decimal // signed remaining token balance
	UnrealizedUSDC  decimal.Decimal // mark-to-market value of TokenBalance
	OperationsCount int
	DayEnter        time.Time
	DayExit         time.Time
}

// TotalGained returns realized plus unrealized value.
func (p *Position) TotalGained() decimal.Decimal {
	return p.RealizedUSDC.Add(p.UnrealizedUSDC)
}

// AbsoluteProfit returns realized + unrealized - total spent.
func (p *Position) AbsoluteProfit() decimal.Decimal {
	return p.TotalGained().Sub(p.TotalSpent)
}

// RelativeProfit returns (realized + unrealized) / total spent, or zero when nothing was spent.
// The value is a gross multiple: 1.2 means the position returned 120% of its cost.
func (p *Position) RelativeProfit() decimal.Decimal {
	if p.TotalSpent.IsZero() {
		return decimal.Zero
	}
	return p.TotalGained().Div(p.TotalSpent)
}

// NetReturn returns RelativeProfit minus one, or zero when nothing was spent.
func (p *Position) NetReturn() decimal.Decimal {
	if p.TotalSpent.IsZero() {
		return decimal.Zero
	}
	return p.RelativeProfit().Sub(decimal.NewFromInt(1))
}
