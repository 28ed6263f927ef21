package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType is the direction of an operation from the user's point of view.
type OperationType string

// Operation types
const (
	OperationBuy  OperationType = "BUY"
	OperationSell OperationType = "SELL"
)

// Operation is one directional trade derived from a fill for a single user.
// Operations are derived on every run and never persisted.
type Operation struct {
	FillID             string // base fill id
	UserID             string
	CounterpartyID     string
	MarketID           string
	Timestamp          time.Time
	Type               OperationType
	TokenID            string
	TokenBalanceChange decimal.Decimal // + on BUY, - on SELL
	USDCBalanceChange  decimal.Decimal // - on BUY, + on SELL
}

// Price returns the cash paid or received per token unit.
// Returns zero when the operation moved no tokens.
func (o *Operation) Price() decimal.Decimal {
	if o.TokenBalanceChange.IsZero() {
		return decimal.Zero
	}
	return o.USDCBalanceChange.Neg().Div(o.TokenBalanceChange)
}
