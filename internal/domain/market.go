package domain

import "time"

// Market is a prediction market and its outcome tokens.
// Corresponds to the markets fact table of the analytical store.
type Market struct {
	MarketID      string        // question id
	ConditionID   string        // empty for markets not yet registered on-chain
	Tokens        []MarketToken // outcome tokens, one per outcome
	WinnerTokenID string        // empty if unresolved
	EndDate       time.Time
}

// MarketToken pairs an outcome token id with its outcome description.
type MarketToken struct {
	TokenID string
	Outcome string
}

// IsResolved reports whether the market has a recorded winner token.
func (m *Market) IsResolved() bool {
	return m.WinnerTokenID != ""
}
