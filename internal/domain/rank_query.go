package domain

import (
	"errors"
	"fmt"
)

// DefaultRankLimit is the number of top wallets ranked when no limit is given.
const DefaultRankLimit = 10000

// DefaultLiquidityAgents are the exchange contracts that settle fills on behalf of traders.
// They appear as counterparties in most fills and are never ranked.
var DefaultLiquidityAgents = []string{
	"0x4bfb41d5b3570defd03c39a9a4d8de6bd8b8982e", // CTF exchange
	"0xc5d563a36ae78145c45a50134d48a1215220f80a", // neg-risk CTF exchange
}

// ErrInvalidLimit is returned when a rank limit is negative.
var ErrInvalidLimit = errors.New("rank limit must not be negative")

// RankQuery parameterizes one reconstruction/aggregation run.
type RankQuery struct {
	Limit           int      // top N wallets by profit
	CashAssetID     string   // asset id of the cash side
	LiquidityAgents []string // addresses never ranked as primary traders
}

// NewRankQuery returns a query with the default cash asset and liquidity agents.
func NewRankQuery(limit int) RankQuery {
	agents := make([]string, len(DefaultLiquidityAgents))
	copy(agents, DefaultLiquidityAgents)
	return RankQuery{
		Limit:           limit,
		CashAssetID:     CashAssetID,
		LiquidityAgents: agents,
	}
}

// Validate checks the query before it is built into SQL or evaluated.
func (q RankQuery) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, q.Limit)
	}
	if q.CashAssetID == "" {
		return errors.New("cash asset id is required")
	}
	for i, a := range q.LiquidityAgents {
		if NormalizeAddress(a) == "" {
			return fmt.Errorf("liquidity agent %d is empty", i)
		}
	}
	return nil
}

// Agents returns the normalized liquidity agent set.
func (q RankQuery) Agents() AddressSet {
	return NewAddressSet(q.LiquidityAgents)
}
