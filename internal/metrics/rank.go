package metrics

import (
	"sort"

	"polymarket-smartmoney/internal/domain"
)

// Rank runs reconstruction and aggregation over raw facts and returns the
// top q.Limit wallets by profit. A zero limit returns no wallets.
func Rank(fills []*domain.Fill, markets []*domain.Market, q domain.RankQuery) ([]*domain.WalletMetrics, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Limit == 0 {
		return nil, nil
	}

	idx := NewMarketIndex(markets)
	ops := Reconstruct(fills, idx, q)
	positions := BuildPositions(ops, idx)
	wallets := AggregateWallets(positions)

	SortByProfit(wallets)
	if len(wallets) > q.Limit {
		wallets = wallets[:q.Limit]
	}
	return wallets, nil
}

// SortByProfit orders wallets by profit descending, then wallet address ascending.
func SortByProfit(wallets []*domain.WalletMetrics) {
	sort.SliceStable(wallets, func(i, j int) bool {
		if wallets[i].ProfitUSDC != wallets[j].ProfitUSDC {
			return wallets[i].ProfitUSDC > wallets[j].ProfitUSDC
		}
		return wallets[i].WalletAddress < wallets[j].WalletAddress
	})
}
