package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"polymarket-smartmoney/internal/domain"
)

// rawUnitsPerUSDC scales raw cash amounts to whole USDC.
var rawUnitsPerUSDC = decimal.New(1, 6)

// pricePlaces is the precision of last traded prices used to mark open positions.
const pricePlaces = 2

// LastPrices returns, per token, the price of its most recent operation across all users.
// Prices are truncated to cents. Equal timestamps resolve to the later operation in ops order.
func LastPrices(ops []*domain.Operation) map[string]decimal.Decimal {
	type last struct {
		ts    int64
		price decimal.Decimal
	}
	latest := make(map[string]last)
	for _, op := range ops {
		ts := op.Timestamp.UnixNano()
		if prev, ok := latest[op.TokenID]; ok && ts < prev.ts {
			continue
		}
		latest[op.TokenID] = last{ts: ts, price: op.Price()}
	}

	prices := make(map[string]decimal.Decimal, len(latest))
	for token, l := range latest {
		prices[token] = l.price.Truncate(pricePlaces)
	}
	return prices
}

// BuildPositions aggregates operations per (user, token) and marks the remaining balance.
//
// Resolved markets pay 1 per unit of the winning token and 0 otherwise; open balances in
// unresolved markets are valued at the token's last traded price.
// The result is ordered by user, token.
func BuildPositions(ops []*domain.Operation, markets MarketIndex) []*domain.Position {
	type key struct{ user, token string }
	byKey := make(map[key]*domain.Position)

	for _, op := range ops {
		k := key{user: op.UserID, token: op.TokenID}
		p, ok := byKey[k]
		if !ok {
			p = &domain.Position{
				UserID:   op.UserID,
				TokenID:  op.TokenID,
				MarketID: op.MarketID,
				DayEnter: op.Timestamp,
				DayExit:  op.Timestamp,
			}
			byKey[k] = p
		}

		switch op.Type {
		case domain.OperationSell:
			p.RealizedUSDC = p.RealizedUSDC.Add(op.USDCBalanceChange)
		case domain.OperationBuy:
			p.TotalSpent = p.TotalSpent.Add(op.USDCBalanceChange.Neg())
		}
		p.TokenBalance = p.TokenBalance.Add(op.TokenBalanceChange)
		p.OperationsCount++

		if op.MarketID > p.MarketID {
			p.MarketID = op.MarketID
		}
		if op.Timestamp.Before(p.DayEnter) {
			p.DayEnter = op.Timestamp
		}
		if op.Timestamp.After(p.DayExit) {
			p.DayExit = op.Timestamp
		}
	}

	prices := LastPrices(ops)
	positions := make([]*domain.Position, 0, len(byKey))
	for _, p := range byKey {
		p.UnrealizedUSDC = unrealizedValue(p, markets[p.TokenID], prices[p.TokenID])
		positions = append(positions, p)
	}

	sort.Slice(positions, func(i, j int) bool {
		if positions[i].UserID != positions[j].UserID {
			return positions[i].UserID < positions[j].UserID
		}
		return positions[i].TokenID < positions[j].TokenID
	})
	return positions
}

// unrealizedValue marks a position's remaining balance.
func unrealizedValue(p *domain.Position, m *domain.Market, lastPrice decimal.Decimal) decimal.Decimal {
	balance := p.TokenBalance.Truncate(pricePlaces)
	if m != nil && m.IsResolved() {
		if m.WinnerTokenID == p.TokenID {
			return balance
		}
		return decimal.Zero
	}
	return lastPrice.Mul(balance)
}

// AggregateWallets rolls positions up to one WalletMetrics per user, annualized.
// Output order is by wallet address; callers rank with SortByProfit.
func AggregateWallets(positions []*domain.Position) []*domain.WalletMetrics {
	byUser := make(map[string][]*domain.Position)
	var users []string
	for _, p := range positions {
		if _, ok := byUser[p.UserID]; !ok {
			users = append(users, p.UserID)
		}
		byUser[p.UserID] = append(byUser[p.UserID], p)
	}
	sort.Strings(users)

	wallets := make([]*domain.WalletMetrics, 0, len(users))
	for _, u := range users {
		wallets = append(wallets, computeWallet(u, byUser[u]))
	}
	return wallets
}

// computeWallet calculates the metrics of one wallet from its positions.
func computeWallet(wallet string, positions []*domain.Position) *domain.WalletMetrics {
	n := decimal.NewFromInt(int64(len(positions)))
	markets := make(map[string]struct{})

	var profit, gained, spent, roiSum decimal.Decimal
	opsSum := 0
	first, last := positions[0].DayEnter, positions[0].DayExit

	for _, p := range positions {
		markets[p.MarketID] = struct{}{}
		profit = profit.Add(p.AbsoluteProfit())
		gained = gained.Add(p.TotalGained())
		spent = spent.Add(p.TotalSpent)
		roiSum = roiSum.Add(p.RelativeProfit())
		opsSum += p.OperationsCount
		if p.DayEnter.Before(first) {
			first = p.DayEnter
		}
		if p.DayExit.After(last) {
			last = p.DayExit
		}
	}

	returned := gained.Div(rawUnitsPerUSDC)
	invested := spent.Div(rawUnitsPerUSDC)
	portfolioROI := decimal.Zero
	if !invested.IsZero() {
		portfolioROI = returned.Div(invested)
	}

	w := &domain.WalletMetrics{
		WalletAddress:        wallet,
		PositionsCount:       len(positions),
		MarketsCount:         len(markets),
		AvgTradesPerPosition: decimal.NewFromInt(int64(opsSum)).Div(n).InexactFloat64(),
		ProfitUSDC:           profit.Div(rawUnitsPerUSDC).InexactFloat64(),
		AvgROI:               roiSum.Div(n).InexactFloat64(),
		TotalReturnedUSDC:    returned.InexactFloat64(),
		TotalInvestedUSDC:    invested.InexactFloat64(),
		PortfolioROI:         portfolioROI.InexactFloat64(),
		FirstTradeAt:         first,
		LastTradeAt:          last,
	}
	ApplyAnnualization(w)
	return w
}
