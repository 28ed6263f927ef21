package metrics

import (
	"math/big"
	"sort"

	"github.com/shopspring/decimal"

	"polymarket-smartmoney/internal/domain"
)

// MarketIndex maps an outcome token id to its market.
type MarketIndex map[string]*domain.Market

// NewMarketIndex indexes markets by token id.
// Markets without a condition id are not tradable and are skipped.
// A token belongs to exactly one market; later duplicates are ignored.
func NewMarketIndex(markets []*domain.Market) MarketIndex {
	idx := make(MarketIndex)
	for _, m := range markets {
		if m == nil || m.ConditionID == "" {
			continue
		}
		for _, t := range m.Tokens {
			if _, exists := idx[t.TokenID]; exists {
				continue
			}
			idx[t.TokenID] = m
		}
	}
	return idx
}

// candidate is one side of a fill viewed as the user's trade.
type candidate struct {
	op       *domain.Operation
	priority int
}

// Reconstruct expands fills into directional operations, one per fill per user.
//
// Each fill yields a candidate for the maker and one for the taker. Candidates whose user
// is a liquidity agent are dropped, which removes agent-to-agent fills entirely. Among the
// candidates sharing (user, base fill id) the one whose counterparty is a liquidity agent
// wins; remaining ties keep the earliest candidate.
//
// Deleted fills, fills without a cash side and fills on tokens with no market are skipped.
// The result is ordered by timestamp, fill id, user.
func Reconstruct(fills []*domain.Fill, markets MarketIndex, q domain.RankQuery) []*domain.Operation {
	agents := q.Agents()
	cash := q.CashAssetID

	sorted := make([]*domain.Fill, 0, len(fills))
	for _, f := range fills {
		if f == nil || f.IsDeleted || !f.InvolvesCash(cash) {
			continue
		}
		sorted = append(sorted, f)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})

	type key struct{ user, fill string }
	picked := make(map[key]*candidate)
	var order []key

	for _, f := range sorted {
		for _, makerSide := range []bool{true, false} {
			op := expandSide(f, makerSide, cash)
			if agents.Contains(op.UserID) {
				continue
			}
			m, ok := markets[op.TokenID]
			if !ok {
				continue
			}
			op.MarketID = m.MarketID

			c := &candidate{op: op, priority: 1}
			if agents.Contains(op.CounterpartyID) {
				c.priority = 2
			}

			k := key{user: op.UserID, fill: op.FillID}
			prev, exists := picked[k]
			if !exists {
				picked[k] = c
				order = append(order, k)
				continue
			}
			if c.priority > prev.priority {
				picked[k] = c
			}
		}
	}

	ops := make([]*domain.Operation, 0, len(order))
	for _, k := range order {
		ops = append(ops, picked[k].op)
	}
	sort.SliceStable(ops, func(i, j int) bool {
		if !ops[i].Timestamp.Equal(ops[j].Timestamp) {
			return ops[i].Timestamp.Before(ops[j].Timestamp)
		}
		if ops[i].FillID != ops[j].FillID {
			return ops[i].FillID < ops[j].FillID
		}
		return ops[i].UserID < ops[j].UserID
	})
	return ops
}

// expandSide builds the operation for the maker (makerSide) or the taker of a fill.
// assetIn is what the user gives up: cash means the user buys tokens.
func expandSide(f *domain.Fill, makerSide bool, cash string) *domain.Operation {
	user, counterparty := f.Maker, f.Taker
	assetIn, assetOut := f.MakerAssetID, f.TakerAssetID
	inAmount, outAmount := f.MakerAmountFilled, f.TakerAmountFilled
	if !makerSide {
		user, counterparty = f.Taker, f.Maker
		assetIn, assetOut = f.TakerAssetID, f.MakerAssetID
		inAmount, outAmount = f.TakerAmountFilled, f.MakerAmountFilled
	}

	op := &domain.Operation{
		FillID:         f.BaseID(),
		UserID:         domain.NormalizeAddress(user),
		CounterpartyID: domain.NormalizeAddress(counterparty),
		Timestamp:      f.Timestamp.UTC(),
	}

	if assetIn == cash {
		usdc := fromRaw(inAmount)
		tokens := fromRaw(outAmount)
		op.Type = domain.OperationBuy
		op.TokenID = assetOut
		op.TokenBalanceChange = tokens
		op.USDCBalanceChange = usdc.Neg()
	} else {
		usdc := fromRaw(outAmount)
		tokens := fromRaw(inAmount)
		op.Type = domain.OperationSell
		op.TokenID = assetIn
		op.TokenBalanceChange = tokens.Neg()
		op.USDCBalanceChange = usdc
	}
	return op
}

// fromRaw converts a raw on-chain amount without overflowing int64.
func fromRaw(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
