package metrics

import (
	"time"

	"polymarket-smartmoney/internal/domain"
)

const (
	exchange    = "0x4bfb41d5b3570defd03c39a9a4d8de6bd8b8982e"
	negRiskExch = "0xc5d563a36ae78145c45a50134d48a1215220f80a"
	walletA     = "0x00000000000000000000000000000000000000a1"
	walletB     = "0x00000000000000000000000000000000000000b2"
	walletC     = "0x00000000000000000000000000000000000000c3"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// openMarket returns an unresolved binary market with tokens <id>-yes and <id>-no.
func openMarket(id string) *domain.Market {
	return &domain.Market{
		MarketID:    id,
		ConditionID: "cond-" + id,
		Tokens: []domain.MarketToken{
			{TokenID: id + "-yes", Outcome: "Yes"},
			{TokenID: id + "-no", Outcome: "No"},
		},
		EndDate: baseTime.AddDate(0, 1, 0),
	}
}

// resolvedMarket returns a binary market whose yes token won.
func resolvedMarket(id string) *domain.Market {
	m := openMarket(id)
	m.WinnerTokenID = id + "-yes"
	return m
}

// buyFill returns a fill where maker pays cash for tokens from taker.
func buyFill(id string, at time.Time, maker, taker, token string, cash, tokens uint64) *domain.Fill {
	return &domain.Fill{
		ID:                id,
		Timestamp:         at,
		Maker:             maker,
		Taker:             taker,
		MakerAssetID:      domain.CashAssetID,
		TakerAssetID:      token,
		MakerAmountFilled: cash,
		TakerAmountFilled: tokens,
	}
}

// sellFill returns a fill where maker gives tokens to taker for cash.
func sellFill(id string, at time.Time, maker, taker, token string, tokens, cash uint64) *domain.Fill {
	return &domain.Fill{
		ID:                id,
		Timestamp:         at,
		Maker:             maker,
		Taker:             taker,
		MakerAssetID:      token,
		TakerAssetID:      domain.CashAssetID,
		MakerAmountFilled: tokens,
		TakerAmountFilled: cash,
	}
}

func findWallet(wallets []*domain.WalletMetrics, addr string) *domain.WalletMetrics {
	for _, w := range wallets {
		if w.WalletAddress == addr {
			return w
		}
	}
	return nil
}

func findPosition(positions []*domain.Position, user, token string) *domain.Position {
	for _, p := range positions {
		if p.UserID == user && p.TokenID == token {
			return p
		}
	}
	return nil
}
