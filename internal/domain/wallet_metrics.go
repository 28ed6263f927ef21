package domain

import "time"

// WalletMetrics is the per-wallet performance snapshot.
// Corresponds to the smartmoney_polymarket table; WalletAddress is the unique key.
// Cash amounts are whole USDC (raw units / 1e6).
type WalletMetrics struct {
	WalletAddress        string
	PositionsCount       int
	MarketsCount         int
	AvgTradesPerPosition float64
	ProfitUSDC           float64
	AvgROI               float64
	TotalReturnedUSDC    float64
	TotalInvestedUSDC    float64
	PortfolioROI         float64
	FirstTradeAt         time.Time
	LastTradeAt          time.Time
	AnnualAvgROI         float64
	AnnualPortfolioROI   float64

	// Set by the store.
	CreatedAt time.Time
	UpdatedAt time.Time
}
