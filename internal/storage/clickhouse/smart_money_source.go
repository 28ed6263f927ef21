package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"polymarket-smartmoney/internal/domain"
	"polymarket-smartmoney/internal/metrics"
	"polymarket-smartmoney/internal/storage"
)

// walletRow is one row of the ranking query.
type walletRow struct {
	WalletAddress        string    `ch:"wallet_address"`
	PositionsCount       uint64    `ch:"positions_count"`
	MarketsCount         uint64    `ch:"markets_count"`
	AvgTradesPerPosition float64   `ch:"avg_trades_per_position"`
	ProfitUSDC           float64   `ch:"profit_usdc"`
	AvgROI               float64   `ch:"avg_roi"`
	TotalReturnedUSDC    float64   `ch:"total_returned_usdc"`
	TotalInvestedUSDC    float64   `ch:"total_invested_usdc"`
	PortfolioROI         float64   `ch:"portfolio_roi"`
	FirstTradeAt         time.Time `ch:"first_trade_at"`
	LastTradeAt          time.Time `ch:"last_trade_at"`
}

// SmartMoneySource implements storage.SmartMoneySource by running the ranking
// query inside ClickHouse over the markets and orders tables.
type SmartMoneySource struct {
	conn *Conn
}

// NewSmartMoneySource creates a new SmartMoneySource.
func NewSmartMoneySource(conn *Conn) *SmartMoneySource {
	return &SmartMoneySource{conn: conn}
}

// Compile-time interface check.
var _ storage.SmartMoneySource = (*SmartMoneySource)(nil)

// TopWallets returns up to q.Limit wallets ordered by profit DESC, wallet address ASC.
func (s *SmartMoneySource) TopWallets(ctx context.Context, q domain.RankQuery) ([]*domain.WalletMetrics, error) {
	query, args, err := BuildSmartMoneyQuery(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidInput, err)
	}
	if q.Limit == 0 {
		return nil, nil
	}

	ctx = clickhouse.Context(ctx, clickhouse.WithSettings(clickhouse.Settings{
		"enable_global_with_statement": 1,
	}))

	var rows []walletRow
	if err := s.conn.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select top wallets: %w", wrapConnectionError(err))
	}

	result := make([]*domain.WalletMetrics, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (r walletRow) toDomain() *domain.WalletMetrics {
	w := &domain.WalletMetrics{
		WalletAddress:        domain.NormalizeAddress(r.WalletAddress),
		PositionsCount:       int(r.PositionsCount),
		MarketsCount:         int(r.MarketsCount),
		AvgTradesPerPosition: r.AvgTradesPerPosition,
		ProfitUSDC:           r.ProfitUSDC,
		AvgROI:               r.AvgROI,
		TotalReturnedUSDC:    r.TotalReturnedUSDC,
		TotalInvestedUSDC:    r.TotalInvestedUSDC,
		PortfolioROI:         r.PortfolioROI,
		FirstTradeAt:         r.FirstTradeAt.UTC(),
		LastTradeAt:          r.LastTradeAt.UTC(),
	}
	metrics.ApplyAnnualization(w)
	return w
}
