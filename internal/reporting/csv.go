package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"polymarket-smartmoney/internal/domain"
)

// RenderCSV renders ranked wallets as CSV string, one row per wallet with its rank.
func RenderCSV(wallets []*domain.WalletMetrics) string {
	var sb strings.Builder

	// Header
	sb.WriteString("rank,wallet_address,positions_count,markets_count,avg_trades_per_position,")
	sb.WriteString("profit_usdc,avg_roi,total_returned_usdc,total_invested_usdc,portfolio_roi,")
	sb.WriteString("first_trade_at,last_trade_at,annual_avg_roi,annual_portfolio_roi\n")

	// Rows
	for i, w := range wallets {
		sb.WriteString(fmt.Sprintf("%d,%s,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%s,%s,%g,%g\n",
			i+1,
			w.WalletAddress,
			w.PositionsCount,
			w.MarketsCount,
			w.AvgTradesPerPosition,
			w.ProfitUSDC,
			w.AvgROI,
			w.TotalReturnedUSDC,
			w.TotalInvestedUSDC,
			w.PortfolioROI,
			formatTime(w.FirstTradeAt),
			formatTime(w.LastTradeAt),
			w.AnnualAvgROI,
			w.AnnualPortfolioROI,
		))
	}

	return sb.String()
}

// WriteCSV renders the report and writes it to path, creating parent directories.
func WriteCSV(path string, r *Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(RenderCSV(r.Wallets)), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
