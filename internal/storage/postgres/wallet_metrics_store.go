package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"polymarket-smartmoney/internal/domain"
	"polymarket-smartmoney/internal/storage"
)

// TableName is the table holding the ranked wallet snapshot.
const TableName = "smartmoney_polymarket"

const upsertWalletQuery = `
	INSERT INTO smartmoney_polymarket (
		wallet_address, positions_count, markets_count, avg_trades_per_position,
		profit_usdc, avg_roi, total_returned_usdc, total_invested_usdc, portfolio_roi,
		first_trade_at, last_trade_at, annual_avg_roi, annual_portfolio_roi
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8, $9,
		$10, $11, $12, $13
	)
	ON CONFLICT (wallet_address) DO UPDATE SET
		positions_count = EXCLUDED.positions_count,
		markets_count = EXCLUDED.markets_count,
		avg_trades_per_position = EXCLUDED.avg_trades_per_position,
		profit_usdc = EXCLUDED.profit_usdc,
		avg_roi = EXCLUDED.avg_roi,
		total_returned_usdc = EXCLUDED.total_returned_usdc,
		total_invested_usdc = EXCLUDED.total_invested_usdc,
		portfolio_roi = EXCLUDED.portfolio_roi,
		first_trade_at = EXCLUDED.first_trade_at,
		last_trade_at = EXCLUDED.last_trade_at,
		annual_avg_roi = EXCLUDED.annual_avg_roi,
		annual_portfolio_roi = EXCLUDED.annual_portfolio_roi,
		updated_at = NOW()
`

const selectWalletColumns = `
	wallet_address, positions_count, markets_count, avg_trades_per_position,
	profit_usdc, avg_roi, total_returned_usdc, total_invested_usdc, portfolio_roi,
	first_trade_at, last_trade_at, annual_avg_roi, annual_portfolio_roi,
	created_at, updated_at
`

// WalletMetricsStore implements storage.WalletMetricsStore using PostgreSQL.
type WalletMetricsStore struct {
	pool   *Pool
	logger *zap.Logger
}

// NewWalletMetricsStore creates a new WalletMetricsStore.
func NewWalletMetricsStore(pool *Pool, logger *zap.Logger) *WalletMetricsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletMetricsStore{pool: pool, logger: logger.Named("wallet_metrics_store")}
}

// Compile-time interface check.
var _ storage.WalletMetricsStore = (*WalletMetricsStore)(nil)

// Upsert writes all wallets in one transaction. Any failure rolls back the whole batch.
func (s *WalletMetricsStore) Upsert(ctx context.Context, wallets []*domain.WalletMetrics) (int, error) {
	if len(wallets) == 0 {
		s.logger.Warn("no wallet metrics to upsert")
		return 0, nil
	}

	batch := &pgx.Batch{}
	addrs := make([]string, len(wallets))
	for i, w := range wallets {
		if w == nil {
			return 0, fmt.Errorf("%w: wallet metrics at index %d is nil", storage.ErrInvalidInput, i)
		}
		addr := domain.NormalizeAddress(w.WalletAddress)
		if addr == "" {
			return 0, fmt.Errorf("%w: empty wallet address at index %d", storage.ErrInvalidInput, i)
		}
		addrs[i] = addr

		batch.Queue(upsertWalletQuery,
			addr, w.PositionsCount, w.MarketsCount, w.AvgTradesPerPosition,
			w.ProfitUSDC, w.AvgROI, w.TotalReturnedUSDC, w.TotalInvestedUSDC, w.PortfolioROI,
			w.FirstTradeAt.UTC(), w.LastTradeAt.UTC(), w.AnnualAvgROI, w.AnnualPortfolioROI,
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", wrapConnectionError(err))
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for i := range wallets {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("upsert wallet %s: %w", addrs[i], wrapConnectionError(err))
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", wrapConnectionError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", wrapConnectionError(err))
	}

	s.logger.Info("upserted wallet metrics", zap.Int("count", len(wallets)))
	return len(wallets), nil
}

// Count returns the number of stored wallets.
func (s *WalletMetricsStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM smartmoney_polymarket`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count wallet metrics: %w", wrapConnectionError(err))
	}
	return n, nil
}

// GetByWallet retrieves a wallet by address. Returns ErrNotFound if not exists.
func (s *WalletMetricsStore) GetByWallet(ctx context.Context, wallet string) (*domain.WalletMetrics, error) {
	query := `SELECT ` + selectWalletColumns + ` FROM smartmoney_polymarket WHERE wallet_address = $1`

	row := s.pool.QueryRow(ctx, query, domain.NormalizeAddress(wallet))
	w, err := scanWalletMetrics(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet metrics: %w", wrapConnectionError(err))
	}
	return w, nil
}

// ListTop retrieves up to limit wallets ordered by profit DESC, wallet address ASC.
func (s *WalletMetricsStore) ListTop(ctx context.Context, limit int) ([]*domain.WalletMetrics, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT ` + selectWalletColumns + `
		FROM smartmoney_polymarket
		ORDER BY profit_usdc DESC, wallet_address ASC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list top wallets: %w", wrapConnectionError(err))
	}
	defer rows.Close()

	var result []*domain.WalletMetrics
	for rows.Next() {
		w, err := scanWalletMetrics(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet metrics: %w", err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet metrics: %w", err)
	}
	return result, nil
}

// scanWalletMetrics scans a row into domain.WalletMetrics.
func scanWalletMetrics(row pgx.Row) (*domain.WalletMetrics, error) {
	var w domain.WalletMetrics
	var firstTrade, lastTrade *time.Time

	err := row.Scan(
		&w.WalletAddress, &w.PositionsCount, &w.MarketsCount, &w.AvgTradesPerPosition,
		&w.ProfitUSDC, &w.AvgROI, &w.TotalReturnedUSDC, &w.TotalInvestedUSDC, &w.PortfolioROI,
		&firstTrade, &lastTrade, &w.AnnualAvgROI, &w.AnnualPortfolioROI,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if firstTrade != nil {
		w.FirstTradeAt = firstTrade.UTC()
	}
	if lastTrade != nil {
		w.LastTradeAt = lastTrade.UTC()
	}
	return &w, nil
}
