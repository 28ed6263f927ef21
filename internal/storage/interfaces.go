package storage

import (
	"context"

	"polymarket-smartmoney/internal/domain"
)

// SmartMoneySource runs the trade reconstruction and profit aggregation over raw
// fills and market facts and returns the ranked wallets.
type SmartMoneySource interface {
	// TopWallets returns at most q.Limit wallets ordered by profit DESC, wallet address ASC,
	// with annual ROI fields filled in. Returns ErrUnavailable (wrapped) when the engine
	// cannot be reached.
	TopWallets(ctx context.Context, q domain.RankQuery) ([]*domain.WalletMetrics, error)
}

// WalletMetricsStore provides access to smartmoney_polymarket storage.
type WalletMetricsStore interface {
	// Upsert inserts or fully overwrites every record atomically, keyed by wallet address.
	// created_at is kept on update and updated_at is refreshed. Returns the number of
	// records processed. An empty batch is a no-op returning 0.
	Upsert(ctx context.Context, wallets []*domain.WalletMetrics) (int, error)

	// Count returns the total number of stored wallets.
	Count(ctx context.Context) (int64, error)

	// GetByWallet retrieves one wallet. Returns ErrNotFound if not exists.
	GetByWallet(ctx context.Context, wallet string) (*domain.WalletMetrics, error)

	// ListTop retrieves up to limit wallets ordered by profit DESC, wallet address ASC.
	ListTop(ctx context.Context, limit int) ([]*domain.WalletMetrics, error)
}
