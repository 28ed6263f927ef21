package reporting

import (
	"context"
	"fmt"
	"time"

	"polymarket-smartmoney/internal/domain"
	"polymarket-smartmoney/internal/storage"
)

// Report is a snapshot of the stored leaderboard.
type Report struct {
	GeneratedAt  time.Time
	TotalWallets int64
	Wallets      []*domain.WalletMetrics // profit DESC, wallet address ASC
}

// Generator produces leaderboard reports from the metrics store.
type Generator struct {
	store storage.WalletMetricsStore
	now   func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(store storage.WalletMetricsStore) *Generator {
	return &Generator{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate reads the top limit wallets from the store.
func (g *Generator) Generate(ctx context.Context, limit int) (*Report, error) {
	wallets, err := g.store.ListTop(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list top wallets: %w", err)
	}

	total, err := g.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count wallets: %w", err)
	}

	return &Report{
		GeneratedAt:  g.now(),
		TotalWallets: total,
		Wallets:      wallets,
	}, nil
}
