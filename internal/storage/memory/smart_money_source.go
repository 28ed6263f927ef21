package memory

import (
	"context"
	"fmt"
	"sync"

	"polymarket-smartmoney/internal/domain"
	"polymarket-smartmoney/internal/metrics"
	"polymarket-smartmoney/internal/storage"
)

// SmartMoneySource is an in-memory implementation of storage.SmartMoneySource.
// It holds raw markets and fills and ranks them with the metrics package.
type SmartMoneySource struct {
	mu      sync.RWMutex
	markets []*domain.Market
	fills   []*domain.Fill
	calls   int

	// Failure injection for tests.
	Err error
}

// NewSmartMoneySource creates a new in-memory source.
func NewSmartMoneySource() *SmartMoneySource {
	return &SmartMoneySource{}
}

// Compile-time interface check.
var _ storage.SmartMoneySource = (*SmartMoneySource)(nil)

// AddMarkets appends markets to the source.
func (s *SmartMoneySource) AddMarkets(markets ...*domain.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markets = append(s.markets, markets...)
}

// AddFills appends fills to the source.
func (s *SmartMoneySource) AddFills(fills ...*domain.Fill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fills = append(s.fills, fills...)
}

// Calls returns how many times TopWallets was invoked.
func (s *SmartMoneySource) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// TopWallets ranks the held fills.
func (s *SmartMoneySource) TopWallets(ctx context.Context, q domain.RankQuery) ([]*domain.WalletMetrics, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wallets, err := metrics.Rank(s.fills, s.markets, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidInput, err)
	}
	return wallets, nil
}
