package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"polymarket-smartmoney/internal/domain"
	"polymarket-smartmoney/internal/storage"
)

// WalletMetricsStore is an in-memory implementation of storage.WalletMetricsStore.
type WalletMetricsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WalletMetrics // keyed by normalized wallet address
	now  func() time.Time

	// Failure injection for tests.
	UpsertErr error
	CountErr  error
}

// NewWalletMetricsStore creates a new in-memory wallet metrics store.
func NewWalletMetricsStore() *WalletMetricsStore {
	return &WalletMetricsStore{
		data: make(map[string]*domain.WalletMetrics),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source for created_at/updated_at.
func (s *WalletMetricsStore) WithClock(now func() time.Time) *WalletMetricsStore {
	s.now = now
	return s
}

// Compile-time interface check.
var _ storage.WalletMetricsStore = (*WalletMetricsStore)(nil)

// Upsert inserts or replaces wallets by address. The batch is validated before
// anything is written, so a rejected batch leaves the store unchanged.
func (s *WalletMetricsStore) Upsert(_ context.Context, wallets []*domain.WalletMetrics) (int, error) {
	if s.UpsertErr != nil {
		return 0, s.UpsertErr
	}
	if len(wallets) == 0 {
		return 0, nil
	}

	for i, w := range wallets {
		if w == nil || domain.NormalizeAddress(w.WalletAddress) == "" {
			return 0, fmt.Errorf("%w: wallet metrics at index %d has no address", storage.ErrInvalidInput, i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, w := range wallets {
		addr := domain.NormalizeAddress(w.WalletAddress)

		// Store a copy to prevent external mutation
		walletCopy := *w
		walletCopy.WalletAddress = addr
		walletCopy.FirstTradeAt = w.FirstTradeAt.UTC()
		walletCopy.LastTradeAt = w.LastTradeAt.UTC()
		walletCopy.CreatedAt = now
		walletCopy.UpdatedAt = now
		if prev, exists := s.data[addr]; exists {
			walletCopy.CreatedAt = prev.CreatedAt
		}
		s.data[addr] = &walletCopy
	}
	return len(wallets), nil
}

// Count returns the number of stored wallets.
func (s *WalletMetricsStore) Count(_ context.Context) (int64, error) {
	if s.CountErr != nil {
		return 0, s.CountErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data)), nil
}

// GetByWallet retrieves a wallet by address. Returns ErrNotFound if not exists.
func (s *WalletMetricsStore) GetByWallet(_ context.Context, wallet string) (*domain.WalletMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.data[domain.NormalizeAddress(wallet)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	walletCopy := *w
	return &walletCopy, nil
}

// ListTop retrieves up to limit wallets ordered by profit DESC, wallet address ASC.
func (s *WalletMetricsStore) ListTop(_ context.Context, limit int) ([]*domain.WalletMetrics, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	result := make([]*domain.WalletMetrics, 0, len(s.data))
	for _, w := range s.data {
		walletCopy := *w
		result = append(result, &walletCopy)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].ProfitUSDC != result[j].ProfitUSDC {
			return result[i].ProfitUSDC > result[j].ProfitUSDC
		}
		return result[i].WalletAddress < result[j].WalletAddress
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
