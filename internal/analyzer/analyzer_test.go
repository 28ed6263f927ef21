package analyzer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"polymarket-smartmoney/internal/domain"
	"polymarket-smartmoney/internal/observability"
	"polymarket-smartmoney/internal/storage"
	"polymarket-smartmoney/internal/storage/memory"
)

const exchange = "0x4bfb41d5b3570defd03c39a9a4d8de6bd8b8982e"

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	source  *memory.SmartMoneySource
	store   *memory.WalletMetricsStore
	metrics *observability.Metrics
	logs    *observer.ObservedLogs
	a       *Analyzer
}

func newTestEnv() *testEnv {
	core, logs := observer.New(zap.DebugLevel)
	env := &testEnv{
		source:  memory.NewSmartMoneySource(),
		store:   memory.NewWalletMetricsStore(),
		metrics: observability.NewMetrics(""),
		logs:    logs,
	}
	env.a = New(Options{
		Source:  env.source,
		Store:   env.store,
		Logger:  zap.New(core),
		Metrics: env.metrics,
	})
	return env
}

// seedRoundTrip adds a market and, per wallet, a buy of 100 tokens for 50 and a sell for 50+profit.
func (e *testEnv) seedRoundTrip(profits map[string]uint64) {
	e.source.AddMarkets(&domain.Market{
		MarketID:    "q1",
		ConditionID: "c1",
		Tokens:      []domain.MarketToken{{TokenID: "yes", Outcome: "Yes"}, {TokenID: "no", Outcome: "No"}},
	})

	i := 0
	for wallet, profit := range profits {
		i++
		e.source.AddFills(
			&domain.Fill{ID: fmt.Sprintf("buy%d", i), Timestamp: baseTime, Maker: wallet, Taker: exchange,
				MakerAssetID: "0", TakerAssetID: "yes", MakerAmountFilled: 50_000_000, TakerAmountFilled: 100_000_000},
			&domain.Fill{ID: fmt.Sprintf("sell%d", i), Timestamp: baseTime.Add(time.Hour), Maker: wallet, Taker: exchange,
				MakerAssetID: "yes", TakerAssetID: "0", MakerAmountFilled: 100_000_000, TakerAmountFilled: 50_000_000 + profit*1_000_000},
		)
	}
}

func TestAnalyzer_Run(t *testing.T) {
	env := newTestEnv()
	env.seedRoundTrip(map[string]uint64{"0xaaa": 10, "0xbbb": 3, "0xccc": 7})

	summary, err := env.a.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.RowsFetched)
	assert.Equal(t, 3, summary.RowsUpserted)
	assert.Equal(t, int64(3), summary.TotalRowsInStore)
	assert.NotEmpty(t, summary.RunID)

	w, err := env.store.GetByWallet(context.Background(), "0xaaa")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, w.ProfitUSDC, 1e-9)
	assert.InDelta(t, 1.2, w.PortfolioROI, 1e-9)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RunsTotal.WithLabelValues(observability.StatusSuccess)))
	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.WalletsUpserted))
	assert.Equal(t, 1, env.logs.FilterMessage("polymarket smart money analysis complete").Len())
}

func TestAnalyzer_RunLimitBoundsRanking(t *testing.T) {
	env := newTestEnv()
	env.seedRoundTrip(map[string]uint64{"0xaaa": 10, "0xbbb": 3, "0xccc": 7})

	summary, err := env.a.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RowsFetched)

	top, err := env.store.ListTop(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "0xaaa", top[0].WalletAddress)
	assert.Equal(t, "0xccc", top[1].WalletAddress)
}

func TestAnalyzer_RunIsIdempotent(t *testing.T) {
	env := newTestEnv()
	env.seedRoundTrip(map[string]uint64{"0xaaa": 10, "0xbbb": 3})

	first, err := env.a.Run(context.Background(), 10)
	require.NoError(t, err)
	second, err := env.a.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, first.TotalRowsInStore, second.TotalRowsInStore)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestAnalyzer_RunEmptyResultSkipsStore(t *testing.T) {
	env := newTestEnv()
	env.store.UpsertErr = errors.New("store must not be called")
	env.store.CountErr = errors.New("store must not be called")

	summary, err := env.a.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, &Summary{RunID: summary.RunID}, summary)
	assert.Equal(t, 1, env.source.Calls())
	assert.Equal(t, 1, env.logs.FilterMessage("no metrics found").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RunsTotal.WithLabelValues(observability.StatusEmpty)))
}

func TestAnalyzer_RunZeroLimitContactsNothing(t *testing.T) {
	env := newTestEnv()
	env.seedRoundTrip(map[string]uint64{"0xaaa": 10})

	summary, err := env.a.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.Zero(t, summary.RowsFetched)
	assert.Zero(t, env.source.Calls())
	count, _ := env.store.Count(context.Background())
	assert.Zero(t, count)
}

func TestAnalyzer_RunNegativeLimit(t *testing.T) {
	env := newTestEnv()

	_, err := env.a.Run(context.Background(), -1)
	require.Error(t, err)

	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.ErrorIs(t, err, domain.ErrInvalidLimit)
	assert.Zero(t, env.source.Calls())
}

func TestAnalyzer_RunFetchFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"connection", fmt.Errorf("dial: %w", storage.ErrUnavailable), KindConnection},
		{"query", errors.New("code: 62, syntax error"), KindQuery},
		{"invalid input", fmt.Errorf("%w: bad query", storage.ErrInvalidInput), KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.source.Err = tt.err
			env.store.UpsertErr = errors.New("store must not be called")

			summary, err := env.a.Run(context.Background(), 10)
			require.Error(t, err)
			assert.Nil(t, summary)

			assert.Equal(t, tt.want, KindOf(err))
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), tt.err.Error())
			assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RunsTotal.WithLabelValues(observability.StatusFailure)))
		})
	}
}

func TestAnalyzer_RunPersistFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"transaction", errors.New("commit tx: serialization failure"), KindPersistence},
		{"connection", fmt.Errorf("begin tx: %w", storage.ErrUnavailable), KindConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.seedRoundTrip(map[string]uint64{"0xaaa": 10})
			env.store.UpsertErr = tt.err

			_, err := env.a.Run(context.Background(), 10)
			require.Error(t, err)

			var aerr *Error
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.want, aerr.Kind)
			assert.Equal(t, "refresh data", aerr.Op)
			assert.Equal(t, 1, env.logs.FilterMessage("failed to refresh data").Len())
		})
	}
}

func TestAnalyzer_RunCountFailureIsNotFatal(t *testing.T) {
	env := newTestEnv()
	env.seedRoundTrip(map[string]uint64{"0xaaa": 10})
	env.store.CountErr = errors.New("statement timeout")

	summary, err := env.a.Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RowsUpserted)
	assert.Zero(t, summary.TotalRowsInStore)
	assert.Equal(t, 1, env.logs.FilterMessage("failed to count stored wallets").Len())
}

func TestAnalyzer_RunUsesContextRunID(t *testing.T) {
	env := newTestEnv()
	env.seedRoundTrip(map[string]uint64{"0xaaa": 10})

	ctx := WithRunID(context.Background(), "run-42")
	summary, err := env.a.Run(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, "run-42", summary.RunID)
	for _, entry := range env.logs.All() {
		assert.Equal(t, "run-42", entry.ContextMap()["run_id"])
	}
}

func TestAnalyzer_LiquidityAgentsNeverRanked(t *testing.T) {
	env := newTestEnv()
	env.seedRoundTrip(map[string]uint64{"0xaaa": 10})
	env.source.AddFills(&domain.Fill{
		ID: "agents", Timestamp: baseTime, Maker: exchange, Taker: domain.DefaultLiquidityAgents[1],
		MakerAssetID: "0", TakerAssetID: "yes", MakerAmountFilled: 1_000_000, TakerAmountFilled: 2_000_000,
	})

	_, err := env.a.Run(context.Background(), 10)
	require.NoError(t, err)

	for _, agent := range domain.DefaultLiquidityAgents {
		_, err := env.store.GetByWallet(context.Background(), agent)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
}

func TestAnalyzer_CustomAgents(t *testing.T) {
	env := newTestEnv()
	env.seedRoundTrip(map[string]uint64{"0xaaa": 10, "0xbbb": 4})
	env.a = New(Options{
		Source:          env.source,
		Store:           env.store,
		LiquidityAgents: []string{exchange, "0xBBB"},
	})

	summary, err := env.a.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RowsFetched)

	_, err = env.store.GetByWallet(context.Background(), "0xbbb")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSummary_String(t *testing.T) {
	s := &Summary{RowsFetched: 10000, RowsUpserted: 10000, TotalRowsInStore: 1234567}
	assert.Equal(t, "10,000 wallets fetched, 10,000 upserted, 1,234,567 in store", s.String())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "connection_failure", KindConnection.String())
	assert.Equal(t, "query_failure", KindQuery.String())
	assert.Equal(t, "persistence_failure", KindPersistence.String())
	assert.Equal(t, "unknown", KindOf(errors.New("plain")).String())
}
