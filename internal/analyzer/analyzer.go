// Package analyzer runs one smart-money ranking pass:
// fetch top wallets from the analytical source, then upsert them into the metrics store.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"polymarket-smartmoney/internal/domain"
	"polymarket-smartmoney/internal/observability"
	"polymarket-smartmoney/internal/storage"
)

// FetchStatus tells an empty ranking apart from a populated one.
type FetchStatus int

const (
	FetchEmpty FetchStatus = iota
	FetchOK
)

func (s FetchStatus) String() string {
	if s == FetchOK {
		return "ok"
	}
	return "empty"
}

// FetchResult is the outcome of the fetch stage.
type FetchResult struct {
	Status  FetchStatus
	Wallets []*domain.WalletMetrics // empty unless Status is FetchOK
}

// Summary contains results from one run.
type Summary struct {
	RunID            string
	RowsFetched      int
	RowsUpserted     int
	TotalRowsInStore int64
}

func (s *Summary) String() string {
	return fmt.Sprintf("%s wallets fetched, %s upserted, %s in store",
		humanize.Comma(int64(s.RowsFetched)),
		humanize.Comma(int64(s.RowsUpserted)),
		humanize.Comma(s.TotalRowsInStore))
}

// Analyzer coordinates the ranking run.
// Flow: fetch → upsert → count
type Analyzer struct {
	source  storage.SmartMoneySource
	store   storage.WalletMetricsStore
	query   domain.RankQuery
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Options for creating Analyzer.
type Options struct {
	// Required collaborators
	Source storage.SmartMoneySource
	Store  storage.WalletMetricsStore

	// Ranking parameters; defaults are the cash sentinel and the exchange contracts.
	CashAssetID     string
	LiquidityAgents []string

	Logger  *zap.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// New creates a new Analyzer.
func New(opts Options) *Analyzer {
	q := domain.NewRankQuery(domain.DefaultRankLimit)
	if opts.CashAssetID != "" {
		q.CashAssetID = opts.CashAssetID
	}
	if opts.LiquidityAgents != nil {
		q.LiquidityAgents = append([]string(nil), opts.LiquidityAgents...)
	}

	a := &Analyzer{
		source:  opts.Source,
		store:   opts.Store,
		query:   q,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.metrics == nil {
		a.metrics = observability.NewMetrics("")
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Query returns the rank query used for the given limit.
func (a *Analyzer) Query(limit int) domain.RankQuery {
	q := a.query
	q.Limit = limit
	q.LiquidityAgents = append([]string(nil), a.query.LiquidityAgents...)
	return q
}

// Fetch runs the ranking query for the top limit wallets.
// A zero limit returns FetchEmpty without contacting the source.
func (a *Analyzer) Fetch(ctx context.Context, limit int) (*FetchResult, error) {
	q := a.Query(limit)
	if err := q.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidInput, Op: "fetch metrics", Err: err}
	}
	if limit == 0 {
		return &FetchResult{Status: FetchEmpty}, nil
	}

	start := a.now()
	wallets, err := a.source.TopWallets(ctx, q)
	a.metrics.ObserveStage(observability.StageFetch, a.now().Sub(start))
	if err != nil {
		return nil, fetchError(err)
	}

	if len(wallets) == 0 {
		return &FetchResult{Status: FetchEmpty}, nil
	}
	return &FetchResult{Status: FetchOK, Wallets: wallets}, nil
}

// Run executes one ranking pass.
// Any fetch or persist failure aborts the run; nothing is retried.
func (a *Analyzer) Run(ctx context.Context, limit int) (*Summary, error) {
	runID := RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.NewString()
	}
	log := a.logger.With(zap.String("run_id", runID))
	start := a.now()

	summary, err := a.run(ctx, log, limit)
	a.metrics.ObserveStage(observability.StageOverall, a.now().Sub(start))
	if err != nil {
		a.metrics.RecordRun(observability.StatusFailure, a.now())
		return nil, err
	}

	summary.RunID = runID
	status := observability.StatusSuccess
	if summary.RowsFetched == 0 {
		status = observability.StatusEmpty
	}
	a.metrics.RecordRun(status, a.now())
	return summary, nil
}

func (a *Analyzer) run(ctx context.Context, log *zap.Logger, limit int) (*Summary, error) {
	log.Info("polymarket smart money analysis started", zap.Int("limit", limit))
	log.Info(fmt.Sprintf("fetching top %s users by profit", humanize.Comma(int64(limit))))

	fetched, err := a.Fetch(ctx, limit)
	if err != nil {
		log.Error("failed to fetch metrics", zap.Error(err))
		return nil, err
	}

	if fetched.Status == FetchEmpty {
		log.Warn("no metrics found")
		a.metrics.WalletsFetched.Set(0)
		a.metrics.WalletsUpserted.Set(0)
		return &Summary{}, nil
	}

	rowsFetched := len(fetched.Wallets)
	a.metrics.WalletsFetched.Set(float64(rowsFetched))
	log.Info("retrieved user metrics", zap.Int("count", rowsFetched))

	upsertStart := a.now()
	upserted, err := a.store.Upsert(ctx, fetched.Wallets)
	a.metrics.ObserveStage(observability.StageUpsert, a.now().Sub(upsertStart))
	if err != nil {
		perr := persistError(err)
		log.Error("failed to refresh data", zap.Error(perr))
		return nil, perr
	}
	a.metrics.WalletsUpserted.Set(float64(upserted))

	countStart := a.now()
	total, err := a.store.Count(ctx)
	a.metrics.ObserveStage(observability.StageCount, a.now().Sub(countStart))
	if err != nil {
		log.Warn("failed to count stored wallets", zap.Error(err))
		total = 0
	}
	a.metrics.WalletsInStore.Set(float64(total))

	log.Info("polymarket smart money analysis complete",
		zap.Int("rows_fetched", rowsFetched),
		zap.Int("rows_upserted", upserted),
		zap.Int64("total_rows_in_store", total),
	)

	return &Summary{
		RowsFetched:      rowsFetched,
		RowsUpserted:     upserted,
		TotalRowsInStore: total,
	}, nil
}

type runIDKey struct{}

// WithRunID attaches a run id to ctx; Run uses it instead of generating one.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run id set by WithRunID, if any.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
