// Package main provides the smart-money ranking job entry point.
// Executes: fetch top wallets from ClickHouse → upsert into PostgreSQL
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"polymarket-smartmoney/internal/analyzer"
	"polymarket-smartmoney/internal/config"
	"polymarket-smartmoney/internal/domain"
	"polymarket-smartmoney/internal/logger"
	"polymarket-smartmoney/internal/observability"
	"polymarket-smartmoney/internal/reporting"
	chstore "polymarket-smartmoney/internal/storage/clickhouse"
	"polymarket-smartmoney/internal/storage/migrations"
	pgstore "polymarket-smartmoney/internal/storage/postgres"
)

// pushTimeout bounds the metrics push after the run; the run itself has no timeout.
const pushTimeout = 10 * time.Second

func main() {
	// Parse flags
	limit := flag.Int("limit", domain.DefaultRankLimit, "Number of top wallets by profit to rank")
	csvPath := flag.String("csv", "", "Also export the stored leaderboard (top --limit rows) to this CSV file")
	flag.Parse()

	// Cancel on SIGINT/SIGTERM; deferred closes still run
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	summary, err := run(ctx, *limit, *csvPath)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Results: %s\n", summary)
}

func run(ctx context.Context, limit int, csvPath string) (*analyzer.Summary, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	runID := uuid.NewString()
	ctx = analyzer.WithRunID(ctx, runID)
	log = log.With(zap.String("run_id", runID))

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, &analyzer.Error{Kind: analyzer.KindConnection, Op: "connect to postgres", Err: err}
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return nil, &analyzer.Error{Kind: analyzer.KindPersistence, Op: "ensure schema", Err: err}
	}

	// ClickHouse
	chConn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN())
	if err != nil {
		return nil, &analyzer.Error{Kind: analyzer.KindConnection, Op: "connect to clickhouse", Err: err}
	}
	defer chConn.Close()

	log.Info("connected",
		zap.String("clickhouse_host", cfg.ClickHouse.Host),
		zap.String("clickhouse_database", cfg.ClickHouse.Database),
		zap.String("postgres_table", pgstore.TableName),
	)

	store := pgstore.NewWalletMetricsStore(pool, log)
	m := observability.NewMetrics("")

	a := analyzer.New(analyzer.Options{
		Source:          chstore.NewSmartMoneySource(chConn),
		Store:           store,
		CashAssetID:     cfg.SmartMoney.CashAssetID,
		LiquidityAgents: cfg.SmartMoney.LiquidityAgents,
		Logger:          log,
		Metrics:         m,
	})

	summary, runErr := a.Run(ctx, limit)

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		if err := m.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, runID); err != nil {
			log.Warn("failed to push metrics", zap.Error(err))
		}
		cancel()
	}

	if runErr != nil {
		return nil, runErr
	}

	if csvPath != "" {
		report, err := reporting.NewGenerator(store).Generate(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("generate leaderboard: %w", err)
		}
		if err := reporting.WriteCSV(csvPath, report); err != nil {
			return nil, err
		}
		log.Info("leaderboard exported", zap.String("path", csvPath), zap.Int("rows", len(report.Wallets)))
	}

	return summary, nil
}
