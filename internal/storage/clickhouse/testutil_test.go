package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"polymarket-smartmoney/internal/domain"
)

// setupTestDB creates a ClickHouse container and returns a connection.
// Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	// Start ClickHouse container
	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60 * time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "polymarket",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	// Get native port (9000)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/polymarket", host, port.Port())

	// Connect to ClickHouse
	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	createTables(t, conn)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

// createTables creates the upstream fact tables the ranking query reads.
// They are owned by the indexer in production; this mirrors their shape.
func createTables(t *testing.T, conn *Conn) {
	t.Helper()
	ctx := context.Background()

	err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS markets (
			question_id   String,
			condition_id  String,
			tokens        Array(Tuple(String, String)),
			winner        String,
			end_date_iso  DateTime('UTC')
		) ENGINE = MergeTree()
		ORDER BY question_id
	`)
	require.NoError(t, err)

	err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id                   String,
			timestamp            DateTime('UTC'),
			maker                String,
			taker                String,
			maker_asset_id       String,
			taker_asset_id       String,
			maker_amount_filled  UInt64,
			taker_amount_filled  UInt64,
			is_deleted           UInt8
		) ENGINE = MergeTree()
		ORDER BY (timestamp, id)
	`)
	require.NoError(t, err)
}

// insertMarkets writes markets as literal rows; values are test-controlled.
func insertMarkets(t *testing.T, conn *Conn, markets []*domain.Market) {
	t.Helper()

	rows := make([]string, 0, len(markets))
	for _, m := range markets {
		tokens := make([]string, 0, len(m.Tokens))
		for _, tok := range m.Tokens {
			tokens = append(tokens, fmt.Sprintf("('%s', '%s')", tok.TokenID, tok.Outcome))
		}
		rows = append(rows, fmt.Sprintf("('%s', '%s', [%s], '%s', '%s')",
			m.MarketID, m.ConditionID, strings.Join(tokens, ", "), m.WinnerTokenID,
			m.EndDate.UTC().Format("2006-01-02 15:04:05")))
	}

	err := conn.Exec(context.Background(), "INSERT INTO markets VALUES "+strings.Join(rows, ", "))
	require.NoError(t, err)
}

// insertFills writes fills with a batch insert.
func insertFills(t *testing.T, conn *Conn, fills []*domain.Fill) {
	t.Helper()
	ctx := context.Background()

	batch, err := conn.PrepareBatch(ctx, "INSERT INTO orders")
	require.NoError(t, err)

	for _, f := range fills {
		var deleted uint8
		if f.IsDeleted {
			deleted = 1
		}
		err := batch.Append(
			f.ID, f.Timestamp.UTC(), f.Maker, f.Taker,
			f.MakerAssetID, f.TakerAssetID, f.MakerAmountFilled, f.TakerAmountFilled,
			deleted,
		)
		require.NoError(t, err)
	}
	require.NoError(t, batch.Send())
}
