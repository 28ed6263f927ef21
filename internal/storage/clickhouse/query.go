package clickhouse

import (
	"fmt"
	"strings"

	"polymarket-smartmoney/internal/domain"
)

// smartMoneyQuery reconstructs per-user operations from two-sided fills, aggregates them
// into positions and wallets, and returns the top wallets by profit.
//
// Placeholders, in order: cash asset id, one per liquidity agent (%s), limit.
// Amounts stay in raw units until the wallet level, where they are scaled to USDC.
// Annualization is applied by the caller.
const smartMoneyQuery = `
WITH
    ? AS cash_asset,
    CAST([%s] AS Array(String)) AS liquidity_agents,
    market_tokens AS (
        SELECT
            token_id,
            any(market_id) AS market_id,
            any(winner) AS winner
        FROM (
            SELECT
                question_id AS market_id,
                tupleElement(t, 1) AS token_id,
                winner
            FROM markets
            ARRAY JOIN tokens AS t
            WHERE condition_id != ''
        )
        GROUP BY token_id
    ),
    user_trades AS (
        SELECT
            splitByChar('_', id)[1] AS fill_id,
            timestamp AS ts,
            if(side = 1, maker_addr, taker_addr) AS user_id,
            if(side = 1, taker_addr, maker_addr) AS counterparty_id,
            if(side = 1, maker_asset_id, taker_asset_id) AS asset_in,
            if(side = 1, taker_asset_id, maker_asset_id) AS asset_out,
            toInt64(if(side = 1, maker_amount_filled, taker_amount_filled)) AS amount_in,
            toInt64(if(side = 1, taker_amount_filled, maker_amount_filled)) AS amount_out,
            if(asset_in = cash_asset, asset_out, asset_in) AS token_id
        FROM (
            SELECT
                id,
                timestamp,
                lower(trimBoth(trim(TRAILING '\0' FROM toString(maker)))) AS maker_addr,
                lower(trimBoth(trim(TRAILING '\0' FROM toString(taker)))) AS taker_addr,
                maker_asset_id,
                taker_asset_id,
                maker_amount_filled,
                taker_amount_filled
            FROM orders
            WHERE is_deleted = 0
              AND (maker_asset_id = cash_asset OR taker_asset_id = cash_asset)
        )
        ARRAY JOIN [1, 2] AS side
    ),
    market_operations AS (
        SELECT
            ut.fill_id AS fill_id,
            ut.user_id AS user_id,
            ut.ts AS ts,
            ut.token_id AS token_id,
            mt.market_id AS market_id,
            ut.asset_in = cash_asset AS is_buy,
            if(is_buy, ut.amount_out, -ut.amount_in) AS token_change,
            if(is_buy, -ut.amount_in, ut.amount_out) AS usdc_change,
            if(has(liquidity_agents, ut.counterparty_id), 2, 1) AS priority
        FROM user_trades AS ut
        INNER JOIN market_tokens AS mt ON ut.token_id = mt.token_id
        WHERE NOT has(liquidity_agents, ut.user_id)
    ),
    deduped_operations AS (
        SELECT
            user_id,
            fill_id,
            argMax(ts, pick) AS op_ts,
            argMax(token_id, pick) AS op_token_id,
            argMax(market_id, pick) AS op_market_id,
            argMax(is_buy, pick) AS op_is_buy,
            argMax(token_change, pick) AS op_token_change,
            argMax(usdc_change, pick) AS op_usdc_change
        FROM (
            SELECT *, tuple(priority, -toInt64(toUnixTimestamp(ts))) AS pick
            FROM market_operations
        )
        GROUP BY user_id, fill_id
    ),
    positions AS (
        SELECT
            user_id,
            op_token_id AS token_id,
            max(op_market_id) AS market_id,
            sumIf(op_usdc_change, NOT op_is_buy) AS realized_usdc,
            sumIf(-op_usdc_change, op_is_buy) AS total_spent,
            sum(op_token_change) AS token_balance,
            count() AS operations_count,
            min(op_ts) AS day_enter,
            max(op_ts) AS day_exit
        FROM deduped_operations
        GROUP BY user_id, op_token_id
    ),
    last_prices AS (
        SELECT
            op_token_id AS token_id,
            toFloat64(argMax(op_price, tuple(op_ts, fill_id, user_id))) AS last_price
        FROM (
            SELECT
                *,
                if(op_token_change = 0,
                   toDecimal64(0, 2),
                   toDecimal64(
                       toDecimal128(-op_usdc_change, 6)
                           / toDecimal128(if(op_token_change = 0, 1, op_token_change), 0),
                       2)
                ) AS op_price
            FROM deduped_operations
        )
        GROUP BY op_token_id
    ),
    wallet_positions AS (
        SELECT
            p.user_id AS user_id,
            p.market_id AS market_id,
            p.operations_count AS operations_count,
            toFloat64(p.total_spent) AS spent,
            toFloat64(p.realized_usdc) + if(
                mt.winner != '',
                if(mt.winner = p.token_id, toFloat64(p.token_balance), 0.),
                lp.last_price * toFloat64(p.token_balance)
            ) AS gained,
            gained - spent AS absolute_profit,
            if(spent != 0, gained / spent, 0.) AS relative_profit,
            p.day_enter AS day_enter,
            p.day_exit AS day_exit
        FROM positions AS p
        LEFT JOIN market_tokens AS mt ON p.token_id = mt.token_id
        LEFT JOIN last_prices AS lp ON p.token_id = lp.token_id
    )
SELECT
    user_id AS wallet_address,
    toUInt64(count()) AS positions_count,
    toUInt64(uniqExact(market_id)) AS markets_count,
    toFloat64(avg(operations_count)) AS avg_trades_per_position,
    toFloat64(sum(absolute_profit) / 1e6) AS profit_usdc,
    toFloat64(avg(relative_profit)) AS avg_roi,
    toFloat64(sum(gained) / 1e6) AS total_returned_usdc,
    toFloat64(sum(spent) / 1e6) AS total_invested_usdc,
    toFloat64(if(total_invested_usdc = 0, 0, total_returned_usdc / total_invested_usdc)) AS portfolio_roi,
    toDateTime(min(day_enter), 'UTC') AS first_trade_at,
    toDateTime(max(day_exit), 'UTC') AS last_trade_at
FROM wallet_positions
GROUP BY user_id
ORDER BY profit_usdc DESC, wallet_address ASC
LIMIT ?
`

// BuildSmartMoneyQuery renders the ranking query for q and its positional arguments.
// Every caller-supplied value is bound, never interpolated.
func BuildSmartMoneyQuery(q domain.RankQuery) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	agents := q.Agents().Slice()
	placeholders := make([]string, len(agents))
	args := make([]any, 0, len(agents)+2)

	args = append(args, q.CashAssetID)
	for i, a := range agents {
		placeholders[i] = "?"
		args = append(args, a)
	}
	args = append(args, q.Limit)

	return fmt.Sprintf(smartMoneyQuery, strings.Join(placeholders, ", ")), args, nil
}
