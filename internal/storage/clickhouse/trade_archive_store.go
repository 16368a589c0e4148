package clickhouse

import (
	"context"
	"fmt"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
)

// TradeArchiveStore appends executed trades to ClickHouse for analytics.
// The archive is not part of replayed state; the postgres trade table
// remains the source of truth.
type TradeArchiveStore struct {
	conn *Conn
}

// NewTradeArchiveStore creates a new TradeArchiveStore.
func NewTradeArchiveStore(conn *Conn) *TradeArchiveStore {
	return &TradeArchiveStore{conn: conn}
}

// InsertTrades appends a batch of trades.
func (s *TradeArchiveStore) InsertTrades(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_archive (
			id, pair_id, price, quantity, total, maker_order_id, taker_order_id, maker_account, taker_account, taker_side, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		err = batch.Append(
			t.ID, t.PairID, t.Price, t.Quantity, t.Total,
			t.MakerOrderID, t.TakerOrderID, t.MakerAccount, t.TakerAccount,
			string(t.TakerSide), uint64(t.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByPair retrieves archived trades for a pair, ordered by timestamp ASC.
func (s *TradeArchiveStore) GetByPair(ctx context.Context, pairID string) ([]*domain.Trade, error) {
	query := `
		SELECT id, pair_id, price, quantity, total, maker_order_id, taker_order_id, maker_account, taker_account, taker_side, timestamp_ms
		FROM trade_archive
		WHERE pair_id = ?
		ORDER BY timestamp_ms ASC, id ASC
	`

	rows, err := s.conn.Query(ctx, query, pairID)
	if err != nil {
		return nil, fmt.Errorf("query trades by pair: %w", err)
	}
	defer rows.Close()

	return scanArchivedTrades(rows)
}

// CountByPair returns how many trades are archived for a pair.
func (s *TradeArchiveStore) CountByPair(ctx context.Context, pairID string) (int64, error) {
	query := `SELECT count(*) FROM trade_archive WHERE pair_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, pairID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trades by pair: %w", err)
	}
	return int64(count), nil
}

// scanArchivedTrades scans multiple rows.
func scanArchivedTrades(rows chRows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		var (
			t           domain.Trade
			takerSide   string
			timestampMs uint64
		)
		err := rows.Scan(
			&t.ID, &t.PairID, &t.Price, &t.Quantity, &t.Total,
			&t.MakerOrderID, &t.TakerOrderID, &t.MakerAccount, &t.TakerAccount,
			&takerSide, &timestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade archive row: %w", err)
		}
		t.TakerSide = domain.OrderSide(takerSide)
		t.Timestamp = int64(timestampMs)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade archive rows: %w", err)
	}
	return trades, nil
}
