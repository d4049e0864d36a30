package repository

import (
	"context"
	"fmt"
	"strings"

	"stockmood/internal/domain/models"
	"stockmood/internal/domain/repository"
	"stockmood/pkg/clickhouse"
)

// sessionColumns is the insert column order for behavior_sessions.
const sessionColumns = "symbol, date, open, high, low, close, volume, " +
	"price_change_pct, volatility, volume_zscore, volume_ma, momentum, " +
	"behavior, confidence, quality_score"

// Schema returns the idempotent DDL for the results table.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.behavior_sessions (
			symbol           LowCardinality(String),
			date             Date,
			open             Float64,
			high             Float64,
			low              Float64,
			close            Float64,
			volume           Float64,
			price_change_pct Nullable(Float64),
			volatility       Nullable(Float64),
			volume_zscore    Nullable(Float64),
			volume_ma        Nullable(Float64),
			momentum         Nullable(Float64),
			behavior         LowCardinality(String),
			confidence       Float64,
			quality_score    Float64
		) ENGINE = ReplacingMergeTree ORDER BY (symbol, date)`, database),
	}
}

// ClickHouseResults implements Storage over a ClickHouse connection. Each
// analyzed session becomes one row; re-running a symbol replaces its rows via
// the ReplacingMergeTree key.
type ClickHouseResults struct {
	client   *clickhouse.Client
	database string
}

// NewClickHouseResults creates ClickHouse-backed result storage.
func NewClickHouseResults(client *clickhouse.Client, database string) repository.Storage {
	return &ClickHouseResults{client: client, database: database}
}

func (s *ClickHouseResults) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, Schema(s.database))
}

func (s *ClickHouseResults) StoreResult(ctx context.Context, result *models.SymbolResult) error {
	if result == nil || len(result.Rows) == 0 {
		return nil
	}
	// Multi-row VALUES insert to keep round-trips down.
	const chunkSize = 2000
	table := s.database + ".behavior_sessions"
	for start := 0; start < len(result.Rows); start += chunkSize {
		end := start + chunkSize
		if end > len(result.Rows) {
			end = len(result.Rows)
		}
		chunk := result.Rows[start:end]

		values := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*15)
		for _, row := range chunk {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				result.Symbol,
				row.Date,
				row.Open,
				row.High,
				row.Low,
				row.Close,
				row.Volume,
				row.PriceChangePct,
				row.Volatility,
				row.VolumeZscore,
				row.VolumeMA,
				row.Momentum,
				string(row.Behavior),
				row.Confidence,
				result.Quality.Score,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			table, sessionColumns, strings.Join(values, ","))
		if _, err := s.client.DB().ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store %s: %w", result.Symbol, err)
		}
	}
	return nil
}

func (s *ClickHouseResults) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *ClickHouseResults) Close() error {
	return nil // connection pool owned by pkg/clickhouse
}
