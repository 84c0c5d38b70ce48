// Package analytics is the ClickHouse-backed telemetry sink: one row per
// settled hand, enough to answer "how often does model X fold preflop" or
// "what's the average pot size at this table" without replaying the action
// log.
package analytics

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"llmpoker/internal/engine"
)

// Config holds the ClickHouse connection configuration.
type Config struct {
	Host         string
	Port         int
	Database     string
	Username     string
	Password     string
	Secure       bool
	MaxOpenConns int
	MaxIdleConns int
}

// ClickHouseSink implements engine.AnalyticsSink.
type ClickHouseSink struct {
	db     clickhouse.Conn
	logger zerolog.Logger
}

// New opens a connection and pings it.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*ClickHouseSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		TLS: &tls.Config{InsecureSkipVerify: !cfg.Secure},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return &ClickHouseSink{db: conn, logger: logger.With().Str("component", "analytics").Logger()}, nil
}

// CreateTables creates the hand_analytics table if it doesn't exist.
func (c *ClickHouseSink) CreateTables(ctx context.Context) error {
	return c.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS hand_analytics (
			event_id String,
			game_id String,
			hand_number Int32,
			pot Int64,
			board String,
			winner_ids String,
			win_condition String,
			num_actions Int32,
			timestamp DateTime64(3)
		) ENGINE = ReplacingMergeTree(timestamp)
		ORDER BY (game_id, hand_number, timestamp)
	`)
}

// RecordHand implements engine.AnalyticsSink.
func (c *ClickHouseSink) RecordHand(ctx context.Context, gameID string, hand engine.HandSummary) {
	board := make([]string, len(hand.Board))
	for i, card := range hand.Board {
		board[i] = card.String()
	}

	err := c.db.Exec(ctx, `
		INSERT INTO hand_analytics (
			event_id, game_id, hand_number, pot, board, winner_ids,
			win_condition, num_actions, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.NewString(), gameID, hand.HandNumber, hand.Pot,
		strings.Join(board, " "), strings.Join(hand.WinnerIDs, ","),
		string(hand.WinCondition), len(hand.Actions), time.Now(),
	)
	if err != nil {
		// Analytics is best-effort: a dropped row must never affect the
		// betting state it describes.
		c.logger.Warn().Err(err).Str("game", gameID).Int("hand", hand.HandNumber).Msg("record hand analytics failed")
	}
}

// Close closes the underlying connection.
func (c *ClickHouseSink) Close() error {
	return c.db.Close()
}
