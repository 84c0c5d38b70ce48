package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"llmpoker/internal/engine"
)

// PostgresStore implements engine.Store and engine.PlayerStore against the
// table layout in spec §6: games, players, transactions, credits,
// rankSnapshots. The Game document itself is stored as JSON in a single
// column — it has no natural relational shape at the granularity the state
// machine mutates it — with status/createdAt/isDevGame promoted to indexed
// columns for the scheduler's gate queries.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-opened *sql.DB. Schema migration is out
// of scope (spec §1 Non-goals: "Schema migrations, admin seeding screens").
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateGame(ctx context.Context, g *engine.Game) (string, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	payload, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("marshal game: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (id, status, is_dev_game, created_at, document)
		VALUES ($1, $2, $3, $4, $5)
	`, g.ID, g.Status, g.IsDevGame, g.CreatedAt, payload)
	if err != nil {
		return "", fmt.Errorf("insert game: %w", err)
	}
	return g.ID, nil
}

func (s *PostgresStore) CountGamesByStatus(ctx context.Context, statuses ...engine.Status) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := make([]any, len(statuses))
	query := `SELECT count(*) FROM games WHERE is_dev_game = false AND status IN (`
	for i, st := range statuses {
		if i > 0 {
			query += ","
		}
		query += fmt.Sprintf("$%d", i+1)
		placeholders[i] = st
	}
	query += ")"

	var count int
	if err := s.db.QueryRowContext(ctx, query, placeholders...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) GetGame(ctx context.Context, gameID string) (*engine.Game, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM games WHERE id = $1`, gameID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: game %s not found", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("select game: %w", err)
	}

	var g engine.Game
	if err := json.Unmarshal(payload, &g); err != nil {
		return nil, fmt.Errorf("unmarshal game: %w", err)
	}
	return &g, nil
}

// MutateGame implements the optimistic-concurrency transaction described in
// spec §4.D: read the document and its turn number inside a single SQL
// transaction, let fn mutate the in-memory copy, then write it back with an
// UPDATE gated on the turn number observed at read time. Zero rows affected
// means the record changed concurrently — an error wrapping ErrStaleTurn.
func (s *PostgresStore) MutateGame(ctx context.Context, gameID string, fn func(g *engine.Game) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var payload []byte
	if err := tx.QueryRowContext(ctx, `SELECT document FROM games WHERE id = $1 FOR UPDATE`, gameID).Scan(&payload); err != nil {
		return fmt.Errorf("select game for update: %w", err)
	}

	var g engine.Game
	if err := json.Unmarshal(payload, &g); err != nil {
		return fmt.Errorf("unmarshal game: %w", err)
	}
	observedTurn := g.TableState.TurnNumber

	if err := fn(&g); err != nil {
		return err
	}

	newPayload, err := json.Marshal(&g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE games SET document = $1, status = $2, is_dev_game = $3
		WHERE id = $4 AND (document->'TableState'->>'TurnNumber')::bigint = $5
	`, newPayload, g.Status, g.IsDevGame, gameID, observedTurn)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mutate game %s: %w", gameID, engine.ErrStaleTurn)
	}

	return tx.Commit()
}

func (s *PostgresStore) MutatePlayer(ctx context.Context, modelID string, fn func(p *engine.Player) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	p := &engine.Player{ModelID: modelID}
	err = tx.QueryRowContext(ctx, `
		SELECT balance, total_buy_ins, total_cash_outs, games_played, games_won,
		       biggest_win, biggest_loss, tokens_spent, cost_usd
		FROM players WHERE model_id = $1 FOR UPDATE
	`, modelID).Scan(
		&p.Balance, &p.TotalBuyIns, &p.TotalCashOuts, &p.GamesPlayed, &p.GamesWon,
		&p.BiggestWin, &p.BiggestLoss, &p.TokensSpent, &p.CostUSD,
	)
	if err == sql.ErrNoRows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO players (model_id, balance) VALUES ($1, 0)`, modelID); err != nil {
			return fmt.Errorf("insert player: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("select player: %w", err)
	}

	if err := fn(p); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE players SET balance=$1, total_buy_ins=$2, total_cash_outs=$3,
			games_played=$4, games_won=$5, biggest_win=$6, biggest_loss=$7,
			tokens_spent=$8, cost_usd=$9
		WHERE model_id = $10
	`, p.Balance, p.TotalBuyIns, p.TotalCashOuts, p.GamesPlayed, p.GamesWon,
		p.BiggestWin, p.BiggestLoss, p.TokensSpent, p.CostUSD, modelID)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) GetPlayer(ctx context.Context, modelID string) (*engine.Player, error) {
	p := &engine.Player{ModelID: modelID}
	err := s.db.QueryRowContext(ctx, `
		SELECT balance, total_buy_ins, total_cash_outs, games_played, games_won,
		       biggest_win, biggest_loss, tokens_spent, cost_usd
		FROM players WHERE model_id = $1
	`, modelID).Scan(
		&p.Balance, &p.TotalBuyIns, &p.TotalCashOuts, &p.GamesPlayed, &p.GamesWon,
		&p.BiggestWin, &p.BiggestLoss, &p.TokensSpent, &p.CostUSD,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: player %s not found", modelID)
	}
	if err != nil {
		return nil, fmt.Errorf("select player: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPlayers(ctx context.Context) ([]*engine.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model_id, balance, total_buy_ins, total_cash_outs, games_played,
		       games_won, biggest_win, biggest_loss, tokens_spent, cost_usd
		FROM players ORDER BY balance DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []*engine.Player
	for rows.Next() {
		p := &engine.Player{}
		if err := rows.Scan(&p.ModelID, &p.Balance, &p.TotalBuyIns, &p.TotalCashOuts,
			&p.GamesPlayed, &p.GamesWon, &p.BiggestWin, &p.BiggestLoss, &p.TokensSpent, &p.CostUSD); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendLedger(ctx context.Context, tx engine.LedgerTransaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (model_id, game_id, kind, amount, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, tx.ModelID, tx.GameID, tx.Kind, tx.Amount, tx.BalanceAfter, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) WriteRankSnapshots(ctx context.Context, snapshots []engine.RankSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, snap := range snapshots {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rank_snapshots (model_id, balance, rank, computed_at)
			VALUES ($1, $2, $3, $4)
		`, snap.ModelID, snap.Balance, snap.Rank, snap.ComputedAt); err != nil {
			return fmt.Errorf("insert rank snapshot: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) GetCreditAccount(ctx context.Context) (*engine.CreditAccount, error) {
	c := &engine.CreditAccount{}
	err := s.db.QueryRowContext(ctx, `SELECT balance, used, "limit", last_synced_at FROM credits WHERE id = 1`).
		Scan(&c.Balance, &c.Used, &c.Limit, &c.LastSyncedAt)
	if err == sql.ErrNoRows {
		return &engine.CreditAccount{LastSyncedAt: time.Now()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select credit account: %w", err)
	}
	return c, nil
}

// UpdateCreditAccount is called by internal/creditclient after a refresh.
func (s *PostgresStore) UpdateCreditAccount(ctx context.Context, c engine.CreditAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credits (id, balance, used, "limit", last_synced_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET balance=$1, used=$2, "limit"=$3, last_synced_at=$4
	`, c.Balance, c.Used, c.Limit, c.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("upsert credit account: %w", err)
	}
	return nil
}
