package engine

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Settle implements the completed transition: it marks the game completed,
// updates every seat's durable Player record, appends a cash_out ledger
// entry per seat, then writes rank snapshots directly. It stores no per-seat
// results array on the Game and does not trigger a credit sync.
func (e *Engine) Settle(ctx context.Context, gameID string) error {
	var seats []PlayerSeat
	var stats map[string]*PlayerStats
	var buyIn int64

	err := e.store.MutateGame(ctx, gameID, func(g *Game) error {
		g.Status = StatusCompleted
		now := time.Now()
		g.CompletedAt = &now
		seats = append([]PlayerSeat{}, g.Seats...)
		stats = g.PerPlayerStats
		buyIn = g.Config.BuyIn
		return nil
	})
	if err != nil {
		return fmt.Errorf("settle: transition to completed: %w", err)
	}

	topChips := int64(-1)
	for _, s := range seats {
		if s.Chips > topChips {
			topChips = s.Chips
		}
	}

	for _, seat := range seats {
		profit := seat.Chips - buyIn
		isWinner := seat.Chips == topChips

		var newBalance int64
		err := e.players.MutatePlayer(ctx, seat.ModelID, func(p *Player) error {
			p.Balance += seat.Chips
			p.GamesPlayed++
			if isWinner {
				p.GamesWon++
			}
			if profit > p.BiggestWin {
				p.BiggestWin = profit
			}
			if profit < p.BiggestLoss {
				p.BiggestLoss = profit
			}
			mergePlayerStats(&p.AggregateStats, stats[seat.ModelID])
			newBalance = p.Balance
			return nil
		})
		if err != nil {
			return fmt.Errorf("settle: update player %s: %w", seat.ModelID, err)
		}

		if err := e.players.AppendLedger(ctx, LedgerTransaction{
			ModelID:      seat.ModelID,
			GameID:       gameID,
			Kind:         LedgerCashOut,
			Amount:       seat.Chips,
			BalanceAfter: newBalance,
			CreatedAt:    time.Now(),
		}); err != nil {
			return fmt.Errorf("settle: ledger entry for %s: %w", seat.ModelID, err)
		}
	}

	e.publishEvent(ctx, "game_completed", gameID, nil)

	if err := e.writeRankSnapshots(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("rank snapshot failed")
	}

	return nil
}

func mergePlayerStats(dst *PlayerStats, src *PlayerStats) {
	if src == nil {
		return
	}
	if dst.ActionCounts == nil {
		dst.ActionCounts = map[Action]int{}
	}
	dst.HandsDealt += src.HandsDealt
	dst.HandsPlayed += src.HandsPlayed
	dst.PreflopRaises += src.PreflopRaises
	dst.PreflopCalls += src.PreflopCalls
	dst.PreflopFolds += src.PreflopFolds
	dst.ShowdownsReached += src.ShowdownsReached
	dst.ShowdownsWon += src.ShowdownsWon
	dst.Timeouts += src.Timeouts
	dst.InvalidActions += src.InvalidActions
	for action, n := range src.ActionCounts {
		dst.ActionCounts[action] += n
	}
}

// writeRankSnapshots computes a ranking over every known player by balance
// descending, ties broken by modelId, and persists one row per player.
func (e *Engine) writeRankSnapshots(ctx context.Context) error {
	players, err := e.players.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("list players for rank snapshot: %w", err)
	}

	sort.Slice(players, func(i, j int) bool {
		if players[i].Balance != players[j].Balance {
			return players[i].Balance > players[j].Balance
		}
		return players[i].ModelID < players[j].ModelID
	})

	now := time.Now()
	snapshots := make([]RankSnapshot, len(players))
	for i, p := range players {
		snapshots[i] = RankSnapshot{ModelID: p.ModelID, Balance: p.Balance, Rank: i + 1, ComputedAt: now}
	}
	return e.players.WriteRankSnapshots(ctx, snapshots)
}
