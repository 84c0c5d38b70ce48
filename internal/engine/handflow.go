package engine

import (
	"context"
	"fmt"
	"time"

	"llmpoker/pkg/poker"
)

// AdvanceStreet implements spec §4.E advance_street, including the all-in
// shortcut: it burns and deals the next street's community cards, and
// either arms the next turn or, if the shortcut condition holds (or the
// river just completed), runs every remaining street before showdown.
func (e *Engine) AdvanceStreet(ctx context.Context, gameID string) error {
	var outcome turnOutcome
	var reachedShowdown bool

	err := e.store.MutateGame(ctx, gameID, func(g *Game) error {
		deck := restoreDeck(g)

		if allInShortcutActive(g) {
			dealRemainingStreets(g, deck)
		} else {
			advanceStreet(g, deck)
		}

		persistDeck(g, deck)

		g.AppendActionLog(PhaseRecord{Phase: g.TableState.Phase, HandNumber: g.CurrentHand, Timestamp: time.Now()})

		if g.TableState.Phase == PhaseShowdown {
			reachedShowdown = true
			return nil
		}

		g.TableState.TurnNumber++
		outcome = turnOutcome{kind: "next_turn", nextSeat: g.TableState.CurrentPlayerIndex, expectedTurn: g.TableState.TurnNumber}
		return nil
	})
	if err != nil {
		return fmt.Errorf("advance street: %w", err)
	}
	e.publishEvent(ctx, "street_advanced", gameID, nil)

	if reachedShowdown {
		return e.RunShowdown(ctx, gameID)
	}
	return e.continueAfter(ctx, gameID, outcome)
}

// RunShowdown implements spec §4.E showdown: evaluate hands for all
// non-folded seats, distribute the pot, record the hand summary and stats.
func (e *Engine) RunShowdown(ctx context.Context, gameID string) error {
	err := e.store.MutateGame(ctx, gameID, func(g *Game) error {
		nonFolded := g.NonFoldedSeats()
		hands := make(map[int]*poker.EvaluatedHand, len(nonFolded))
		for _, idx := range nonFolded {
			seat := &g.Seats[idx]
			cards := append(append([]poker.Card{}, seat.HoleCards...), g.TableState.CommunityCards...)
			h, err := poker.Evaluate(cards)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidCardSet, err)
			}
			hands[idx] = h
		}

		layers := BuildPotLayers(g.Seats)
		results := DistributePotLayers(layers, hands, g.TableState.DealerIndex, len(g.Seats))

		if TotalLayerAmount(layers) != g.TableState.Pot(g.Seats) {
			return ErrPotMismatch
		}

		winnerSet := map[string]bool{}
		for _, r := range results {
			for seatIdx, amount := range r.SharePerSeat {
				g.Seats[seatIdx].Chips += amount
				winnerSet[g.Seats[seatIdx].ModelID] = true
			}
		}

		winnerIDs := make([]string, 0, len(winnerSet))
		for id := range winnerSet {
			winnerIDs = append(winnerIDs, id)
		}

		for _, idx := range nonFolded {
			st := perPlayerStats(g, g.Seats[idx].ModelID)
			st.ShowdownsReached++
			if winnerSet[g.Seats[idx].ModelID] {
				st.ShowdownsWon++
			}
		}

		g.HandHistory = append(g.HandHistory, HandSummary{
			HandNumber:   g.CurrentHand,
			Pot:          g.TableState.Pot(g.Seats),
			Board:        append([]poker.Card{}, g.TableState.CommunityCards...),
			WinnerIDs:    winnerIDs,
			WinCondition: WinShowdown,
			Actions:      g.ActionLog,
		})

		for _, id := range winnerIDs {
			g.AppendActionLog(SystemRecord{Content: fmt.Sprintf("%s wins pot", id), HandNumber: g.CurrentHand, Timestamp: time.Now()})
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("run showdown: %w", err)
	}

	e.recordHandAnalytics(ctx, gameID)
	e.publishEvent(ctx, "hand_settled", gameID, nil)
	return e.afterHandSettled(ctx, gameID)
}

// recordHandAnalytics fires the best-effort analytics sink for the hand
// that just settled; never fails the transaction it follows.
func (e *Engine) recordHandAnalytics(ctx context.Context, gameID string) {
	if e.analytics == nil {
		return
	}
	g, err := e.store.GetGame(ctx, gameID)
	if err != nil || len(g.HandHistory) == 0 {
		return
	}
	e.analytics.RecordHand(ctx, gameID, g.HandHistory[len(g.HandHistory)-1])
}

// SettleFoldWin implements the fold-wins branch of showdown: exactly one
// seat remains non-folded and is awarded the entire pot without evaluation.
func (e *Engine) SettleFoldWin(ctx context.Context, gameID string) error {
	err := e.store.MutateGame(ctx, gameID, func(g *Game) error {
		nonFolded := g.NonFoldedSeats()
		if len(nonFolded) != 1 {
			return fmt.Errorf("fold-win requires exactly one non-folded seat, got %d", len(nonFolded))
		}
		winnerIdx := nonFolded[0]
		pot := g.TableState.Pot(g.Seats)
		g.Seats[winnerIdx].Chips += pot

		g.HandHistory = append(g.HandHistory, HandSummary{
			HandNumber:   g.CurrentHand,
			Pot:          pot,
			Board:        append([]poker.Card{}, g.TableState.CommunityCards...),
			WinnerIDs:    []string{g.Seats[winnerIdx].ModelID},
			WinCondition: WinAllFolded,
			Actions:      g.ActionLog,
		})
		g.AppendActionLog(SystemRecord{
			Content:    fmt.Sprintf("%s wins pot (all others folded)", g.Seats[winnerIdx].ModelID),
			HandNumber: g.CurrentHand,
			Timestamp:  time.Now(),
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("settle fold win: %w", err)
	}

	e.recordHandAnalytics(ctx, gameID)
	e.publishEvent(ctx, "hand_settled", gameID, nil)
	return e.afterHandSettled(ctx, gameID)
}

// afterHandSettled implements spec §4.E settle_hand: transition to
// completed if the game is over, otherwise schedule the next start_hand
// after the inter-hand delay.
func (e *Engine) afterHandSettled(ctx context.Context, gameID string) error {
	var done bool
	err := e.store.MutateGame(ctx, gameID, func(g *Game) error {
		done = g.CurrentHand >= g.Config.MaxHands || len(g.ActiveSeats()) <= 1
		return nil
	})
	if err != nil {
		return fmt.Errorf("settle hand: %w", err)
	}

	if done {
		return e.Settle(ctx, gameID)
	}

	return e.scheduler.RunAfter(interHandDelay, func(ctx context.Context) {
		if err := e.StartHand(ctx, gameID); err != nil {
			e.logger.Warn().Err(err).Str("game", gameID).Msg("start hand failed")
		}
	})
}
