package engine

import (
	"context"
	"fmt"
	"time"
)

// HandleTimeout implements spec §4.H: a no-op unless the turn is still the
// expected one and a decision is still outstanding, otherwise a forced
// fold that follows the same post-action path as applyAIDecision.
func (e *Engine) HandleTimeout(ctx context.Context, gameID string, expectedTurn uint64) error {
	var outcome turnOutcome
	var fired bool

	err := e.store.MutateGame(ctx, gameID, func(g *Game) error {
		if g.TableState.TurnNumber != expectedTurn || g.ThinkingSeat == nil {
			return nil // decision already applied; timer is stale
		}
		fired = true
		seatIdx := *g.ThinkingSeat
		seat := seatAt(g, seatIdx)
		if seat == nil {
			return nil
		}

		applyActionSemantics(&g.TableState, seat, ActionFold, 0)

		if stats := perPlayerStats(g, seat.ModelID); stats != nil {
			stats.Timeouts++
		}
		if e.metrics != nil {
			e.metrics.RecordTimeout()
		}

		g.AppendActionLog(ActionRecord{
			SeatIndex:  seatIdx,
			Action:     ActionFold,
			HandNumber: g.CurrentHand,
			Reasoning:  "timeout",
			Timestamp:  time.Now(),
		})

		g.TableState.TurnNumber++
		g.ThinkingSeat = nil

		outcome = e.resolveNextStep(g)
		return nil
	})
	if err != nil {
		return fmt.Errorf("handle timeout: %w", err)
	}
	if !fired {
		return nil
	}
	e.publishEvent(ctx, "action_applied", gameID, nil)
	return e.continueAfter(ctx, gameID, outcome)
}
