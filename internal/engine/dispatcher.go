package engine

import (
	"context"
	"fmt"
	"time"

	"llmpoker/pkg/poker"
)

// scheduleAITurn implements spec §4.F scheduleAITurn. It is a no-op (stale
// callback) unless the game is active, the turn counter still matches, and
// the on-turn seat is eligible to act.
func (e *Engine) scheduleAITurn(ctx context.Context, gameID string, expectedTurn uint64, seatIdx int) error {
	var armed bool
	var req DecisionRequest
	var timeoutDelay time.Duration

	err := e.store.MutateGame(ctx, gameID, func(g *Game) error {
		if g.Status != StatusActive {
			return nil
		}
		if g.TableState.TurnNumber != expectedTurn {
			return nil // stale
		}
		seat := seatAt(g, g.TableState.CurrentPlayerIndex)
		if seat == nil || seat.Folded || seat.IsAllIn || seat.Busted() {
			return nil
		}

		seatNo := g.TableState.CurrentPlayerIndex
		g.ThinkingSeat = &seatNo

		req = e.buildDecisionRequest(g, seatNo, expectedTurn)
		timeoutDelay = time.Duration(g.Config.TurnTimeoutMs) * time.Millisecond
		armed = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule ai turn: %w", err)
	}
	if !armed {
		return nil
	}

	if err := e.scheduler.RunAfter(0, func(ctx context.Context) {
		e.runDecisionRequest(ctx, gameID, expectedTurn, req)
	}); err != nil {
		return fmt.Errorf("enqueue decision request: %w", err)
	}

	if err := e.scheduler.RunAfter(timeoutDelay, func(ctx context.Context) {
		_ = e.HandleTimeout(ctx, gameID, expectedTurn)
	}); err != nil {
		return fmt.Errorf("enqueue timeout: %w", err)
	}
	return nil
}

func (e *Engine) buildDecisionRequest(g *Game, seatIdx int, expectedTurn uint64) DecisionRequest {
	seat := &g.Seats[seatIdx]
	legal := ComputeLegalActions(&g.TableState, seat)

	opponents := make([]OpponentView, 0, len(g.Seats)-1)
	for i := range g.Seats {
		if i == seatIdx {
			continue
		}
		s := &g.Seats[i]
		opponents = append(opponents, OpponentView{SeatIndex: i, Chips: s.Chips, Folded: s.Folded, IsAllIn: s.IsAllIn})
	}

	return DecisionRequest{
		GameID:         g.ID,
		ModelID:        seat.ModelID,
		SeatIndex:      seatIdx,
		Board:          cardStrings(g.TableState.CommunityCards),
		HoleCards:      cardStrings(seat.HoleCards),
		Pot:            g.TableState.Pot(g.Seats),
		HandNumber:     g.CurrentHand,
		Legal:          legal,
		Opponents:      opponents,
		BettingHistory: g.ActionLog,
		ExpectedTurn:   expectedTurn,
	}
}

func cardStrings(cards []poker.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// runDecisionRequest invokes the decision adapter outside any transaction
// and, on success, applies the result. Adapter errors are swallowed: the
// timeout handler will eventually force-fold the seat (spec §4.G).
func (e *Engine) runDecisionRequest(ctx context.Context, gameID string, expectedTurn uint64, req DecisionRequest) {
	start := time.Now()
	decision, err := e.decision.GetDecision(ctx, req)
	if err != nil {
		e.logger.Warn().Err(err).Str("game", gameID).Msg("decision adapter error")
		return
	}
	if e.metrics != nil {
		e.metrics.RecordDecisionCost(decision.Cost, time.Since(start).Milliseconds())
	}
	if err := e.ApplyAIDecision(ctx, gameID, expectedTurn, decision); err != nil {
		e.logger.Warn().Err(err).Str("game", gameID).Msg("apply decision failed")
	}
}

// ApplyAIDecision implements spec §4.F applyAIDecision.
func (e *Engine) ApplyAIDecision(ctx context.Context, gameID string, expectedTurn uint64, d Decision) error {
	var outcome turnOutcome

	err := e.store.MutateGame(ctx, gameID, func(g *Game) error {
		if g.TableState.TurnNumber != expectedTurn || g.ThinkingSeat == nil {
			return nil // stale turn or duplicate delivery
		}
		seatIdx := *g.ThinkingSeat
		seat := seatAt(g, seatIdx)
		if seat == nil {
			return nil
		}

		la := ComputeLegalActions(&g.TableState, seat)
		action, total, invalid := validateDecision(la, &g.TableState, seat, d)
		if invalid {
			if stats := perPlayerStats(g, seat.ModelID); stats != nil {
				stats.InvalidActions++
			}
			if e.metrics != nil {
				e.metrics.RecordInvalidAction()
			}
		}

		fullRaise := applyActionSemantics(&g.TableState, seat, action, total)
		if fullRaise {
			resetOthersHasActed(g, seatIdx)
		}

		g.AppendActionLog(ActionRecord{
			SeatIndex:  seatIdx,
			Action:     action,
			Amount:     total,
			HandNumber: g.CurrentHand,
			Reasoning:  d.Reasoning,
			Timestamp:  time.Now(),
		})
		recordActionStats(g, seat.ModelID, action)
		g.TotalAICost += d.Cost

		g.TableState.TurnNumber++
		g.ThinkingSeat = nil

		outcome = e.resolveNextStep(g)
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply ai decision: %w", err)
	}
	if outcome.kind != "" {
		e.publishEvent(ctx, "action_applied", gameID, nil)
	}

	return e.continueAfter(ctx, gameID, outcome)
}

// turnOutcome is the post-mutation instruction for what to schedule next,
// computed inside the transaction and executed outside it.
type turnOutcome struct {
	kind         string // "none", "foldwin", "advance", "next_turn"
	nextSeat     int
	expectedTurn uint64
}

// resolveNextStep implements spec §4.F.6.
func (e *Engine) resolveNextStep(g *Game) turnOutcome {
	nonFolded := g.NonFoldedSeats()
	if len(nonFolded) == 1 {
		return turnOutcome{kind: "foldwin"}
	}

	if bettingRoundEnded(g) {
		return turnOutcome{kind: "advance"}
	}

	next := nextEligibleSeat(g, g.TableState.CurrentPlayerIndex, len(g.Seats))
	g.TableState.CurrentPlayerIndex = next
	return turnOutcome{kind: "next_turn", nextSeat: next, expectedTurn: g.TableState.TurnNumber}
}

// continueAfter dispatches the scheduler work implied by a turnOutcome,
// outside the transaction that produced it.
func (e *Engine) continueAfter(ctx context.Context, gameID string, outcome turnOutcome) error {
	switch outcome.kind {
	case "foldwin":
		return e.SettleFoldWin(ctx, gameID)
	case "advance":
		return e.AdvanceStreet(ctx, gameID)
	case "next_turn":
		return e.scheduleAITurn(ctx, gameID, outcome.expectedTurn, outcome.nextSeat)
	default:
		return nil
	}
}

// bettingRoundEnded implements spec §4.F "Betting round end": every
// non-folded non-all-in seat has acted and matched currentBet. A seat with
// no chips left cannot act and is skipped.
func bettingRoundEnded(g *Game) bool {
	for _, s := range g.Seats {
		if s.Folded || s.IsAllIn {
			continue
		}
		if s.Chips == 0 {
			continue
		}
		if !s.HasActed || s.CurrentBet != g.TableState.CurrentBet {
			return false
		}
	}
	return true
}

// resetOthersHasActed reopens the betting round for every non-folded,
// non-all-in seat other than the raiser (spec: full raise semantics).
func resetOthersHasActed(g *Game, raiserIdx int) {
	for i := range g.Seats {
		if i == raiserIdx {
			continue
		}
		s := &g.Seats[i]
		if !s.Folded && !s.IsAllIn {
			s.HasActed = false
		}
	}
}

func perPlayerStats(g *Game, modelID string) *PlayerStats {
	if g.PerPlayerStats == nil {
		g.PerPlayerStats = map[string]*PlayerStats{}
	}
	st, ok := g.PerPlayerStats[modelID]
	if !ok {
		st = NewPlayerStats()
		g.PerPlayerStats[modelID] = st
	}
	return st
}

func recordActionStats(g *Game, modelID string, action Action) {
	st := perPlayerStats(g, modelID)
	st.ActionCounts[action]++
	if g.TableState.Phase == PhasePreflop {
		switch action {
		case ActionRaise:
			st.PreflopRaises++
		case ActionCall:
			st.PreflopCalls++
		case ActionFold:
			st.PreflopFolds++
		}
	}
}
