package engine

import (
	"context"
	"fmt"
	"time"

	"llmpoker/pkg/poker"
)

// StartHand implements spec §4.E start_hand. It is invoked by the scheduler
// at game creation and after each settle_hand delay.
func (e *Engine) StartHand(ctx context.Context, gameID string) error {
	var shouldSettle bool
	var nextSeat int
	var expectedTurn uint64
	var handNumber int
	var shuffleBefore, shuffleAfter []int

	err := e.store.MutateGame(ctx, gameID, func(g *Game) error {
		if g.Status != StatusActive {
			return ErrGameNotActive
		}

		g.CurrentHand++
		if g.CurrentHand > g.Config.MaxHands || len(g.ActiveSeats()) <= 1 {
			shouldSettle = true
			return nil
		}

		advanceDealer(g)
		resetSeatsForNewHand(g)

		deck := poker.NewDeck()
		deck.Shuffle(e.rng)
		_, shuffleBefore = deck.Snapshot()

		g.TableState = TableState{
			Phase:       PhasePreflop,
			DealerIndex: g.TableState.DealerIndex,
			TurnNumber:  g.TableState.TurnNumber,
		}

		dealHoleCards(g, deck)
		postBlinds(g)
		persistDeck(g, deck)
		_, shuffleAfter = deck.Snapshot()

		g.TableState.CurrentPlayerIndex = firstToActPreflop(g)
		g.TableState.TurnNumber++
		expectedTurn = g.TableState.TurnNumber
		nextSeat = g.TableState.CurrentPlayerIndex
		handNumber = g.CurrentHand

		g.AppendActionLog(PhaseRecord{Phase: PhasePreflop, HandNumber: g.CurrentHand, Timestamp: time.Now()})
		return nil
	})
	if err != nil {
		return fmt.Errorf("start hand: %w", err)
	}

	if shouldSettle {
		return e.Settle(ctx, gameID)
	}

	e.recordShuffleAudit(gameID, handNumber, shuffleBefore, shuffleAfter)
	e.publishEvent(ctx, "hand_started", gameID, map[string]any{"handNumber": handNumber})
	return e.scheduleAITurn(ctx, gameID, expectedTurn, nextSeat)
}

// persistDeck snapshots d onto g.TableState.Deck so the live deck order,
// deal cursor, and burn record survive a process restart mid-hand.
func persistDeck(g *Game, d *poker.Deck) {
	dealt, remaining := d.Snapshot()
	burned := d.BurnedCards()
	burnedIDs := make([]int, len(burned))
	for i, c := range burned {
		burnedIDs[i] = c.ID()
	}
	g.TableState.Deck = DeckState{
		DealtCardIDs:     dealt,
		RemainingCardIDs: remaining,
		BurnedCardIDs:    burnedIDs,
	}
}

// restoreDeck rebuilds the live deck from its last persisted snapshot.
func restoreDeck(g *Game) *poker.Deck {
	ds := g.TableState.Deck
	return poker.RestoreDeck(ds.DealtCardIDs, ds.RemainingCardIDs, ds.BurnedCardIDs)
}

// advanceDealer rotates DealerIndex clockwise over non-busted seats.
func advanceDealer(g *Game) {
	n := len(g.Seats)
	if n == 0 {
		return
	}
	next := g.TableState.DealerIndex
	for i := 0; i < n; i++ {
		next = (next + 1) % n
		if g.Seats[next].Chips > 0 {
			g.TableState.DealerIndex = next
			return
		}
	}
}

// resetSeatsForNewHand clears per-hand fields for every seat and marks seats
// with no chips as folded for the hand.
func resetSeatsForNewHand(g *Game) {
	for i := range g.Seats {
		s := &g.Seats[i]
		s.CurrentBet = 0
		s.TotalBetThisHand = 0
		s.Folded = s.Chips == 0
		s.IsAllIn = false
		s.HasActed = false
		s.HoleCards = nil
	}
}

func dealHoleCards(g *Game, deck *poker.Deck) {
	for i := range g.Seats {
		if g.Seats[i].Chips <= 0 {
			continue
		}
		cards, _ := deck.DealN(2)
		g.Seats[i].HoleCards = cards
	}
}

// postBlinds implements spec §4.E post_blinds.
func postBlinds(g *Game) {
	active := g.ActiveSeats()
	n := len(g.Seats)
	if len(active) < 2 {
		return
	}

	var sbSeat, bbSeat int
	if len(active) == 2 {
		// Heads-up: button posts small blind.
		sbSeat = g.TableState.DealerIndex
		bbSeat = otherActiveSeat(active, sbSeat)
	} else {
		sbSeat = nextActiveSeat(g, g.TableState.DealerIndex, n)
		bbSeat = nextActiveSeat(g, sbSeat, n)
	}

	postBlind(&g.Seats[sbSeat], g.Config.SmallBlind)
	postBlind(&g.Seats[bbSeat], g.Config.BigBlind)

	g.TableState.CurrentBet = g.Config.BigBlind
	g.TableState.MinRaise = g.Config.BigBlind
	g.TableState.LastRaiseAmount = g.Config.BigBlind
	g.TableState.LastAggressor = bbSeat
}

func postBlind(seat *PlayerSeat, amount int64) {
	if amount > seat.Chips {
		amount = seat.Chips
		seat.IsAllIn = true
	}
	seat.Chips -= amount
	seat.CurrentBet += amount
	seat.TotalBetThisHand += amount
}

func otherActiveSeat(active []int, exclude int) int {
	for _, s := range active {
		if s != exclude {
			return s
		}
	}
	return exclude
}

// nextActiveSeat returns the next seat clockwise from from (exclusive) that
// has chips > 0.
func nextActiveSeat(g *Game, from, n int) int {
	next := from
	for i := 0; i < n; i++ {
		next = (next + 1) % n
		if g.Seats[next].Chips > 0 {
			return next
		}
	}
	return from
}

// firstToActPreflop returns the seat that acts first preflop: heads-up, the
// button; multi-way, the seat clockwise of the big blind.
func firstToActPreflop(g *Game) int {
	active := g.ActiveSeats()
	n := len(g.Seats)
	if len(active) == 2 {
		return g.TableState.DealerIndex
	}
	sb := nextActiveSeat(g, g.TableState.DealerIndex, n)
	bb := nextActiveSeat(g, sb, n)
	return nextActiveSeat(g, bb, n)
}

// firstToActPostflop returns the first seat to act on flop/turn/river: the
// seat clockwise of the button among non-folded, non-all-in seats. In
// heads-up play this is the non-button seat (spec §8 boundary behavior).
func firstToActPostflop(g *Game) int {
	n := len(g.Seats)
	return nextEligibleSeat(g, g.TableState.DealerIndex, n)
}

// nextEligibleSeat returns the next seat clockwise from from (exclusive)
// that is non-folded and non-all-in, or from itself if none qualify.
func nextEligibleSeat(g *Game, from, n int) int {
	next := from
	for i := 0; i < n; i++ {
		next = (next + 1) % n
		s := &g.Seats[next]
		if !s.Folded && !s.IsAllIn && s.Chips > 0 {
			return next
		}
	}
	return from
}

// allInShortcutActive reports whether every non-folded seat is either
// all-in, or exactly one non-all-in seat remains with no further betting
// possible (spec §4.E "All-in shortcut").
func allInShortcutActive(g *Game) bool {
	nonFolded := g.NonFoldedSeats()
	if len(nonFolded) <= 1 {
		return false
	}
	activeBettors := 0
	for _, idx := range nonFolded {
		if !g.Seats[idx].IsAllIn {
			activeBettors++
		}
	}
	return activeBettors <= 1
}

// advanceStreet implements spec §4.E advance_street: resets per-street seat
// fields, burns and deals community cards, and returns the new phase.
func advanceStreet(g *Game, deck *poker.Deck) Phase {
	for i := range g.Seats {
		s := &g.Seats[i]
		if s.Folded {
			continue
		}
		s.CurrentBet = 0
		if !s.IsAllIn {
			s.HasActed = false
		}
	}
	g.TableState.LastAggressor = -1
	g.TableState.CurrentBet = 0
	g.TableState.MinRaise = g.Config.BigBlind

	var next Phase
	var dealCount int
	switch g.TableState.Phase {
	case PhasePreflop:
		next, dealCount = PhaseFlop, 3
	case PhaseFlop:
		next, dealCount = PhaseTurn, 1
	case PhaseTurn:
		next, dealCount = PhaseRiver, 1
	default:
		next = PhaseShowdown
	}

	if dealCount > 0 {
		deck.Burn()
		cards, _ := deck.DealN(dealCount)
		g.TableState.CommunityCards = append(g.TableState.CommunityCards, cards...)
	}

	g.TableState.Phase = next
	if next != PhaseShowdown {
		g.TableState.CurrentPlayerIndex = firstToActPostflop(g)
	}
	return next
}

// dealRemainingStreets implements the all-in shortcut: deals every remaining
// street's community cards with no further betting, straight to showdown.
func dealRemainingStreets(g *Game, deck *poker.Deck) {
	for g.TableState.Phase != PhaseShowdown {
		advanceStreet(g, deck)
	}
}
