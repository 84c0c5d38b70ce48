package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceDealerSkipsBustedSeats(t *testing.T) {
	g := &Game{
		Seats: []PlayerSeat{
			{SeatIndex: 0, Chips: 1000},
			{SeatIndex: 1, Chips: 0}, // busted, must be skipped
			{SeatIndex: 2, Chips: 1000},
		},
	}
	g.TableState.DealerIndex = 0

	advanceDealer(g)
	assert.Equal(t, 2, g.TableState.DealerIndex, "rotation must skip the busted middle seat")
}

func TestPostBlindsHeadsUpButtonPostsSmallBlind(t *testing.T) {
	g := &Game{
		Config: Config{SmallBlind: 10, BigBlind: 20},
		Seats: []PlayerSeat{
			{SeatIndex: 0, Chips: 1000},
			{SeatIndex: 1, Chips: 1000},
		},
	}
	g.TableState.DealerIndex = 0

	postBlinds(g)

	assert.Equal(t, int64(10), g.Seats[0].CurrentBet, "heads-up button posts the small blind")
	assert.Equal(t, int64(20), g.Seats[1].CurrentBet)
	assert.Equal(t, int64(20), g.TableState.CurrentBet)
	assert.Equal(t, 1, g.TableState.LastAggressor)
}

func TestPostBlindsMultiWaySkipsButtonForBlinds(t *testing.T) {
	g := &Game{
		Config: Config{SmallBlind: 10, BigBlind: 20},
		Seats: []PlayerSeat{
			{SeatIndex: 0, Chips: 1000},
			{SeatIndex: 1, Chips: 1000},
			{SeatIndex: 2, Chips: 1000},
		},
	}
	g.TableState.DealerIndex = 0

	postBlinds(g)

	assert.Equal(t, int64(10), g.Seats[1].CurrentBet, "seat clockwise of button posts small blind")
	assert.Equal(t, int64(20), g.Seats[2].CurrentBet, "next seat posts big blind")
	assert.Equal(t, int64(0), g.Seats[0].CurrentBet)
}

func TestPostBlindCapsAtStackAndMarksAllIn(t *testing.T) {
	seat := &PlayerSeat{Chips: 5}
	postBlind(seat, 20)
	assert.Equal(t, int64(0), seat.Chips)
	assert.Equal(t, int64(5), seat.CurrentBet)
	assert.True(t, seat.IsAllIn)
}

func TestFirstToActPreflopHeadsUpIsButton(t *testing.T) {
	g := &Game{Seats: []PlayerSeat{{Chips: 1000}, {Chips: 1000}}}
	g.TableState.DealerIndex = 0
	assert.Equal(t, 0, firstToActPreflop(g))
}

func TestFirstToActPreflopMultiWayIsAfterBigBlind(t *testing.T) {
	g := &Game{Seats: []PlayerSeat{{Chips: 1000}, {Chips: 1000}, {Chips: 1000}}}
	g.TableState.DealerIndex = 0
	// SB=1, BB=2, first to act preflop is seat 0 (the button).
	assert.Equal(t, 0, firstToActPreflop(g))
}

func TestFirstToActPostflopHeadsUpIsNonButton(t *testing.T) {
	g := &Game{Seats: []PlayerSeat{{Chips: 1000}, {Chips: 1000}}}
	g.TableState.DealerIndex = 0
	assert.Equal(t, 1, firstToActPostflop(g), "non-button acts first post-flop heads-up")
}

func TestAllInShortcutActiveWhenAtMostOneBettorRemains(t *testing.T) {
	g := &Game{Seats: []PlayerSeat{
		{IsAllIn: true},
		{IsAllIn: true},
		{Chips: 100},
	}}
	assert.True(t, allInShortcutActive(g))

	g2 := &Game{Seats: []PlayerSeat{
		{Chips: 100},
		{Chips: 200},
	}}
	assert.False(t, allInShortcutActive(g2))
}

func TestBettingRoundEndedRequiresAllActiveSeatsMatchedAndActed(t *testing.T) {
	g := &Game{Seats: []PlayerSeat{
		{CurrentBet: 20, Chips: 980, HasActed: true},
		{CurrentBet: 20, Chips: 980, HasActed: false},
	}}
	g.TableState.CurrentBet = 20
	assert.False(t, bettingRoundEnded(g))

	g.Seats[1].HasActed = true
	assert.True(t, bettingRoundEnded(g))
}
