package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLegalActionsCheckOnlyWhenMatched(t *testing.T) {
	state := &TableState{CurrentBet: 20, MinRaise: 20}
	seat := &PlayerSeat{CurrentBet: 20, Chips: 980}

	la := ComputeLegalActions(state, seat)
	assert.True(t, la.CanCheck)
	assert.False(t, la.CanCall)
	assert.True(t, la.CanRaise)
	assert.Equal(t, int64(20), la.MinRaiseTotal)
	assert.Equal(t, int64(1000), la.MaxRaiseTotal)
}

func TestComputeLegalActionsCallAmountCappedByStack(t *testing.T) {
	state := &TableState{CurrentBet: 100, MinRaise: 100}
	seat := &PlayerSeat{CurrentBet: 20, Chips: 50}

	la := ComputeLegalActions(state, seat)
	assert.True(t, la.CanCall)
	assert.Equal(t, int64(50), la.CallAmount, "call amount caps at the seat's remaining stack")
}

func TestComputeLegalActionsFoldedOrAllInSeatHasNoActions(t *testing.T) {
	state := &TableState{CurrentBet: 20, MinRaise: 20}
	assert.Equal(t, LegalActions{}, ComputeLegalActions(state, &PlayerSeat{Folded: true, Chips: 500}))
	assert.Equal(t, LegalActions{}, ComputeLegalActions(state, &PlayerSeat{IsAllIn: true}))
}

func TestValidateDecisionCoercesIllegalRaiseToFold(t *testing.T) {
	state := &TableState{CurrentBet: 20, MinRaise: 40}
	seat := &PlayerSeat{CurrentBet: 0, Chips: 1000}
	la := ComputeLegalActions(state, seat)

	action, _, invalid := validateDecision(la, state, seat, Decision{Action: ActionRaise, Amount: 30})
	assert.True(t, invalid)
	assert.Equal(t, ActionFold, action)
}

func TestValidateDecisionCallWithNothingOwedBecomesCheck(t *testing.T) {
	state := &TableState{CurrentBet: 20, MinRaise: 20}
	seat := &PlayerSeat{CurrentBet: 20, Chips: 500}
	la := ComputeLegalActions(state, seat)

	action, _, invalid := validateDecision(la, state, seat, Decision{Action: ActionCall})
	assert.False(t, invalid)
	assert.Equal(t, ActionCheck, action)
}

func TestValidateDecisionAllInUnderCallBecomesCall(t *testing.T) {
	state := &TableState{CurrentBet: 100, MinRaise: 100}
	seat := &PlayerSeat{CurrentBet: 0, Chips: 40}
	la := ComputeLegalActions(state, seat)

	action, total, invalid := validateDecision(la, state, seat, Decision{Action: ActionAllIn})
	assert.False(t, invalid)
	assert.Equal(t, ActionCall, action)
	assert.Equal(t, int64(40), total)
}

func TestApplyActionSemanticsFullRaiseReopensAction(t *testing.T) {
	state := &TableState{CurrentBet: 20, MinRaise: 40, LastRaiseAmount: 20}
	seat := &PlayerSeat{SeatIndex: 1, CurrentBet: 0, Chips: 1000}

	fullRaise := applyActionSemantics(state, seat, ActionRaise, 60)
	assert.True(t, fullRaise)
	assert.Equal(t, int64(60), state.CurrentBet)
	assert.Equal(t, int64(40), state.LastRaiseAmount)
	assert.Equal(t, int64(100), state.MinRaise)
	assert.Equal(t, 1, state.LastAggressor)
	assert.Equal(t, int64(940), seat.Chips)
}

// TestApplyActionSemanticsUnderRaiseAllInDoesNotReopen covers the spec §8
// boundary behavior and the Open Question resolved in favor of standard
// no-limit rules: an all-in that doesn't reach the full raise increment
// advances currentBet but must not be reported as a full raise.
func TestApplyActionSemanticsUnderRaiseAllInDoesNotReopen(t *testing.T) {
	state := &TableState{CurrentBet: 100, MinRaise: 200, LastRaiseAmount: 100}
	seat := &PlayerSeat{SeatIndex: 2, CurrentBet: 0, Chips: 130}

	fullRaise := applyActionSemantics(state, seat, ActionRaise, 130)
	assert.False(t, fullRaise, "an all-in under-raise must not reopen action for seats that already matched")
	assert.Equal(t, int64(130), state.CurrentBet)
	assert.True(t, seat.IsAllIn)
}

func TestApplyActionSemanticsCallMarksAllInWhenStackExhausted(t *testing.T) {
	state := &TableState{CurrentBet: 50}
	seat := &PlayerSeat{CurrentBet: 0, Chips: 50}

	applyActionSemantics(state, seat, ActionCall, 50)
	assert.True(t, seat.IsAllIn)
	assert.Equal(t, int64(0), seat.Chips)
}
