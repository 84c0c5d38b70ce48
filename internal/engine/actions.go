package engine

// LegalActions is the precomputed set of actions available to the on-turn
// seat, handed to the decision RPC adapter verbatim (spec §4.G).
type LegalActions struct {
	CanCheck      bool
	CanCall       bool
	CanRaise      bool
	CallAmount    int64
	MinRaiseTotal int64
	MaxRaiseTotal int64
}

// ComputeLegalActions derives the legal action set for seat given the
// table's current betting state.
func ComputeLegalActions(state *TableState, seat *PlayerSeat) LegalActions {
	la := LegalActions{}
	if seat.Folded || seat.IsAllIn || seat.Chips == 0 {
		return la
	}

	la.CanCheck = seat.CurrentBet == state.CurrentBet

	if state.CurrentBet > seat.CurrentBet {
		la.CanCall = true
		call := state.CurrentBet - seat.CurrentBet
		if call > seat.Chips {
			call = seat.Chips
		}
		la.CallAmount = call
	}

	maxTotal := seat.CurrentBet + seat.Chips
	if maxTotal > state.CurrentBet {
		la.CanRaise = true
		la.MinRaiseTotal = state.MinRaise
		la.MaxRaiseTotal = maxTotal
	}

	return la
}

// Decision is a parsed model decision ready for applyAIDecision.
type Decision struct {
	Action    Action
	Amount    int64 // total bet for Action == raise; ignored otherwise (an all-in always commits the whole stack)
	Reasoning string
	Cost      float64
	LatencyMs int64
	Tokens    int
}

// validateDecision checks decision against the legal action set, coercing an
// illegal action to fold per spec §4.F.2. Returns the (possibly coerced)
// action, the resulting total bet (for call/raise/all-in), and whether the
// original decision was invalid.
func validateDecision(la LegalActions, state *TableState, seat *PlayerSeat, d Decision) (action Action, total int64, invalid bool) {
	switch d.Action {
	case ActionFold:
		return ActionFold, 0, false

	case ActionCheck:
		if la.CanCheck {
			return ActionCheck, 0, false
		}
		return ActionFold, 0, true

	case ActionCall:
		if la.CanCall {
			return ActionCall, seat.CurrentBet + la.CallAmount, false
		}
		if la.CanCheck {
			// A "call" when nothing is owed is treated as a check, not an error.
			return ActionCheck, 0, false
		}
		return ActionFold, 0, true

	case ActionRaise:
		total := d.Amount
		allIn := total == seat.CurrentBet+seat.Chips
		affordable := total > state.CurrentBet && total-seat.CurrentBet <= seat.Chips
		if affordable && (total >= state.MinRaise || allIn) {
			return ActionRaise, total, false
		}
		return ActionFold, 0, true

	case ActionAllIn:
		total := seat.CurrentBet + seat.Chips
		if total <= state.CurrentBet {
			// All chips don't even cover a call — it's a call for the full stack.
			return ActionCall, total, false
		}
		return ActionRaise, total, false

	default:
		return ActionFold, 0, true
	}
}

// applyActionSemantics mutates seat and state according to the validated
// action, returning whether this was a full raise (reopens action for
// other seats) per spec §4.F Action Semantics.
func applyActionSemantics(state *TableState, seat *PlayerSeat, action Action, total int64) (fullRaise bool) {
	switch action {
	case ActionFold:
		seat.Folded = true
		seat.HasActed = true
		return false

	case ActionCheck:
		seat.HasActed = true
		return false

	case ActionCall:
		delta := total - seat.CurrentBet
		if delta > seat.Chips {
			delta = seat.Chips
		}
		seat.Chips -= delta
		seat.CurrentBet += delta
		seat.TotalBetThisHand += delta
		seat.HasActed = true
		seat.IsAllIn = seat.Chips == 0
		return false

	case ActionRaise:
		prevTableCurrentBet := state.CurrentBet
		delta := total - seat.CurrentBet
		seat.Chips -= delta
		seat.CurrentBet = total
		seat.TotalBetThisHand += delta
		seat.HasActed = true
		seat.IsAllIn = seat.Chips == 0

		increment := total - prevTableCurrentBet
		isFullRaise := increment >= state.LastRaiseAmount

		state.CurrentBet = total

		if isFullRaise {
			state.LastRaiseAmount = increment
			state.MinRaise = total + state.LastRaiseAmount
			state.LastAggressor = seat.SeatIndex
			return true
		}
		// Under-raise all-in: currentBet advances but action does not reopen
		// the betting round for seats that already acted.
		return false

	default:
		return false
	}
}
