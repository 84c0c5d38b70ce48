package engine

import "errors"

// Sentinel errors matching the error taxonomy: most are handled silently by
// the dispatcher/timeout handler, never surfaced to a caller.
var (
	// ErrStaleTurn is returned by Store.MutateGame implementations when the
	// stored TurnNumber changed between the read and the write. A callback
	// whose expectedTurn no longer matches is a plain no-op in the
	// dispatcher and timeout handler, which return nil rather than this error.
	ErrStaleTurn = errors.New("engine: stale turn")

	// ErrGameNotActive is returned when a transaction requires status active.
	ErrGameNotActive = errors.New("engine: game not active")

	// ErrNoThinkingSeat names the case of a turn callback arriving when no
	// seat is awaiting a decision. ApplyAIDecision and HandleTimeout treat
	// that case as a no-op and return nil, not this error.
	ErrNoThinkingSeat = errors.New("engine: no thinking seat")

	// ErrSeatNotEligible names the case of the on-turn seat being folded,
	// all-in, or busted. scheduleAITurn treats that case as a stale callback
	// and returns nil, not this error.
	ErrSeatNotEligible = errors.New("engine: seat not eligible to act")

	// ErrInvalidCardSet mirrors poker.ErrInvalidCardSet at the engine layer:
	// a fatal structural bug, never a recoverable game condition.
	ErrInvalidCardSet = errors.New("engine: invalid card set")

	// ErrInsufficientChips is fatal for game creation: a model's durable
	// balance cannot cover the configured buy-in.
	ErrInsufficientChips = errors.New("engine: insufficient chips for buy-in")

	// ErrPotMismatch signals a pot-manager invariant violation: distributed
	// chips did not equal collected chips. This is a fatal bug, not a user
	// error.
	ErrPotMismatch = errors.New("engine: pot distribution does not match collected total")
)
