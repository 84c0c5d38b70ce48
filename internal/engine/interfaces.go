package engine

import (
	"context"
	"time"
)

// Store is the transactional contract the engine needs from the persistence
// layer: read-then-write with optimistic concurrency on TurnNumber (spec
// §4.D). Implementations live in internal/store.
type Store interface {
	// CreateGame persists a brand new Game, assigning it an ID if empty.
	CreateGame(ctx context.Context, g *Game) (string, error)

	// CountGamesByStatus counts non-dev games whose status is in statuses,
	// used by the autonomous scheduler's concurrency gate.
	CountGamesByStatus(ctx context.Context, statuses ...Status) (int, error)

	// GetGame returns the current persisted Game.
	GetGame(ctx context.Context, gameID string) (*Game, error)

	// MutateGame reads the game, calls fn, and writes the result back only
	// if the stored TurnNumber still equals the TurnNumber fn observed on
	// entry. fn returns any error to abort the write. Implementations do not
	// retry: a TurnNumber mismatch at write time returns an error wrapping
	// ErrStaleTurn.
	MutateGame(ctx context.Context, gameID string, fn func(g *Game) error) error
}

// Scheduler is the durable callback abstraction (spec §5): runAfter(delay,
// fn) with at-least-once delivery. Implementations live in
// internal/scheduler.
type Scheduler interface {
	RunAfter(delay time.Duration, fn func(ctx context.Context)) error
}

// DecisionAdapter is the opaque decision RPC contract (spec §4.G).
// Implementations live in internal/decision.
type DecisionAdapter interface {
	GetDecision(ctx context.Context, req DecisionRequest) (Decision, error)
}

// DecisionRequest is the compact game context handed to the adapter.
type DecisionRequest struct {
	GameID        string
	ModelID       string
	SeatIndex     int
	HoleCards     []string
	Board         []string
	Pot           int64
	HandNumber    int
	Legal         LegalActions
	Opponents     []OpponentView
	BettingHistory []ActionLogEntry
	ExpectedTurn  uint64
}

// OpponentView is the brief opponent summary included in a decision request.
type OpponentView struct {
	SeatIndex int
	Chips     int64
	Folded    bool
	IsAllIn   bool
}

// EventPublisher publishes one notification per state-machine transition.
// Implementations live in internal/events.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, gameID string, payload map[string]any)
}

// MetricsSink records engine telemetry. Implementations live in
// internal/metrics.
type MetricsSink interface {
	RecordTurnLatency(d time.Duration)
	RecordTimeout()
	RecordInvalidAction()
	RecordPotSize(amount int64)
	RecordDecisionCost(cost float64, latencyMs int64)
}

// PlayerStore is the durable-identity contract settlement and the
// autonomous scheduler need: transactional reads/writes of Player records,
// an append-only ledger, rank snapshots, and the credit gate. Implementations
// live in internal/store.
type PlayerStore interface {
	MutatePlayer(ctx context.Context, modelID string, fn func(p *Player) error) error
	GetPlayer(ctx context.Context, modelID string) (*Player, error)
	ListPlayers(ctx context.Context) ([]*Player, error)
	AppendLedger(ctx context.Context, tx LedgerTransaction) error
	WriteRankSnapshots(ctx context.Context, snapshots []RankSnapshot) error
	GetCreditAccount(ctx context.Context) (*CreditAccount, error)
}

// AnalyticsSink receives one row per settled hand. Implementations live in
// internal/analytics.
type AnalyticsSink interface {
	RecordHand(ctx context.Context, gameID string, hand HandSummary)
}

// ShuffleAuditor records each hand's shuffle (deck order before and after
// dealing) for certification/audit purposes. A nil ShuffleAuditor on Engine
// disables logging entirely. Implemented by pkg/rng.System.
type ShuffleAuditor interface {
	RecordShuffle(gameID string, handNumber int, before, after []int) error
}
