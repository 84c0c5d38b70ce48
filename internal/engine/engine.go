package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"llmpoker/pkg/poker"
)

// interHandDelay is the scheduler delay between settle_hand and the next
// start_hand. The UI uses this window for animation; the core treats it as
// an ordinary scheduler delay.
const interHandDelay = 1500 * time.Millisecond

// Engine wires the state machine, turn dispatcher, and settlement logic to
// their collaborators. One Engine serves every game; per-game serialization
// comes from Store.MutateGame's optimistic lock on TurnNumber, not from any
// lock held here.
type Engine struct {
	store       Store
	players     PlayerStore
	scheduler   Scheduler
	decision    DecisionAdapter
	events      EventPublisher
	metrics     MetricsSink
	analytics   AnalyticsSink
	rng         poker.RandomSource
	auditor     ShuffleAuditor
	logger      zerolog.Logger
}

// New builds an Engine from its collaborators. auditor may be nil, which
// disables shuffle audit logging (implementations satisfying it are
// optional, not part of the core transactional contract).
func New(store Store, players PlayerStore, scheduler Scheduler, decision DecisionAdapter, events EventPublisher, metrics MetricsSink, analytics AnalyticsSink, rng poker.RandomSource, auditor ShuffleAuditor, logger zerolog.Logger) *Engine {
	return &Engine{
		store:     store,
		players:   players,
		scheduler: scheduler,
		decision:  decision,
		events:    events,
		metrics:   metrics,
		analytics: analytics,
		rng:       rng,
		auditor:   auditor,
		logger:    logger.With().Str("component", "engine").Logger(),
	}
}

// recordShuffleAudit is a best-effort, logged-on-failure audit log call;
// never allowed to fail the hand it describes.
func (e *Engine) recordShuffleAudit(gameID string, handNumber int, before, after []int) {
	if e.auditor == nil {
		return
	}
	if err := e.auditor.RecordShuffle(gameID, handNumber, before, after); err != nil {
		e.logger.Warn().Err(err).Str("game", gameID).Msg("shuffle audit log failed")
	}
}

// seatAt returns a pointer to g.Seats[idx], validated to be in range.
func seatAt(g *Game, idx int) *PlayerSeat {
	if idx < 0 || idx >= len(g.Seats) {
		return nil
	}
	return &g.Seats[idx]
}

// publishEvent is a best-effort, logged-on-failure fire of EventPublisher;
// never allowed to fail a transaction.
func (e *Engine) publishEvent(ctx context.Context, eventType, gameID string, payload map[string]any) {
	if e.events == nil {
		return
	}
	e.events.Publish(ctx, eventType, gameID, payload)
}
