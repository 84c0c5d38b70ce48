package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"llmpoker/internal/engine"
)

const (
	// maxConcurrentGames bounds how many non-dev games may be waiting or
	// active at once (spec §4.J gate 1).
	maxConcurrentGames = 2

	// minCreditFraction is the floor on balance/limit below which the
	// scheduler refuses to create a new game (spec §4.J gate 2).
	minCreditFraction = 0.10

	// tickInterval is the autonomous scheduler's cadence (spec §6).
	tickInterval = 2 * time.Hour
)

// Starter begins the hand loop for a freshly created game. Implemented by
// *engine.Engine; kept as a narrow interface here to avoid a dependency
// cycle back onto the full engine package surface.
type Starter interface {
	StartHand(ctx context.Context, gameID string) error
}

// Roster is the fixed list of models seated into every autonomously
// created game.
type Roster []string

// AutoScheduler runs spec §4.J's periodic tick and manual force entrypoint.
type AutoScheduler struct {
	store   engine.Store
	players engine.PlayerStore
	starter Starter
	roster  Roster
	config  engine.Config
	logger  zerolog.Logger

	stopCh chan struct{}
}

// New builds an AutoScheduler.
func New(store engine.Store, players engine.PlayerStore, starter Starter, roster Roster, config engine.Config, logger zerolog.Logger) *AutoScheduler {
	return &AutoScheduler{
		store:   store,
		players: players,
		starter: starter,
		roster:  roster,
		config:  config,
		logger:  logger.With().Str("component", "autoscheduler").Logger(),
		stopCh:  make(chan struct{}),
	}
}

// Run ticks every tickInterval until ctx is cancelled or Stop is called.
func (a *AutoScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCh:
			return
		case <-ticker.C:
			result := a.TryCreateScheduledGame(ctx, false)
			if !result.Created {
				a.logger.Info().Str("reason", result.Reason).Msg("scheduler tick skipped")
			}
		}
	}
}

// Stop halts Run.
func (a *AutoScheduler) Stop() { close(a.stopCh) }

// CreationResult is the outcome of one TryCreateScheduledGame call.
type CreationResult struct {
	Created bool
	Reason  string
	GameID  string
}

// TryCreateScheduledGame implements spec §4.J. force bypasses gates (1) and
// (2) — concurrency and credit — but still enforces (3) roster validation,
// (4) buy-in debit, and (5) activation.
func (a *AutoScheduler) TryCreateScheduledGame(ctx context.Context, force bool) CreationResult {
	if !force {
		active, err := a.store.CountGamesByStatus(ctx, engine.StatusActive, engine.StatusWaiting)
		if err != nil {
			return CreationResult{Reason: fmt.Sprintf("count games: %v", err)}
		}
		if active >= maxConcurrentGames {
			return CreationResult{Reason: "max concurrent games reached"}
		}

		credits, err := a.players.GetCreditAccount(ctx)
		if err != nil {
			return CreationResult{Reason: fmt.Sprintf("read credit account: %v", err)}
		}
		if credits.Limit <= 0 || credits.Balance/credits.Limit < minCreditFraction {
			return CreationResult{Reason: "Credits below 10%"}
		}
	}

	players := make([]*engine.Player, 0, len(a.roster))
	for _, modelID := range a.roster {
		p, err := a.players.GetPlayer(ctx, modelID)
		if err != nil || p == nil {
			return CreationResult{Reason: fmt.Sprintf("roster model %s missing", modelID)}
		}
		if p.Balance < a.config.BuyIn {
			return CreationResult{Reason: fmt.Sprintf("roster model %s insufficient balance", modelID)}
		}
		players = append(players, p)
	}

	seats := make([]engine.PlayerSeat, len(players))
	for i, p := range players {
		seats[i] = engine.PlayerSeat{ModelID: p.ModelID, SeatIndex: i, Chips: a.config.BuyIn}
	}

	game := &engine.Game{
		ID:             uuid.NewString(),
		Status:         engine.StatusWaiting,
		Config:         a.config,
		Seats:          seats,
		PerPlayerStats: map[string]*engine.PlayerStats{},
		CreatedAt:      time.Now(),
	}
	for _, modelID := range a.roster {
		game.PerPlayerStats[modelID] = engine.NewPlayerStats()
	}

	gameID, err := a.store.CreateGame(ctx, game)
	if err != nil {
		return CreationResult{Reason: fmt.Sprintf("create game: %v", err)}
	}

	for _, modelID := range a.roster {
		var balanceAfter int64
		err := a.players.MutatePlayer(ctx, modelID, func(p *engine.Player) error {
			if p.Balance < a.config.BuyIn {
				return engine.ErrInsufficientChips
			}
			p.Balance -= a.config.BuyIn
			p.TotalBuyIns += a.config.BuyIn
			balanceAfter = p.Balance
			return nil
		})
		if err != nil {
			return CreationResult{Reason: fmt.Sprintf("debit buy-in for %s: %v", modelID, err)}
		}
		if err := a.players.AppendLedger(ctx, engine.LedgerTransaction{
			ModelID:      modelID,
			GameID:       gameID,
			Kind:         engine.LedgerBuyIn,
			Amount:       -a.config.BuyIn,
			BalanceAfter: balanceAfter,
			CreatedAt:    time.Now(),
		}); err != nil {
			return CreationResult{Reason: fmt.Sprintf("ledger entry for %s: %v", modelID, err)}
		}
	}

	if err := a.store.MutateGame(ctx, gameID, func(g *engine.Game) error {
		g.Status = engine.StatusActive
		return nil
	}); err != nil {
		return CreationResult{Reason: fmt.Sprintf("activate game: %v", err)}
	}

	if err := a.starter.StartHand(ctx, gameID); err != nil {
		a.logger.Warn().Err(err).Str("game", gameID).Msg("start hand failed after creation")
	}

	return CreationResult{Created: true, GameID: gameID}
}
