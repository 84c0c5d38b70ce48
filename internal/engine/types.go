// Package engine implements the game state machine, turn dispatcher, pot
// manager, and settlement for a no-limit Hold'em table played by remote
// model agents.
package engine

import (
	"time"

	"llmpoker/pkg/poker"
)

// Phase is a betting street, or a terminal phase of the hand loop.
type Phase string

const (
	PhasePreflop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
)

// Status is the lifecycle state of a Game.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Action is a legal player action.
type Action string

const (
	ActionFold  Action = "fold"
	ActionCheck Action = "check"
	ActionCall  Action = "call"
	ActionRaise Action = "raise"
	ActionAllIn Action = "all-in"
)

// WinCondition records how a hand ended.
type WinCondition string

const (
	WinShowdown   WinCondition = "showdown"
	WinAllFolded  WinCondition = "all_folded"
)

// Config is the per-game configuration fixed at creation time.
type Config struct {
	BuyIn         int64
	SmallBlind    int64
	BigBlind      int64
	MaxHands      int
	TurnTimeoutMs int64
}

// PlayerSeat is one model's seat at the table, fixed for the life of the game.
type PlayerSeat struct {
	ModelID          string
	SeatIndex        int
	Chips            int64
	HoleCards        []poker.Card
	CurrentBet       int64
	TotalBetThisHand int64
	Folded           bool
	IsAllIn          bool
	HasActed         bool
}

// Busted reports whether the seat has no chips and cannot play another hand.
func (s *PlayerSeat) Busted() bool {
	return s.Chips == 0 && !s.IsAllIn
}

// TableState is the mutable betting state of the current hand.
type TableState struct {
	Phase              Phase
	CommunityCards     []poker.Card
	DealerIndex        int
	CurrentPlayerIndex int
	CurrentBet         int64
	MinRaise           int64
	LastRaiseAmount    int64
	LastAggressor      int
	TurnNumber         uint64
	Deck               DeckState
}

// DeckState is the persisted snapshot of the current hand's deck: the
// card IDs already dealt (in deal order, burn cards included), the
// undealt remainder, and which dealt cards were burns. Carrying this on
// the Game record (rather than holding the live *poker.Deck in process
// memory) is what lets a hand resume mid-street after a server restart
// without re-shuffling or re-dealing a card already shown to a seat.
type DeckState struct {
	DealtCardIDs     []int
	RemainingCardIDs []int
	BurnedCardIDs    []int
}

// Pot returns the sum of all seats' total bet this hand — a convenience
// figure, not the source of truth for distribution (see PotManager).
func (t *TableState) Pot(seats []PlayerSeat) int64 {
	var total int64
	for _, s := range seats {
		total += s.TotalBetThisHand
	}
	return total
}

// PlayerStats is the running behavioral telemetry for one model across a
// game: hands played, action totals, showdown record, timeouts.
type PlayerStats struct {
	HandsDealt        int
	HandsPlayed        int
	PreflopRaises      int
	PreflopCalls       int
	PreflopFolds       int
	ActionCounts       map[Action]int
	ShowdownsReached   int
	ShowdownsWon       int
	Timeouts           int
	InvalidActions     int
}

// NewPlayerStats returns a zeroed PlayerStats with its map initialized.
func NewPlayerStats() *PlayerStats {
	return &PlayerStats{ActionCounts: make(map[Action]int)}
}

// HandSummary is one completed hand's entry in Game.HandHistory.
type HandSummary struct {
	HandNumber   int
	Pot          int64
	Board        []poker.Card
	WinnerIDs    []string
	WinCondition WinCondition
	Actions      []ActionLogEntry
}

// Game is the persisted root document for one table.
type Game struct {
	ID             string
	Status         Status
	Config         Config
	Seats          []PlayerSeat
	TableState     TableState
	PerPlayerStats map[string]*PlayerStats
	ActionLog      []ActionLogEntry
	HandHistory    []HandSummary
	ThinkingSeat   *int
	CurrentHand    int
	TotalAICost    float64
	IsDevGame      bool
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// actionLogCap is the bound on Game.ActionLog — only the most recent entries
// are retained (spec: "bounded sequence (most recent ≤30)").
const actionLogCap = 30

// AppendActionLog appends an entry, trimming the log to actionLogCap.
func (g *Game) AppendActionLog(e ActionLogEntry) {
	g.ActionLog = append(g.ActionLog, e)
	if len(g.ActionLog) > actionLogCap {
		g.ActionLog = g.ActionLog[len(g.ActionLog)-actionLogCap:]
	}
}

// ActiveSeats returns the indices of seats with chips > 0 at hand start.
func (g *Game) ActiveSeats() []int {
	var out []int
	for i, s := range g.Seats {
		if s.Chips > 0 {
			out = append(out, i)
		}
	}
	return out
}

// NonFoldedSeats returns the indices of seats still in the current hand.
func (g *Game) NonFoldedSeats() []int {
	var out []int
	for i, s := range g.Seats {
		if !s.Folded {
			out = append(out, i)
		}
	}
	return out
}

// Player is the durable global identity for one model, shared across games.
type Player struct {
	ModelID        string
	Balance        int64
	TotalBuyIns    int64
	TotalCashOuts  int64
	GamesPlayed    int
	GamesWon       int
	BiggestWin     int64
	BiggestLoss    int64
	TokensSpent    int64
	CostUSD        float64
	AggregateStats PlayerStats
}

// LedgerKind is the type of a LedgerTransaction.
type LedgerKind string

const (
	LedgerBuyIn     LedgerKind = "buy_in"
	LedgerCashOut   LedgerKind = "cash_out"
	LedgerAdjustment LedgerKind = "adjustment"
)

// LedgerTransaction is an append-only record of a balance change.
type LedgerTransaction struct {
	ModelID      string
	GameID       string
	Kind         LedgerKind
	Amount       int64
	BalanceAfter int64
	CreatedAt    time.Time
}

// CreditAccount is the scheduler's view of the external credit balance.
type CreditAccount struct {
	Balance      float64
	Used         float64
	Limit        float64
	LastSyncedAt time.Time
}

// RankSnapshot is one row of a per-settlement leaderboard snapshot.
type RankSnapshot struct {
	ModelID     string
	Balance     int64
	Rank        int
	ComputedAt  time.Time
}
