// Package store implements the transactional persistence layer for games
// and the durable player/ledger/credit records, as an in-memory store (for
// tests and single-process operation) and a Postgres-backed store.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"llmpoker/internal/engine"
	"llmpoker/pkg/poker"
)

// MemoryStore implements engine.Store and engine.PlayerStore entirely
// in-process, guarded by a single mutex. Optimistic concurrency is
// enforced on TurnNumber exactly as a networked store would: MutateGame
// reads a deep copy, lets the caller mutate it, and only commits if
// TurnNumber on the live record still equals what the caller observed on
// entry.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string]*engine.Game

	players   map[string]*engine.Player
	ledger    []engine.LedgerTransaction
	ranks     []engine.RankSnapshot
	credits   engine.CreditAccount
}

// NewMemoryStore returns an empty MemoryStore with a permissive default
// credit account (dev/test convenience — production wiring reads the real
// credit endpoint via internal/creditclient).
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:   make(map[string]*engine.Game),
		players: make(map[string]*engine.Player),
		credits: engine.CreditAccount{Balance: 20, Used: 0, Limit: 20, LastSyncedAt: time.Now()},
	}
}

func (m *MemoryStore) CreateGame(ctx context.Context, g *engine.Game) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	cp := cloneGame(g)
	m.games[cp.ID] = cp
	return cp.ID, nil
}

func (m *MemoryStore) CountGamesByStatus(ctx context.Context, statuses ...engine.Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[engine.Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	count := 0
	for _, g := range m.games {
		if g.IsDevGame {
			continue
		}
		if want[g.Status] {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) GetGame(ctx context.Context, gameID string) (*engine.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return nil, fmt.Errorf("store: game %s not found", gameID)
	}
	return cloneGame(g), nil
}

func (m *MemoryStore) MutateGame(ctx context.Context, gameID string, fn func(g *engine.Game) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	live, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("store: game %s not found", gameID)
	}

	working := cloneGame(live)
	observedTurn := working.TableState.TurnNumber

	if err := fn(working); err != nil {
		return err
	}

	// Optimistic lock: re-read the live record (unchanged since we hold the
	// mutex for the whole call, but a networked store would re-check here
	// against the observed turn before committing).
	if live.TableState.TurnNumber != observedTurn {
		return fmt.Errorf("store: %w", engine.ErrStaleTurn)
	}

	m.games[gameID] = working
	return nil
}

func (m *MemoryStore) MutatePlayer(ctx context.Context, modelID string, fn func(p *engine.Player) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[modelID]
	if !ok {
		p = &engine.Player{ModelID: modelID}
		m.players[modelID] = p
	}
	return fn(p)
}

func (m *MemoryStore) GetPlayer(ctx context.Context, modelID string) (*engine.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[modelID]
	if !ok {
		return nil, fmt.Errorf("store: player %s not found", modelID)
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) ListPlayers(ctx context.Context) ([]*engine.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*engine.Player, 0, len(m.players))
	for _, p := range m.players {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) AppendLedger(ctx context.Context, tx engine.LedgerTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = append(m.ledger, tx)
	return nil
}

func (m *MemoryStore) WriteRankSnapshots(ctx context.Context, snapshots []engine.RankSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranks = append(m.ranks, snapshots...)
	return nil
}

func (m *MemoryStore) GetCreditAccount(ctx context.Context) (*engine.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := m.credits
	return &cp, nil
}

// SetCreditAccount overwrites the credit account, used by tests.
func (m *MemoryStore) SetCreditAccount(c engine.CreditAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credits = c
}

// UpdateCreditAccount overwrites the credit account. It gives MemoryStore
// the same signature as PostgresStore.UpdateCreditAccount so main.go's
// credit sync loop can run against either backend interchangeably.
func (m *MemoryStore) UpdateCreditAccount(ctx context.Context, c engine.CreditAccount) error {
	m.SetCreditAccount(c)
	return nil
}

func cloneGame(g *engine.Game) *engine.Game {
	cp := *g
	cp.Seats = append([]engine.PlayerSeat{}, g.Seats...)
	for i := range cp.Seats {
		cp.Seats[i].HoleCards = append([]poker.Card{}, g.Seats[i].HoleCards...)
	}
	cp.TableState.CommunityCards = append([]poker.Card{}, g.TableState.CommunityCards...)
	cp.TableState.Deck.DealtCardIDs = append([]int{}, g.TableState.Deck.DealtCardIDs...)
	cp.TableState.Deck.RemainingCardIDs = append([]int{}, g.TableState.Deck.RemainingCardIDs...)
	cp.TableState.Deck.BurnedCardIDs = append([]int{}, g.TableState.Deck.BurnedCardIDs...)
	cp.ActionLog = append([]engine.ActionLogEntry{}, g.ActionLog...)
	cp.HandHistory = append([]engine.HandSummary{}, g.HandHistory...)
	cp.PerPlayerStats = make(map[string]*engine.PlayerStats, len(g.PerPlayerStats))
	for k, v := range g.PerPlayerStats {
		vc := *v
		vc.ActionCounts = make(map[engine.Action]int, len(v.ActionCounts))
		for a, n := range v.ActionCounts {
			vc.ActionCounts[a] = n
		}
		cp.PerPlayerStats[k] = &vc
	}
	if g.ThinkingSeat != nil {
		seat := *g.ThinkingSeat
		cp.ThinkingSeat = &seat
	}
	if g.CompletedAt != nil {
		t := *g.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
