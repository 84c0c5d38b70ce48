package scheduler_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmpoker/internal/engine"
	"llmpoker/internal/scheduler"
	"llmpoker/internal/store"
)

type fakeStarter struct{ started []string }

func (f *fakeStarter) StartHand(_ context.Context, gameID string) error {
	f.started = append(f.started, gameID)
	return nil
}

func seedPlayer(t *testing.T, st *store.MemoryStore, modelID string, balance int64) {
	t.Helper()
	err := st.MutatePlayer(context.Background(), modelID, func(p *engine.Player) error {
		p.Balance = balance
		return nil
	})
	require.NoError(t, err)
}

func TestTryCreateScheduledGameCreditGateBlocksBelowTenPercent(t *testing.T) {
	st := store.NewMemoryStore()
	st.SetCreditAccount(engine.CreditAccount{Balance: 1.5, Limit: 20})
	seedPlayer(t, st, "m0", 1000)
	seedPlayer(t, st, "m1", 1000)

	starter := &fakeStarter{}
	sched := scheduler.New(st, st, starter, scheduler.Roster{"m0", "m1"}, engine.Config{BuyIn: 1000}, zerolog.Nop())

	result := sched.TryCreateScheduledGame(context.Background(), false)

	assert.False(t, result.Created)
	assert.Equal(t, "Credits below 10%", result.Reason)
	assert.Empty(t, starter.started, "no game should have been started")
}

func TestTryCreateScheduledGameConcurrencyGateBlocksAtMax(t *testing.T) {
	st := store.NewMemoryStore()
	st.SetCreditAccount(engine.CreditAccount{Balance: 20, Limit: 20})
	seedPlayer(t, st, "m0", 1000)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		g := &engine.Game{Status: engine.StatusActive}
		_, err := st.CreateGame(ctx, g)
		require.NoError(t, err)
	}

	starter := &fakeStarter{}
	sched := scheduler.New(st, st, starter, scheduler.Roster{"m0"}, engine.Config{BuyIn: 1000}, zerolog.Nop())

	result := sched.TryCreateScheduledGame(ctx, false)
	assert.False(t, result.Created)
	assert.Equal(t, "max concurrent games reached", result.Reason)
}

func TestTryCreateScheduledGameMissingRosterModelAborts(t *testing.T) {
	st := store.NewMemoryStore()
	st.SetCreditAccount(engine.CreditAccount{Balance: 20, Limit: 20})
	seedPlayer(t, st, "m0", 1000)
	// "m1" is never seeded: GetPlayer will fail for it.

	starter := &fakeStarter{}
	sched := scheduler.New(st, st, starter, scheduler.Roster{"m0", "m1"}, engine.Config{BuyIn: 1000}, zerolog.Nop())

	result := sched.TryCreateScheduledGame(context.Background(), false)
	assert.False(t, result.Created)
	assert.Contains(t, result.Reason, "m1")
}

func TestTryCreateScheduledGameHappyPathDebitsBuyInAndStartsHand(t *testing.T) {
	st := store.NewMemoryStore()
	st.SetCreditAccount(engine.CreditAccount{Balance: 20, Limit: 20})
	seedPlayer(t, st, "m0", 1000)
	seedPlayer(t, st, "m1", 1000)

	starter := &fakeStarter{}
	sched := scheduler.New(st, st, starter, scheduler.Roster{"m0", "m1"}, engine.Config{BuyIn: 1000, TurnTimeoutMs: 30000}, zerolog.Nop())

	result := sched.TryCreateScheduledGame(context.Background(), false)
	require.True(t, result.Created)
	require.NotEmpty(t, result.GameID)
	assert.Equal(t, []string{result.GameID}, starter.started)

	g, err := st.GetGame(context.Background(), result.GameID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusActive, g.Status)
	require.Len(t, g.Seats, 2)
	assert.Equal(t, int64(1000), g.Seats[0].Chips)

	p0, err := st.GetPlayer(context.Background(), "m0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), p0.Balance, "buy-in debited from the durable balance")
}

func TestTryCreateScheduledGameForceBypassesConcurrencyAndCreditGates(t *testing.T) {
	st := store.NewMemoryStore()
	st.SetCreditAccount(engine.CreditAccount{Balance: 0, Limit: 20})
	seedPlayer(t, st, "m0", 1000)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := st.CreateGame(ctx, &engine.Game{Status: engine.StatusActive})
		require.NoError(t, err)
	}

	starter := &fakeStarter{}
	sched := scheduler.New(st, st, starter, scheduler.Roster{"m0"}, engine.Config{BuyIn: 1000}, zerolog.Nop())

	result := sched.TryCreateScheduledGame(ctx, true)
	assert.True(t, result.Created, "force must bypass the concurrency and credit gates")
}
