package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmpoker/internal/engine"
)

func TestCreateGameAssignsIDAndIsolatesCaller(t *testing.T) {
	st := NewMemoryStore()
	g := &engine.Game{Seats: []engine.PlayerSeat{{SeatIndex: 0, Chips: 100}}}

	id, err := st.CreateGame(context.Background(), g)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// Mutating the caller's original struct after CreateGame must not leak
	// into the stored copy.
	g.Seats[0].Chips = 999

	stored, err := st.GetGame(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.Seats[0].Chips)
}

func TestCountGamesByStatusExcludesDevGames(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, err := st.CreateGame(ctx, &engine.Game{Status: engine.StatusActive})
	require.NoError(t, err)
	_, err = st.CreateGame(ctx, &engine.Game{Status: engine.StatusActive, IsDevGame: true})
	require.NoError(t, err)
	_, err = st.CreateGame(ctx, &engine.Game{Status: engine.StatusCompleted})
	require.NoError(t, err)

	count, err := st.CountGamesByStatus(ctx, engine.StatusActive, engine.StatusWaiting)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the dev game must not count toward the concurrency gate")
}

func TestMutateGameRejectsWhenTurnNumberAdvancedDuringCallback(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	id, err := st.CreateGame(ctx, &engine.Game{Status: engine.StatusActive})
	require.NoError(t, err)

	// Simulate a second writer racing ahead while fn is still executing: its
	// commit lands after we've already read and started mutating, so the
	// working copy's observed turn no longer matches the live record.
	err = st.MutateGame(ctx, id, func(g *engine.Game) error {
		g.TableState.TurnNumber = 5 // diverge from what's actually live
		live := st.games[id]
		live.TableState.TurnNumber = 1 // concurrent writer already committed
		return nil
	})
	assert.ErrorIs(t, err, engine.ErrStaleTurn)
}

func TestMutatePlayerCreatesPlayerOnFirstAccess(t *testing.T) {
	st := NewMemoryStore()
	err := st.MutatePlayer(context.Background(), "m0", func(p *engine.Player) error {
		assert.Equal(t, "m0", p.ModelID)
		p.Balance = 500
		return nil
	})
	require.NoError(t, err)

	p, err := st.GetPlayer(context.Background(), "m0")
	require.NoError(t, err)
	assert.Equal(t, int64(500), p.Balance)
}
