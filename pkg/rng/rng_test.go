package rng

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomIntStaysWithinBounds(t *testing.T) {
	sys, err := NewSystem(nil)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		n := sys.RandomInt(52)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 52)
	}
}

func TestRandomIntZeroMaxReturnsZero(t *testing.T) {
	sys, err := NewSystem(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sys.RandomInt(0))
}

func TestNewSystemWithSeedShortSeedIsExpandedBySHA256(t *testing.T) {
	sys, err := NewSystemWithSeed([]byte("short"), nil)
	require.NoError(t, err)
	n := sys.RandomInt(52)
	assert.GreaterOrEqual(t, n, 0)
	assert.Less(t, n, 52)
}

func TestRandomBytesReturnsRequestedLength(t *testing.T) {
	sys, err := NewSystem(nil)
	require.NoError(t, err)

	for _, n := range []int{0, 1, 16, 17, 37} {
		b, err := sys.RandomBytes(n)
		require.NoError(t, err)
		assert.Len(t, b, n)
	}
}

func TestRecordShuffleIsNoOpWithoutAuditLogger(t *testing.T) {
	sys, err := NewSystem(nil)
	require.NoError(t, err)
	assert.NoError(t, sys.RecordShuffle("game-1", 1, []int{}, []int{0, 1, 2}))
}

func TestRecordShuffleLogsWithAuditLogger(t *testing.T) {
	sys, err := NewSystem(NewAuditLogger())
	require.NoError(t, err)
	assert.NoError(t, sys.RecordShuffle("game-1", 1, []int{}, []int{0, 1, 2}))
}

func TestDefaultCSPRNGSatisfiesProvider(t *testing.T) {
	var provider CSPRNGProvider = DefaultCSPRNG()
	buf := make([]byte, 16)
	n, err := provider.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
}

func TestIsDevEnvironmentDefaultsTrueOutsideProduction(t *testing.T) {
	old := os.Getenv("POKER_ENV")
	defer os.Setenv("POKER_ENV", old)

	os.Unsetenv("POKER_ENV")
	assert.True(t, IsDevEnvironment())

	os.Setenv("POKER_ENV", "production")
	assert.False(t, IsDevEnvironment())
}
