package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardIDRoundTrip(t *testing.T) {
	card := NewCard(RankA, SuitSpades)
	assert.Equal(t, 51, card.ID())
	assert.Equal(t, card, CardFromID(card.ID()))
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name     string
		cards    []Card
		expected Category
	}{
		{
			name:     "high card",
			cards:    []Card{{RankA, SuitSpades}, {RankK, SuitHearts}, {RankQ, SuitDiamonds}, {Rank8, SuitClubs}, {Rank4, SuitSpades}},
			expected: HighCard,
		},
		{
			name:     "one pair",
			cards:    []Card{{RankA, SuitSpades}, {RankA, SuitHearts}, {RankK, SuitDiamonds}, {RankQ, SuitClubs}, {RankJ, SuitSpades}},
			expected: OnePair,
		},
		{
			name:     "two pair",
			cards:    []Card{{RankA, SuitSpades}, {RankA, SuitHearts}, {RankK, SuitDiamonds}, {RankK, SuitClubs}, {RankQ, SuitSpades}},
			expected: TwoPair,
		},
		{
			name:     "three of a kind",
			cards:    []Card{{RankA, SuitSpades}, {RankA, SuitHearts}, {RankA, SuitDiamonds}, {RankK, SuitClubs}, {RankQ, SuitSpades}},
			expected: ThreeOfAKind,
		},
		{
			name:     "straight ace high",
			cards:    []Card{{RankA, SuitSpades}, {RankK, SuitHearts}, {RankQ, SuitDiamonds}, {RankJ, SuitClubs}, {Rank10, SuitSpades}},
			expected: Straight,
		},
		{
			name:     "flush",
			cards:    []Card{{RankA, SuitSpades}, {RankK, SuitSpades}, {RankQ, SuitSpades}, {Rank8, SuitSpades}, {Rank4, SuitSpades}},
			expected: Flush,
		},
		{
			name:     "full house",
			cards:    []Card{{RankA, SuitSpades}, {RankA, SuitHearts}, {RankA, SuitDiamonds}, {RankK, SuitClubs}, {RankK, SuitSpades}},
			expected: FullHouse,
		},
		{
			name:     "four of a kind",
			cards:    []Card{{RankA, SuitSpades}, {RankA, SuitHearts}, {RankA, SuitDiamonds}, {RankA, SuitClubs}, {RankK, SuitSpades}},
			expected: FourOfAKind,
		},
		{
			name:     "straight flush",
			cards:    []Card{{Rank9, SuitSpades}, {Rank8, SuitSpades}, {Rank7, SuitSpades}, {Rank6, SuitSpades}, {Rank5, SuitSpades}},
			expected: StraightFlush,
		},
		{
			name:     "royal flush",
			cards:    []Card{{RankA, SuitSpades}, {RankK, SuitSpades}, {RankQ, SuitSpades}, {RankJ, SuitSpades}, {Rank10, SuitSpades}},
			expected: RoyalFlush,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand, err := Evaluate(tt.cards)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, hand.Category)
		})
	}
}

func TestEvaluateWheelStraight(t *testing.T) {
	wheel, err := Evaluate([]Card{
		{RankA, SuitSpades}, {Rank2, SuitHearts}, {Rank3, SuitDiamonds}, {Rank4, SuitClubs}, {Rank5, SuitSpades},
	})
	require.NoError(t, err)
	assert.Equal(t, Straight, wheel.Category)

	sixHigh, err := Evaluate([]Card{
		{Rank2, SuitSpades}, {Rank3, SuitHearts}, {Rank4, SuitDiamonds}, {Rank5, SuitClubs}, {Rank6, SuitSpades},
	})
	require.NoError(t, err)
	assert.Equal(t, Straight, sixHigh.Category)

	assert.Equal(t, -1, wheel.Compare(sixHigh), "wheel straight must rank below 6-high straight")

	trips, err := Evaluate([]Card{
		{Rank3, SuitSpades}, {Rank3, SuitHearts}, {Rank3, SuitDiamonds}, {Rank9, SuitClubs}, {RankJ, SuitSpades},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, wheel.Compare(trips), "wheel straight must rank above three of a kind")
}

func TestEvaluateSevenCardBestOf21(t *testing.T) {
	// Board plus hole cards containing a flush the player should find even
	// though their hole cards alone are unremarkable.
	cards := []Card{
		{RankA, SuitSpades}, {Rank2, SuitHearts}, // hole
		{RankK, SuitSpades}, {RankQ, SuitSpades}, {RankJ, SuitSpades}, {Rank9, SuitSpades}, {Rank3, SuitClubs}, // board
	}
	hand, err := Evaluate(cards)
	require.NoError(t, err)
	assert.Equal(t, Flush, hand.Category)
}

func TestEvaluateRejectsInvalidCardSets(t *testing.T) {
	_, err := Evaluate([]Card{{RankA, SuitSpades}, {RankK, SuitHearts}})
	assert.ErrorIs(t, err, ErrInvalidCardSet)

	_, err = Evaluate([]Card{
		{RankA, SuitSpades}, {RankA, SuitSpades}, {RankK, SuitHearts}, {RankQ, SuitDiamonds}, {RankJ, SuitClubs},
	})
	assert.ErrorIs(t, err, ErrInvalidCardSet)
}

func TestCompareTieIsEqualScore(t *testing.T) {
	a, err := Evaluate([]Card{{RankA, SuitSpades}, {RankK, SuitHearts}, {RankQ, SuitDiamonds}, {RankJ, SuitClubs}, {Rank9, SuitSpades}})
	require.NoError(t, err)
	b, err := Evaluate([]Card{{RankA, SuitHearts}, {RankK, SuitSpades}, {RankQ, SuitClubs}, {RankJ, SuitDiamonds}, {Rank9, SuitHearts}})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Compare(b))
}
