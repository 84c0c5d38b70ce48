package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmpoker/pkg/poker"
)

func TestBuildPotLayersThreeWayUnequalStacks(t *testing.T) {
	seats := []PlayerSeat{
		{SeatIndex: 0, TotalBetThisHand: 100, Folded: false},
		{SeatIndex: 1, TotalBetThisHand: 300, Folded: false},
		{SeatIndex: 2, TotalBetThisHand: 300, Folded: false},
	}

	layers := BuildPotLayers(seats)
	require.Len(t, layers, 2)

	// Main pot: all three contributed the first 100.
	assert.Equal(t, int64(300), layers[0].Amount)
	assert.ElementsMatch(t, []int{0, 1, 2}, layers[0].Eligible)

	// Side pot: only seats 1 and 2 contributed the next 200 each.
	assert.Equal(t, int64(400), layers[1].Amount)
	assert.ElementsMatch(t, []int{1, 2}, layers[1].Eligible)

	assert.Equal(t, int64(700), TotalLayerAmount(layers))
}

func TestBuildPotLayersExcludesFoldedSeatsFromEligibility(t *testing.T) {
	seats := []PlayerSeat{
		{SeatIndex: 0, TotalBetThisHand: 200, Folded: true},
		{SeatIndex: 1, TotalBetThisHand: 200, Folded: false},
	}
	layers := BuildPotLayers(seats)
	require.Len(t, layers, 1)
	assert.Equal(t, int64(400), layers[0].Amount)
	assert.ElementsMatch(t, []int{1}, layers[0].Eligible)
}

func TestDistributePotLayersSplitPotRemainderClockwiseFromButton(t *testing.T) {
	layers := []PotLayer{{Amount: 101, Eligible: []int{0, 1}}}

	tie := &poker.EvaluatedHand{Score: 1000}
	hands := map[int]*poker.EvaluatedHand{0: tie, 1: tie}

	// dealerIndex = 2 in a 3-seat game (seat 2 doesn't appear in this pot,
	// but the remainder order still starts clockwise from dealer+1 = seat 0).
	results := DistributePotLayers(layers, hands, 2, 3)
	require.Len(t, results, 1)

	assert.ElementsMatch(t, []int{0, 1}, results[0].WinnerSeats)
	assert.Equal(t, int64(51), results[0].SharePerSeat[0])
	assert.Equal(t, int64(50), results[0].SharePerSeat[1])
}

func TestDistributePotLayersSingleWinnerTakesWholeLayer(t *testing.T) {
	layers := []PotLayer{{Amount: 300, Eligible: []int{0, 1}}}
	hands := map[int]*poker.EvaluatedHand{
		0: {Score: 2000},
		1: {Score: 1000},
	}
	results := DistributePotLayers(layers, hands, 0, 2)
	require.Len(t, results, 1)
	assert.Equal(t, []int{0}, results[0].WinnerSeats)
	assert.Equal(t, int64(300), results[0].SharePerSeat[0])
}

func TestDistributePotLayersThreeWaySidePots(t *testing.T) {
	seats := []PlayerSeat{
		{SeatIndex: 0, TotalBetThisHand: 100},
		{SeatIndex: 1, TotalBetThisHand: 300},
		{SeatIndex: 2, TotalBetThisHand: 300},
	}
	layers := BuildPotLayers(seats)
	require.Len(t, layers, 2)

	hands := map[int]*poker.EvaluatedHand{
		0: {Score: 5000}, // best hand, only eligible for the main pot
		1: {Score: 3000},
		2: {Score: 4000},
	}

	results := DistributePotLayers(layers, hands, 2, 3)
	require.Len(t, results, 2)

	// Main pot: seat 0 has the best hand among all three contributors.
	assert.Equal(t, []int{0}, results[0].WinnerSeats)
	assert.Equal(t, int64(300), results[0].SharePerSeat[0])

	// Side pot: only seats 1 and 2 are eligible; seat 2 wins it.
	assert.Equal(t, []int{2}, results[1].WinnerSeats)
	assert.Equal(t, int64(400), results[1].SharePerSeat[2])
}
