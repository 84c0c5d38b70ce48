package engine

import (
	"sort"

	"llmpoker/pkg/poker"
)

// PotLayer is one layer of the pot: a main pot or a side pot, formed from a
// band of equal per-seat contribution.
type PotLayer struct {
	Amount    int64
	Eligible  []int // seat indices eligible to win this layer
}

// BuildPotLayers implements spec §4.C: collect the distinct positive
// totalBetThisHand values, and for each consecutive band build a layer
// whose amount is the band width times its number of contributors, and
// whose eligibility excludes folded seats.
func BuildPotLayers(seats []PlayerSeat) []PotLayer {
	levelSet := make(map[int64]bool)
	for _, s := range seats {
		if s.TotalBetThisHand > 0 {
			levelSet[s.TotalBetThisHand] = true
		}
	}
	levels := make([]int64, 0, len(levelSet))
	for l := range levelSet {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var layers []PotLayer
	prev := int64(0)
	for _, level := range levels {
		width := level - prev
		var contributors []int
		var eligible []int
		for i, s := range seats {
			if s.TotalBetThisHand >= level {
				contributors = append(contributors, i)
				if !s.Folded {
					eligible = append(eligible, i)
				}
			}
		}
		amount := width * int64(len(contributors))
		if amount > 0 {
			layers = append(layers, PotLayer{Amount: amount, Eligible: eligible})
		}
		prev = level
	}
	return layers
}

// DistributionResult is the outcome of distributing one layer: the seats
// that won it, the chips each received, and the score they won with.
type DistributionResult struct {
	Layer       PotLayer
	WinnerSeats []int
	SharePerSeat map[int]int64
	Score       uint32
}

// DistributePotLayers takes each seat's already-evaluated best hand and
// resolves every layer's winners and split remainder (spec §4.C.Distribution).
// Seats with no entry in hands (already folded before showdown) are never
// considered. Remainder chips go in clockwiseOrderFrom order, starting at the
// first seat after the button.
func DistributePotLayers(layers []PotLayer, hands map[int]*poker.EvaluatedHand, dealerIndex int, numSeats int) []DistributionResult {
	order := clockwiseOrderFrom((dealerIndex+1)%numSeats, numSeats)

	results := make([]DistributionResult, 0, len(layers))
	for _, layer := range layers {
		if len(layer.Eligible) == 0 {
			results = append(results, DistributionResult{Layer: layer, SharePerSeat: map[int]int64{}})
			continue
		}

		var best uint32
		var winners []int
		for _, seatIdx := range layer.Eligible {
			h := hands[seatIdx]
			if h == nil {
				continue
			}
			if len(winners) == 0 || h.Score > best {
				best = h.Score
				winners = []int{seatIdx}
			} else if h.Score == best {
				winners = append(winners, seatIdx)
			}
		}

		share := layer.Amount / int64(len(winners))
		remainder := layer.Amount % int64(len(winners))

		perSeat := make(map[int]int64, len(winners))
		for _, w := range winners {
			perSeat[w] = share
		}

		// Assign the remainder one chip at a time, starting clockwise from
		// the button, to winners of this layer only.
		for _, seatIdx := range order {
			if remainder == 0 {
				break
			}
			for _, w := range winners {
				if w == seatIdx {
					perSeat[w]++
					remainder--
					break
				}
			}
		}

		results = append(results, DistributionResult{
			Layer:        layer,
			WinnerSeats:  winners,
			SharePerSeat: perSeat,
			Score:        best,
		})
	}
	return results
}

// clockwiseOrderFrom returns seat indices [start, start+1, ...] wrapping at
// numSeats.
func clockwiseOrderFrom(start, numSeats int) []int {
	out := make([]int, numSeats)
	for i := 0; i < numSeats; i++ {
		out[i] = (start + i) % numSeats
	}
	return out
}

// TotalLayerAmount sums every layer's amount, used to assert distributed
// chips equal collected chips (spec §4.C: "this is an assertion").
func TotalLayerAmount(layers []PotLayer) int64 {
	var total int64
	for _, l := range layers {
		total += l.Amount
	}
	return total
}
