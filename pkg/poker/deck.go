package poker

import "errors"

// ErrDeckExhausted is returned when a deal or burn is requested past the
// last undealt card.
var ErrDeckExhausted = errors.New("poker: deck exhausted")

// RandomSource supplies uniform integers in [0, max) for the shuffle. The
// engine backs this with pkg/rng's CSPRNG-based System rather than
// math/rand, so shuffles are suitable for audit logging.
type RandomSource interface {
	RandomInt(max int) int
}

// Deck is an ordered sequence of the 52 unique cards with a cursor marking
// the next undealt card. Callers never index into the deck directly.
type Deck struct {
	cards  []Card
	cursor int
	burned []Card
}

// NewDeck enumerates the 52 (rank, suit) pairs in a fixed, unshuffled order.
func NewDeck() *Deck {
	cards := make([]Card, 0, 52)
	for rank := Rank2; rank <= RankA; rank++ {
		for suit := SuitClubs; suit <= SuitSpades; suit++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return &Deck{cards: cards}
}

// Shuffle performs an in-place Fisher-Yates pass using src for entropy and
// resets the deal cursor and burn record.
func (d *Deck) Shuffle(src RandomSource) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := src.RandomInt(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	d.cursor = 0
	d.burned = nil
}

// Deal moves the cursor forward one card and returns it.
func (d *Deck) Deal() (Card, error) {
	if d.cursor >= len(d.cards) {
		return Card{}, ErrDeckExhausted
	}
	c := d.cards[d.cursor]
	d.cursor++
	return c, nil
}

// DealN deals n cards in order.
func (d *Deck) DealN(n int) ([]Card, error) {
	out := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		c, err := d.Deal()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Burn deals one card into the burn pile, recorded for audit but never
// surfaced as a community card.
func (d *Deck) Burn() (Card, error) {
	c, err := d.Deal()
	if err != nil {
		return Card{}, err
	}
	d.burned = append(d.burned, c)
	return c, nil
}

// BurnedCards returns the cards burned since the last shuffle.
func (d *Deck) BurnedCards() []Card {
	out := make([]Card, len(d.burned))
	copy(out, d.burned)
	return out
}

// Remaining reports how many cards are left to deal.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.cursor
}

// Snapshot returns the card IDs dealt so far and the cards remaining,
// used for shuffle audit logging and for persisting mid-hand deck state.
func (d *Deck) Snapshot() (dealt []int, remaining []int) {
	for i := 0; i < d.cursor; i++ {
		dealt = append(dealt, d.cards[i].ID())
	}
	for i := d.cursor; i < len(d.cards); i++ {
		remaining = append(remaining, d.cards[i].ID())
	}
	return dealt, remaining
}

// RestoreDeck reconstructs a Deck from a prior Snapshot plus its burned
// card IDs: dealtIDs first (the cursor lands just past them), then
// remainingIDs in order. It deals and burns identically to the original
// deck from this point on.
func RestoreDeck(dealtIDs, remainingIDs, burnedIDs []int) *Deck {
	cards := make([]Card, 0, len(dealtIDs)+len(remainingIDs))
	for _, id := range dealtIDs {
		cards = append(cards, CardFromID(id))
	}
	for _, id := range remainingIDs {
		cards = append(cards, CardFromID(id))
	}
	burned := make([]Card, len(burnedIDs))
	for i, id := range burnedIDs {
		burned[i] = CardFromID(id)
	}
	return &Deck{cards: cards, cursor: len(dealtIDs), burned: burned}
}
