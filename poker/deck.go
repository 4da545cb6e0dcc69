package poker

import (
	"github.com/botarena/holdem/internal/randutil"
)

// Deck is a standard 52-card deck dealt sequentially from the top.
type Deck struct {
	cards [52]Card
	next  int
}

// NewDeck returns a deck shuffled deterministically from seed. Two decks
// built with equal seeds deal byte-identical sequences.
func NewDeck(seed uint64) *Deck {
	d := &Deck{}
	for i := range d.cards {
		d.cards[i] = Card(i)
	}

	// Fisher-Yates driven only by the seed and the canonical ordering.
	rng := randutil.New(seed)
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	return d
}

// Deal pops n cards from the top of the deck. Returns nil if the deck
// does not hold n more cards.
func (d *Deck) Deal(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards
}

// DealOne pops a single card.
func (d *Deck) DealOne() Card {
	card := d.cards[d.next]
	d.next++
	return card
}

// Remaining reports how many cards are left to deal.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
