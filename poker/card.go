package poker

import "fmt"

// Card identifies one of the 52 cards as rank*4+suit. The canonical deck
// order is ranks ascending 2..A with suits h,d,c,s inside each rank, which
// is the order a fresh Deck holds before shuffling.
type Card uint8

// Rank indexes 0..12 for 2..A.
type Rank uint8

// Suit indexes 0..3 for hearts, diamonds, clubs, spades.
type Suit uint8

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

const (
	Deuce Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const rankChars = "23456789TJQKA"
const suitChars = "hdcs"

// ErrInvalidCard is wrapped by ParseCard for malformed labels.
var ErrInvalidCard = fmt.Errorf("invalid card")

// NewCard builds a card from rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card(uint8(rank)*4 + uint8(suit))
}

// Rank returns the card's rank.
func (c Card) Rank() Rank {
	return Rank(c / 4)
}

// Suit returns the card's suit.
func (c Card) Suit() Suit {
	return Suit(c % 4)
}

// Value returns the comparable rank value, 2..14 with aces high.
func (r Rank) Value() int {
	return int(r) + 2
}

// String returns the canonical two-character label, e.g. "Ah" or "Tc".
func (c Card) String() string {
	return string([]byte{rankChars[c.Rank()], suitChars[c.Suit()]})
}

// ParseCard parses a canonical label back into a Card.
func ParseCard(label string) (Card, error) {
	if len(label) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, label)
	}

	rank := -1
	for i := 0; i < len(rankChars); i++ {
		if rankChars[i] == label[0] {
			rank = i
			break
		}
	}
	suit := -1
	for i := 0; i < len(suitChars); i++ {
		if suitChars[i] == label[1] {
			suit = i
			break
		}
	}
	if rank < 0 || suit < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, label)
	}

	return NewCard(Rank(rank), Suit(suit)), nil
}

// ParseCards parses a list of labels, failing on the first malformed one.
func ParseCards(labels []string) ([]Card, error) {
	cards := make([]Card, len(labels))
	for i, label := range labels {
		card, err := ParseCard(label)
		if err != nil {
			return nil, err
		}
		cards[i] = card
	}
	return cards, nil
}

// Labels converts cards to their canonical labels.
func Labels(cards []Card) []string {
	labels := make([]string, len(cards))
	for i, c := range cards {
		labels[i] = c.String()
	}
	return labels
}
