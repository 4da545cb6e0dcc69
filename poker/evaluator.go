package poker

import "fmt"

// HandScore is a totally ordered hand strength; higher is stronger. Equal
// scores mean a genuine tie and split the pot at payout.
type HandScore uint32

// HandCategory enumerates hand categories from weakest to strongest.
type HandCategory uint8

const (
	HighCard HandCategory = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var categoryLabels = [...]string{
	"high_card",
	"pair",
	"two_pair",
	"three_of_a_kind",
	"straight",
	"flush",
	"full_house",
	"four_of_a_kind",
	"straight_flush",
}

// String returns the wire label for the category, e.g. "two_pair".
func (hc HandCategory) String() string {
	if int(hc) < len(categoryLabels) {
		return categoryLabels[hc]
	}
	return "unknown"
}

// Category extracts the hand category from a score.
func (hs HandScore) Category() HandCategory {
	return HandCategory(hs >> 20)
}

// Evaluate scores the best 5-card hand from 5 to 7 cards. The result is
// independent of card order.
func Evaluate(cards []Card) (HandScore, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("evaluate needs 5-7 cards, got %d", len(cards))
	}

	var best HandScore
	var combo [5]Card
	n := len(cards)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						combo[0], combo[1], combo[2], combo[3], combo[4] =
							cards[a], cards[b], cards[c], cards[d], cards[e]
						if score := evaluateFive(combo); score > best {
							best = score
						}
					}
				}
			}
		}
	}
	return best, nil
}

// EvaluateLabels scores cards given as canonical labels.
func EvaluateLabels(labels []string) (HandScore, error) {
	cards, err := ParseCards(labels)
	if err != nil {
		return 0, err
	}
	return Evaluate(cards)
}

// pack builds a score from a category and up to five kickers ordered most
// significant first. Kicker lists within a category always have the same
// length, so zero padding preserves the total order.
func pack(cat HandCategory, kickers ...int) HandScore {
	score := HandScore(cat) << 20
	shift := 16
	for _, k := range kickers {
		score |= HandScore(k) << shift
		shift -= 4
	}
	return score
}

func evaluateFive(cards [5]Card) HandScore {
	var counts [15]int // indexed by rank value 2..14
	flush := true
	for i, c := range cards {
		counts[c.Rank().Value()]++
		if i > 0 && c.Suit() != cards[0].Suit() {
			flush = false
		}
	}

	straightHigh := straightHighCard(counts)

	if straightHigh > 0 && flush {
		return pack(StraightFlush, straightHigh)
	}

	// Rank values sorted by (count, value) descending drive every
	// paired-hand tiebreak.
	type group struct{ value, count int }
	var groups []group
	for v := 14; v >= 2; v-- {
		if counts[v] > 0 {
			groups = append(groups, group{value: v, count: counts[v]})
		}
	}
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			if groups[j].count > groups[i].count {
				groups[i], groups[j] = groups[j], groups[i]
			}
		}
	}

	switch {
	case groups[0].count == 4:
		return pack(FourOfAKind, groups[0].value, groups[1].value)
	case groups[0].count == 3 && groups[1].count == 2:
		return pack(FullHouse, groups[0].value, groups[1].value)
	case flush:
		return pack(Flush, groups[0].value, groups[1].value, groups[2].value, groups[3].value, groups[4].value)
	case straightHigh > 0:
		return pack(Straight, straightHigh)
	case groups[0].count == 3:
		return pack(ThreeOfAKind, groups[0].value, groups[1].value, groups[2].value)
	case groups[0].count == 2 && groups[1].count == 2:
		return pack(TwoPair, groups[0].value, groups[1].value, groups[2].value)
	case groups[0].count == 2:
		return pack(Pair, groups[0].value, groups[1].value, groups[2].value, groups[3].value)
	default:
		return pack(HighCard, groups[0].value, groups[1].value, groups[2].value, groups[3].value, groups[4].value)
	}
}

// straightHighCard returns the high card value of a 5-card straight, or 0.
// The wheel (A-2-3-4-5) counts with high card 5.
func straightHighCard(counts [15]int) int {
	run := 0
	for v := 2; v <= 14; v++ {
		if counts[v] == 0 {
			run = 0
			continue
		}
		run++
		if run == 5 {
			return v
		}
	}
	if counts[14] > 0 && counts[2] > 0 && counts[3] > 0 && counts[4] > 0 && counts[5] > 0 {
		return 5
	}
	return 0
}
