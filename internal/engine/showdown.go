package engine

import (
	"github.com/botarena/holdem/poker"
)

// SidePot is one contribution tier peeled from the hand's commitments.
type SidePot struct {
	Amount   int
	Eligible []int // non-folded contributors, in seat order
}

// buildSidePots peels contribution tiers from every seat's total
// commitment. Folded seats contribute dead money to each tier they reach
// but are never eligible. The peel stops once no live seat has chips left
// to account for; any trailing dead money joins the last pot.
func (m *Match) buildSidePots() []SidePot {
	remaining := make(map[int]int)
	for _, seat := range m.seats {
		if seat != nil && seat.TotalInPot > 0 {
			remaining[seat.Index] = seat.TotalInPot
		}
	}

	var pots []SidePot
	for {
		level := 0
		for idx, amt := range remaining {
			if amt <= 0 || m.seats[idx].HasFolded {
				continue
			}
			if level == 0 || amt < level {
				level = amt
			}
		}
		if level == 0 {
			break
		}

		pot := SidePot{}
		for _, seat := range m.seats {
			if seat == nil || remaining[seat.Index] <= 0 {
				continue
			}
			take := min(level, remaining[seat.Index])
			pot.Amount += take
			remaining[seat.Index] -= take
			if !seat.HasFolded && m.played[seat.Index] {
				pot.Eligible = append(pot.Eligible, seat.Index)
			}
		}
		pots = append(pots, pot)
	}

	// Dead money above the highest live commitment cannot happen through
	// legal play, but never let chips vanish if it does.
	if len(pots) > 0 {
		for _, amt := range remaining {
			pots[len(pots)-1].Amount += amt
		}
	}
	return pots
}

// resolveShowdown reveals live hands, evaluates every pot, and credits the
// winners. Reveal order and the odd-chip rule both start from the seat
// closest left of the button.
func (m *Match) resolveShowdown() []Event {
	hand := m.hand
	board := cardLabels(hand.Community)

	var events []Event
	scores := make(map[int]poker.HandScore)
	live := m.rotation(hand.Button+1, func(s *Seat) bool {
		return m.played[s.Index] && !s.HasFolded
	})
	for _, idx := range live {
		seat := m.seats[idx]
		cards := append(append([]poker.Card(nil), seat.Hole...), hand.Community...)
		score, err := poker.Evaluate(cards)
		if err != nil {
			// Engine-dealt cards are always well formed.
			continue
		}
		scores[idx] = score
		events = append(events, ShowdownEvent{
			Seat:  idx,
			Hand:  cardLabels(seat.Hole),
			Board: board,
			Rank:  score.Category().String(),
		})
	}

	for potIdx, pot := range m.buildSidePots() {
		if pot.Amount == 0 {
			continue
		}

		var best poker.HandScore
		for _, idx := range pot.Eligible {
			if scores[idx] > best {
				best = scores[idx]
			}
		}
		var winners []int
		for _, idx := range pot.Eligible {
			if scores[idx] == best {
				winners = append(winners, idx)
			}
		}
		if len(winners) == 0 {
			continue
		}

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)

		// Indivisible chips go to tied winners closest left of the
		// button, deterministically.
		ordered := m.rotation(hand.Button+1, func(s *Seat) bool {
			for _, w := range winners {
				if w == s.Index {
					return true
				}
			}
			return false
		})
		for i, idx := range ordered {
			payout := share
			if i < remainder {
				payout++
			}
			m.seats[idx].Stack += payout
			hand.Pot -= payout
			events = append(events, PotAwardEvent{Seat: idx, Amount: payout, Pot: potIdx})
		}
	}

	events = append(events, m.sweepEliminations()...)
	m.clearCommitments()
	return events
}
