package engine

import (
	"fmt"

	"github.com/botarena/holdem/poker"
)

// mayAct reports whether a seat was dealt into the current hand and can
// still take betting actions. Seats claimed while a hand runs sit out
// until the next deal.
func (m *Match) mayAct(s *Seat) bool {
	return s.canAct() && m.played[s.Index]
}

// Window computes the legal action set for a seat owing action.
func (m *Match) Window(seat int) (ActionWindow, error) {
	if m.hand == nil {
		return ActionWindow{}, ErrNoHand
	}
	s := m.Seat(seat)
	if s == nil || !m.played[seat] || s.HasFolded {
		return ActionWindow{}, fmt.Errorf("%w: seat %d not in hand", ErrInvalidAction, seat)
	}
	if s.AllIn {
		return ActionWindow{}, fmt.Errorf("%w: seat %d is all in", ErrInvalidAction, seat)
	}

	hand := m.hand
	w := ActionWindow{Legal: []ActionType{Fold}}

	call := hand.CurrentBet - s.Committed
	if call <= 0 {
		w.Legal = append(w.Legal, Check)
	} else {
		w.CallAmount = min(call, s.Stack)
		w.Legal = append(w.Legal, Call)
	}

	maxTo := s.Committed + s.Stack
	if maxTo > hand.CurrentBet {
		w.MaxRaiseTo = maxTo
		w.MinRaiseTo = hand.CurrentBet + hand.MinRaiseIncrement
		if w.MinRaiseTo >= maxTo {
			// Stack too short for a full raise: only the all-in
			// "short raise" remains, and it will not reopen betting.
			w.MinRaiseTo = maxTo
			w.ShortOnly = true
		}
		w.Legal = append(w.Legal, RaiseTo)
	}

	return w, nil
}

// Apply validates and applies one action for the seat due to act. Invalid
// actions leave the state untouched; the caller keeps waiting on the same
// actor.
func (m *Match) Apply(seat int, action ActionType, amount int) ([]Event, error) {
	if m.hand == nil {
		return nil, ErrNoHand
	}
	actor, ok := m.NextActor()
	if !ok || actor != seat {
		return nil, ErrOutOfTurn
	}

	w, err := m.Window(seat)
	if err != nil {
		return nil, err
	}
	if !w.Allows(action) {
		return nil, fmt.Errorf("%w: %s not offered", ErrInvalidAction, action)
	}
	if action == RaiseTo && (amount < w.MinRaiseTo || amount > w.MaxRaiseTo) {
		return nil, fmt.Errorf("%w: raise to %d outside [%d, %d]", ErrInvalidAction, amount, w.MinRaiseTo, w.MaxRaiseTo)
	}

	hand := m.hand
	s := m.seats[seat]
	hand.toAct = hand.toAct[1:]

	var events []Event
	switch action {
	case Fold:
		s.HasFolded = true
		events = append(events, FoldEvent{Seat: seat})
		if win := m.lastSeatStanding(); win != nil {
			return append(events, m.awardUncontested(win)...), nil
		}

	case Check:
		events = append(events, CheckEvent{Seat: seat})

	case Call:
		paid := m.commit(s, hand.CurrentBet-s.Committed)
		events = append(events, CallEvent{Seat: seat, Amount: paid, AllIn: s.AllIn})

	case RaiseTo:
		fullRaise := amount-hand.CurrentBet >= hand.MinRaiseIncrement
		paid := m.commit(s, amount-s.Committed)
		if fullRaise {
			hand.MinRaiseIncrement = amount - hand.CurrentBet
			hand.LastAggressor = seat
			// Everyone still able to act owes a response to a full
			// raise; a short all-in leaves the queue untouched.
			hand.toAct = m.rotation(seat+1, func(s *Seat) bool {
				return s.Index != seat && m.mayAct(s)
			})
		}
		hand.CurrentBet = amount
		events = append(events, BetEvent{Seat: seat, Amount: paid, To: amount})
	}

	return append(events, m.advanceIfSettled()...), nil
}

// ForceFold folds a seat regardless of turn order. Used for operator
// forfeits; it never errors on a seat that cannot fold.
func (m *Match) ForceFold(seat int) ([]Event, error) {
	if m.hand == nil {
		return nil, ErrNoHand
	}
	s := m.Seat(seat)
	if s == nil || s.HasFolded {
		return nil, nil
	}

	s.HasFolded = true
	m.hand.toAct = removeSeat(m.hand.toAct, seat)

	events := []Event{FoldEvent{Seat: seat}}
	if win := m.lastSeatStanding(); win != nil {
		return append(events, m.awardUncontested(win)...), nil
	}
	return append(events, m.advanceIfSettled()...), nil
}

// AutoAction picks the fallback action for a seat whose clock expired:
// check when free, call when possible, fold otherwise.
func (m *Match) AutoAction(seat int) (ActionType, int, error) {
	w, err := m.Window(seat)
	if err != nil {
		return Fold, 0, err
	}
	switch {
	case w.Allows(Check):
		return Check, 0, nil
	case w.Allows(Call):
		return Call, 0, nil
	default:
		return Fold, 0, nil
	}
}

// lastSeatStanding returns the only non-folded seat, or nil while the hand
// is still contested.
func (m *Match) lastSeatStanding() *Seat {
	var last *Seat
	for _, seat := range m.seats {
		if seat != nil && !seat.HasFolded && m.played[seat.Index] {
			if last != nil {
				return nil
			}
			last = seat
		}
	}
	return last
}

// awardUncontested pays the whole pot to the last seat standing without
// revealing any hole cards.
func (m *Match) awardUncontested(winner *Seat) []Event {
	hand := m.hand
	hand.toAct = nil
	hand.Phase = Showdown

	var events []Event
	if hand.Pot > 0 {
		winner.Stack += hand.Pot
		events = append(events, PotAwardEvent{Seat: winner.Index, Amount: hand.Pot, Pot: 0})
		hand.Pot = 0
	}
	events = append(events, m.sweepEliminations()...)
	m.clearCommitments()
	return events
}

// advanceIfSettled advances streets while no seat owes an action, dealing
// community cards and finally resolving the showdown. Streets with fewer
// than two seats able to act are dealt straight through.
func (m *Match) advanceIfSettled() []Event {
	hand := m.hand
	var events []Event

	for hand.Phase != Showdown && len(hand.toAct) == 0 {
		switch hand.Phase {
		case PreFlop:
			cards := hand.Deck.Deal(3)
			hand.Community = append(hand.Community, cards...)
			hand.Phase = Flop
			events = append(events, FlopEvent{Cards: cardLabels(cards)})
		case Flop:
			card := hand.Deck.DealOne()
			hand.Community = append(hand.Community, card)
			hand.Phase = Turn
			events = append(events, TurnEvent{Card: card.String()})
		case Turn:
			card := hand.Deck.DealOne()
			hand.Community = append(hand.Community, card)
			hand.Phase = River
			events = append(events, RiverEvent{Card: card.String()})
		case River:
			hand.Phase = Showdown
			events = append(events, m.resolveShowdown()...)
			return events
		}

		for _, seat := range m.seats {
			if seat != nil {
				seat.resetForStreet()
			}
		}
		hand.CurrentBet = 0
		hand.MinRaiseIncrement = m.cfg.BigBlind
		hand.LastAggressor = -1

		// Betting only happens with two or more seats able to act;
		// otherwise the remaining streets run out uncontested.
		if actors := m.rotation(hand.Button+1, m.mayAct); len(actors) >= 2 {
			hand.toAct = actors
		}
	}
	return events
}

func (m *Match) clearCommitments() {
	for _, seat := range m.seats {
		if seat != nil {
			seat.Committed = 0
			seat.TotalInPot = 0
		}
	}
}

// sweepEliminations reports seats that were dealt into this hand and now
// hold nothing.
func (m *Match) sweepEliminations() []Event {
	var events []Event
	for _, idx := range m.rotation(m.hand.Button+1, func(s *Seat) bool {
		return m.played[s.Index] && s.Stack == 0
	}) {
		events = append(events, EliminatedEvent{Seat: idx})
	}
	return events
}

func removeSeat(queue []int, seat int) []int {
	out := queue[:0]
	for _, idx := range queue {
		if idx != seat {
			out = append(out, idx)
		}
	}
	return out
}

func cardLabels(cards []poker.Card) []string {
	labels := make([]string, len(cards))
	for i, c := range cards {
		labels[i] = c.String()
	}
	return labels
}
