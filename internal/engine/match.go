package engine

import (
	"fmt"
	"strings"

	"github.com/botarena/holdem/internal/handid"
	"github.com/botarena/holdem/poker"
)

// Match owns the seat ledger and the single in-progress hand. All mutation
// happens through its methods from one goroutine (the session loop); the
// struct itself is not synchronised.
type Match struct {
	cfg       Config
	seats     []*Seat
	button    int
	hand      *Hand
	handIDs   *handid.Generator
	chipTotal int          // invariant: sum(stacks) + hand pot == chipTotal
	forfeited map[int]bool // seats to bust out once the current hand settles
	played    map[int]bool // seats dealt into the current hand
}

// Hand is the mutable state of one hand in progress.
type Hand struct {
	ID                string
	Seed              uint64
	Button            int
	Deck              *poker.Deck
	Community         []poker.Card
	Phase             Phase
	Pot               int
	CurrentBet        int
	MinRaiseIncrement int
	LastAggressor     int // -1 when no full raise has happened this street
	toAct             []int
}

// NewMatch creates a match for the given table configuration.
func NewMatch(cfg Config, ids *handid.Generator) *Match {
	if ids == nil {
		ids = handid.NewGenerator(nil)
	}
	return &Match{
		cfg:       cfg,
		seats:     make([]*Seat, cfg.Seats),
		button:    -1,
		handIDs:   ids,
		forfeited: make(map[int]bool),
		played:    make(map[int]bool),
	}
}

// Config returns the table configuration.
func (m *Match) Config() Config { return m.cfg }

// Seats returns the seat table; unclaimed entries are nil.
func (m *Match) Seats() []*Seat { return m.seats }

// Seat returns the seat at index, or nil.
func (m *Match) Seat(index int) *Seat {
	if index < 0 || index >= len(m.seats) {
		return nil
	}
	return m.seats[index]
}

// Hand returns the in-progress hand, or nil.
func (m *Match) Hand() *Hand { return m.hand }

// Button returns the current button seat, or -1 before the first hand.
func (m *Match) Button() int { return m.button }

// TeamKey normalises a team name for identity comparison.
func TeamKey(team string) string {
	return strings.ToLower(strings.TrimSpace(team))
}

// AssignSeat binds a team to a persistent seat, creating one on first
// contact. A known team gets its existing seat back regardless of stack.
func (m *Match) AssignSeat(team string) (*Seat, error) {
	display := strings.TrimSpace(team)
	if display == "" {
		return nil, ErrTeamRequired
	}

	key := TeamKey(display)
	for _, seat := range m.seats {
		if seat != nil && seat.TeamKey == key {
			return seat, nil
		}
	}

	for idx, seat := range m.seats {
		if seat == nil {
			claimed := &Seat{
				Index:   idx,
				Team:    display,
				TeamKey: key,
				Stack:   m.cfg.StartingStack,
			}
			m.seats[idx] = claimed
			m.chipTotal += m.cfg.StartingStack
			return claimed, nil
		}
	}
	return nil, ErrTableFull
}

// FindSeat returns the seat for a team, or nil if unknown.
func (m *Match) FindSeat(team string) *Seat {
	key := TeamKey(team)
	for _, seat := range m.seats {
		if seat != nil && seat.TeamKey == key {
			return seat
		}
	}
	return nil
}

// CanStartHand reports whether at least two seats hold chips.
func (m *Match) CanStartHand() bool {
	return len(m.fundedSeats()) >= 2
}

// InHand reports whether a hand is in progress.
func (m *Match) InHand() bool { return m.hand != nil }

// ConnectedFunded reports how many funded seats are currently connected.
func (m *Match) ConnectedFunded() int {
	n := 0
	for _, seat := range m.seats {
		if seat != nil && seat.Stack > 0 && seat.Connected {
			n++
		}
	}
	return n
}

// StartHand deals a new hand from seed: rotates the button, deals hole
// cards, posts blinds, and queues the pre-flop actors. The returned events
// are the public record of the startup (blind posts, and street run-outs
// when the blinds already put everyone all-in).
func (m *Match) StartHand(seed uint64) ([]Event, error) {
	if m.hand != nil {
		return nil, ErrHandInProgress
	}
	eligible := m.fundedSeats()
	if len(eligible) < 2 {
		return nil, ErrNotEnough
	}

	clear(m.played)
	for _, seat := range m.seats {
		if seat == nil {
			continue
		}
		seat.resetForHand()
		if seat.Stack == 0 {
			// Busted seats keep their index but sit out.
			seat.HasFolded = true
		} else {
			m.played[seat.Index] = true
		}
	}

	if m.button < 0 {
		m.button = eligible[0].Index
	} else {
		m.button = m.nextFunded(m.button)
	}

	hand := &Hand{
		ID:                m.handIDs.Next(),
		Seed:              seed,
		Button:            m.button,
		Deck:              poker.NewDeck(seed),
		Phase:             PreFlop,
		MinRaiseIncrement: m.cfg.BigBlind,
		LastAggressor:     -1,
	}
	m.hand = hand

	// Hole cards go out one at a time around the table twice, starting
	// left of the button.
	order := m.rotation(m.button+1, func(s *Seat) bool { return s.Stack > 0 || s.TotalInPot > 0 })
	for round := 0; round < 2; round++ {
		for _, idx := range order {
			m.seats[idx].Hole = append(m.seats[idx].Hole, hand.Deck.DealOne())
		}
	}

	events := []Event{m.postBlinds()}
	events = append(events, m.advanceIfSettled()...)
	return events, nil
}

// postBlinds commits the forced bets and builds the pre-flop actor queue.
func (m *Match) postBlinds() Event {
	hand := m.hand
	headsUp := len(m.fundedSeats()) == 2

	var sbSeat, bbSeat int
	if headsUp {
		// Heads-up the button posts the small blind and acts first.
		sbSeat = hand.Button
		bbSeat = m.nextFunded(hand.Button)
	} else {
		sbSeat = m.nextFunded(hand.Button)
		bbSeat = m.nextFunded(sbSeat)
	}

	m.commit(m.seats[sbSeat], m.cfg.SmallBlind)
	m.commit(m.seats[bbSeat], m.cfg.BigBlind)

	hand.CurrentBet = m.cfg.BigBlind
	hand.MinRaiseIncrement = m.cfg.BigBlind
	hand.LastAggressor = bbSeat

	// First to act pre-flop is left of the big blind; heads-up it is the
	// button. The big blind acts last and so keeps the option.
	start := bbSeat + 1
	if headsUp {
		start = hand.Button
	}
	hand.toAct = m.rotation(start, m.mayAct)

	return PostBlindsEvent{SBSeat: sbSeat, BBSeat: bbSeat, SB: m.cfg.SmallBlind, BB: m.cfg.BigBlind}
}

// commit moves chips from stack to the pot, clamped to the stack.
func (m *Match) commit(seat *Seat, amount int) int {
	amount = min(amount, seat.Stack)
	seat.Stack -= amount
	seat.Committed += amount
	seat.TotalInPot += amount
	m.hand.Pot += amount
	if seat.Stack == 0 {
		seat.AllIn = true
	}
	return amount
}

// NextActor returns the seat currently due to act.
func (m *Match) NextActor() (int, bool) {
	if m.hand == nil || len(m.hand.toAct) == 0 {
		return 0, false
	}
	return m.hand.toAct[0], true
}

// IsHandComplete reports whether the current hand has fully settled.
func (m *Match) IsHandComplete() bool {
	return m.hand != nil && m.hand.Phase == Showdown && m.hand.Pot == 0
}

// FinishHand discards the settled hand and busts out any seats forfeited
// while it ran. The returned events are the forfeit eliminations.
func (m *Match) FinishHand() ([]Event, error) {
	if m.hand == nil {
		return nil, ErrNoHand
	}
	if !m.IsHandComplete() {
		return nil, ErrHandInProgress
	}
	m.hand = nil

	var events []Event
	for idx := range m.seats {
		if !m.forfeited[idx] || m.seats[idx] == nil {
			continue
		}
		delete(m.forfeited, idx)
		if m.seats[idx].Stack > 0 {
			m.chipTotal -= m.seats[idx].Stack
			m.seats[idx].Stack = 0
			events = append(events, EliminatedEvent{Seat: idx})
		}
	}
	return events, nil
}

// Forfeit retires a seat: its hand is folded immediately and its remaining
// stack is removed once the hand settles (at once when no hand runs).
func (m *Match) Forfeit(seat int) ([]Event, error) {
	s := m.Seat(seat)
	if s == nil {
		return nil, fmt.Errorf("seat %d not claimed", seat)
	}

	if m.hand != nil && m.played[seat] {
		m.forfeited[seat] = true
		if !s.HasFolded {
			return m.ForceFold(seat)
		}
		return nil, nil
	}

	var events []Event
	if s.Stack > 0 {
		m.chipTotal -= s.Stack
		s.Stack = 0
		events = append(events, EliminatedEvent{Seat: seat})
	}
	return events, nil
}

// IsMatchOver reports whether at most one seat still holds chips.
// Disconnected seats with chips count as alive.
func (m *Match) IsMatchOver() bool {
	claimed := 0
	for _, seat := range m.seats {
		if seat != nil {
			claimed++
		}
	}
	return claimed >= 2 && len(m.fundedSeats()) <= 1
}

// Winner returns the last funded seat once the match is over.
func (m *Match) Winner() *Seat {
	funded := m.fundedSeats()
	if len(funded) == 1 {
		return funded[0]
	}
	return nil
}

// CheckConservation verifies that no chips have been created or destroyed.
// A failure here is fatal for the match.
func (m *Match) CheckConservation() error {
	total := 0
	for _, seat := range m.seats {
		if seat != nil {
			total += seat.Stack
		}
	}
	if m.hand != nil {
		total += m.hand.Pot
	}
	if total != m.chipTotal {
		return fmt.Errorf("%w: have %d chips, want %d", ErrChipDrift, total, m.chipTotal)
	}
	return nil
}

// fundedSeats returns claimed seats that still hold chips, in index order.
func (m *Match) fundedSeats() []*Seat {
	var funded []*Seat
	for _, seat := range m.seats {
		if seat != nil && seat.Stack > 0 {
			funded = append(funded, seat)
		}
	}
	return funded
}

// nextFunded returns the next seat clockwise from start that holds chips.
func (m *Match) nextFunded(start int) int {
	for i := 1; i <= len(m.seats); i++ {
		idx := (start + i) % len(m.seats)
		seat := m.seats[idx]
		if seat != nil && (seat.Stack > 0 || seat.TotalInPot > 0) && !seat.HasFolded {
			return idx
		}
	}
	return start
}

// rotation lists seats clockwise starting at start (inclusive) that
// satisfy pred.
func (m *Match) rotation(start int, pred func(*Seat) bool) []int {
	var out []int
	n := len(m.seats)
	start = ((start % n) + n) % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if m.seats[idx] != nil && pred(m.seats[idx]) {
			out = append(out, idx)
		}
	}
	return out
}
