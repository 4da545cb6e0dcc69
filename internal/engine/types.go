// Package engine implements the No-Limit Texas Hold'em rules for a single
// table: dealing, the betting state machine, side pots and payouts, and
// multi-hand match orchestration. No networking or timers live here; every
// side effect flows out through the returned event slices so a hand can be
// replayed deterministically from (seed, seats, actions).
package engine

import (
	"errors"
	"fmt"

	"github.com/botarena/holdem/poker"
)

// Phase is the stage of the current hand.
type Phase int

const (
	PreFlop Phase = iota
	Flop
	Turn
	River
	Showdown
)

var phaseNames = [...]string{"PRE_FLOP", "FLOP", "TURN", "RIVER", "SHOWDOWN"}

func (p Phase) String() string {
	return phaseNames[p]
}

// ActionType is a player decision.
type ActionType int

const (
	Fold ActionType = iota
	Check
	Call
	RaiseTo
)

var actionNames = [...]string{"FOLD", "CHECK", "CALL", "RAISE_TO"}

func (a ActionType) String() string {
	return actionNames[a]
}

// ParseActionType maps a wire action name to an ActionType.
func ParseActionType(name string) (ActionType, error) {
	for i, n := range actionNames {
		if n == name {
			return ActionType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, name)
}

// Config holds the table parameters fixed for the whole match.
type Config struct {
	Seats         int
	StartingStack int
	SmallBlind    int
	BigBlind      int
}

// Validate enforces the configuration surface limits.
func (c Config) Validate() error {
	if c.Seats < 2 || c.Seats > 10 {
		return fmt.Errorf("seats must be between 2 and 10, got %d", c.Seats)
	}
	if c.StartingStack <= 0 {
		return fmt.Errorf("starting stack must be positive, got %d", c.StartingStack)
	}
	if c.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive, got %d", c.SmallBlind)
	}
	if c.BigBlind < 2*c.SmallBlind {
		return fmt.Errorf("big blind %d must be at least twice the small blind %d", c.BigBlind, c.SmallBlind)
	}
	return nil
}

// Seat is the persistent record for one participant. Seats are created at
// first hello and keep their index for the whole match; connection state is
// tracked by the registry, chips live here.
type Seat struct {
	Index      int
	Team       string // display form, first observed spelling
	TeamKey    string // case-folded comparison key
	Stack      int
	Connected  bool
	Committed  int // chips committed this street
	TotalInPot int // chips committed this hand
	HasFolded  bool
	AllIn      bool
	Hole       []poker.Card
}

func (s *Seat) resetForHand() {
	s.Committed = 0
	s.TotalInPot = 0
	s.HasFolded = false
	s.AllIn = false
	s.Hole = nil
}

func (s *Seat) resetForStreet() {
	s.Committed = 0
}

// inHand reports whether the seat is still contesting the current hand.
func (s *Seat) inHand() bool {
	return s != nil && !s.HasFolded && (s.Stack > 0 || s.TotalInPot > 0)
}

// canAct reports whether the seat can still take betting actions.
func (s *Seat) canAct() bool {
	return s != nil && !s.HasFolded && !s.AllIn && s.Stack > 0
}

// ActionWindow describes the legal actions for the seat currently due to
// act, with the helper amounts bots need to size a decision.
type ActionWindow struct {
	Legal      []ActionType
	CallAmount int // 0 when checking is free
	MinRaiseTo int // 0 when raising is not legal
	MaxRaiseTo int // all-in upper bound; 0 when raising is not legal
	ShortOnly  bool
}

// Allows reports whether the window permits the given action.
func (w ActionWindow) Allows(action ActionType) bool {
	for _, a := range w.Legal {
		if a == action {
			return true
		}
	}
	return false
}

// Errors surfaced to the protocol layer. The server maps these onto wire
// error codes.
var (
	ErrTableFull      = errors.New("no open seats")
	ErrTeamRequired   = errors.New("team name required")
	ErrHandInProgress = errors.New("hand already in progress")
	ErrNoHand         = errors.New("no hand in progress")
	ErrNotEnough      = errors.New("fewer than two seats hold chips")
	ErrOutOfTurn      = errors.New("seat is not due to act")
	ErrInvalidAction  = errors.New("action not legal")
	ErrChipDrift      = errors.New("chip conservation violated")
)
