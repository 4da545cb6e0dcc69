package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botarena/holdem/internal/randutil"
)

func testConfig(seats int) Config {
	return Config{Seats: seats, StartingStack: 10000, SmallBlind: 50, BigBlind: 100}
}

func newTestMatch(t *testing.T, seats int, teams ...string) *Match {
	t.Helper()
	m := NewMatch(testConfig(seats), nil)
	for _, team := range teams {
		_, err := m.AssignSeat(team)
		require.NoError(t, err)
	}
	return m
}

// setStack overrides a seat's stack, keeping the conservation ledger honest.
func setStack(m *Match, seat, stack int) {
	m.chipTotal += stack - m.seats[seat].Stack
	m.seats[seat].Stack = stack
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, testConfig(6).Validate())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"too few seats", Config{Seats: 1, StartingStack: 100, SmallBlind: 1, BigBlind: 2}},
		{"too many seats", Config{Seats: 11, StartingStack: 100, SmallBlind: 1, BigBlind: 2}},
		{"zero stack", Config{Seats: 2, StartingStack: 0, SmallBlind: 1, BigBlind: 2}},
		{"zero small blind", Config{Seats: 2, StartingStack: 100, SmallBlind: 0, BigBlind: 2}},
		{"big blind too small", Config{Seats: 2, StartingStack: 100, SmallBlind: 50, BigBlind: 75}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestAssignSeat(t *testing.T) {
	m := newTestMatch(t, 2)

	alpha, err := m.AssignSeat("Alpha")
	require.NoError(t, err)
	assert.Equal(t, 0, alpha.Index)
	assert.Equal(t, 10000, alpha.Stack)

	// Same team, any spelling, gets the same seat back.
	again, err := m.AssignSeat("  ALPHA ")
	require.NoError(t, err)
	assert.Same(t, alpha, again)

	beta, err := m.AssignSeat("Beta")
	require.NoError(t, err)
	assert.Equal(t, 1, beta.Index)

	_, err = m.AssignSeat("Gamma")
	assert.ErrorIs(t, err, ErrTableFull)

	_, err = m.AssignSeat("   ")
	assert.ErrorIs(t, err, ErrTeamRequired)
}

func TestStartHandRequiresTwoFundedSeats(t *testing.T) {
	m := newTestMatch(t, 3, "Alpha")
	_, err := m.StartHand(1)
	assert.ErrorIs(t, err, ErrNotEnough)

	_, err = m.AssignSeat("Beta")
	require.NoError(t, err)
	_, err = m.StartHand(1)
	require.NoError(t, err)

	_, err = m.StartHand(2)
	assert.ErrorIs(t, err, ErrHandInProgress)
}

func TestStartHandPostsBlinds(t *testing.T) {
	m := newTestMatch(t, 3, "Alpha", "Beta", "Gamma")

	events, err := m.StartHand(7)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	blinds, ok := events[0].(PostBlindsEvent)
	require.True(t, ok)
	assert.Equal(t, PostBlindsEvent{SBSeat: 1, BBSeat: 2, SB: 50, BB: 100}, blinds)

	hand := m.Hand()
	assert.Equal(t, 0, hand.Button)
	assert.Equal(t, 150, hand.Pot)
	assert.Equal(t, 100, hand.CurrentBet)
	assert.Equal(t, 9950, m.Seat(1).Stack)
	assert.Equal(t, 9900, m.Seat(2).Stack)

	// Left of the big blind opens, which is the button three-handed.
	actor, ok := m.NextActor()
	require.True(t, ok)
	assert.Equal(t, 0, actor)

	require.NoError(t, m.CheckConservation())
}

func TestStartHandDealsTwoCardsEach(t *testing.T) {
	m := newTestMatch(t, 4, "A", "B", "C", "D")
	_, err := m.StartHand(99)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		assert.Len(t, m.Seat(i).Hole, 2, "seat %d", i)
	}
}

func TestEqualSeedsDealIdentically(t *testing.T) {
	a := newTestMatch(t, 3, "A", "B", "C")
	b := newTestMatch(t, 3, "A", "B", "C")

	_, err := a.StartHand(424242)
	require.NoError(t, err)
	_, err = b.StartHand(424242)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, a.Seat(i).Hole, b.Seat(i).Hole, "seat %d", i)
	}
	for a.Hand().Deck.Remaining() > 0 {
		assert.Equal(t, a.Hand().Deck.DealOne(), b.Hand().Deck.DealOne())
	}
}

func TestHeadsUpButtonPostsSmallBlindAndActsFirst(t *testing.T) {
	m := newTestMatch(t, 2, "Alpha", "Beta")

	events, err := m.StartHand(5)
	require.NoError(t, err)

	blinds := events[0].(PostBlindsEvent)
	assert.Equal(t, 0, blinds.SBSeat)
	assert.Equal(t, 1, blinds.BBSeat)

	actor, ok := m.NextActor()
	require.True(t, ok)
	assert.Equal(t, 0, actor)
}

func TestHeadsUpBigBlindActsFirstPostFlop(t *testing.T) {
	m := newTestMatch(t, 2, "Alpha", "Beta")
	_, err := m.StartHand(5)
	require.NoError(t, err)

	_, err = m.Apply(0, Call, 0)
	require.NoError(t, err)
	events, err := m.Apply(1, Check, 0)
	require.NoError(t, err)

	var sawFlop bool
	for _, ev := range events {
		if _, ok := ev.(FlopEvent); ok {
			sawFlop = true
		}
	}
	assert.True(t, sawFlop)

	actor, ok := m.NextActor()
	require.True(t, ok)
	assert.Equal(t, 1, actor, "big blind opens post-flop heads-up")
}

func TestButtonRotates(t *testing.T) {
	m := newTestMatch(t, 3, "A", "B", "C")

	_, err := m.StartHand(1)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Button())
	foldHandOut(t, m)

	_, err = m.StartHand(2)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Button())
}

// foldHandOut folds every actor until the hand settles, then finishes it.
func foldHandOut(t *testing.T, m *Match) {
	t.Helper()
	for !m.IsHandComplete() {
		actor, ok := m.NextActor()
		require.True(t, ok)
		_, err := m.Apply(actor, Fold, 0)
		require.NoError(t, err)
	}
	_, err := m.FinishHand()
	require.NoError(t, err)
}

func TestForfeitBetweenHands(t *testing.T) {
	m := newTestMatch(t, 2, "Alpha", "Beta")

	events, err := m.Forfeit(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EliminatedEvent{Seat: 1}, events[0])
	assert.Equal(t, 0, m.Seat(1).Stack)
	require.NoError(t, m.CheckConservation())

	assert.True(t, m.IsMatchOver())
	require.NotNil(t, m.Winner())
	assert.Equal(t, "Alpha", m.Winner().Team)
}

func TestForfeitMidHandFoldsNowBustsAfter(t *testing.T) {
	m := newTestMatch(t, 3, "A", "B", "C")
	_, err := m.StartHand(11)
	require.NoError(t, err)

	// Seat 1 posted the small blind and is not the actor.
	events, err := m.Forfeit(1)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, FoldEvent{Seat: 1}, events[0])
	assert.True(t, m.Seat(1).HasFolded)
	assert.NotZero(t, m.Seat(1).Stack, "stack stays until the hand settles")

	for !m.IsHandComplete() {
		actor, ok := m.NextActor()
		require.True(t, ok)
		_, err := m.Apply(actor, Fold, 0)
		require.NoError(t, err)
	}
	events, err = m.FinishHand()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EliminatedEvent{Seat: 1}, events[0])
	assert.Equal(t, 0, m.Seat(1).Stack)
	require.NoError(t, m.CheckConservation())
}

// TestRandomPlayConservesChips drives whole matches with random legal
// actions and checks the chip ledger after every single transition.
func TestRandomPlayConservesChips(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		m := newTestMatch(t, 4, "A", "B", "C", "D")
		rng := randutil.New(seed)

		for hands := 0; hands < 300 && !m.IsMatchOver(); hands++ {
			_, err := m.StartHand(seed*1000 + uint64(hands))
			require.NoError(t, err)
			require.NoError(t, m.CheckConservation())

			for steps := 0; !m.IsHandComplete(); steps++ {
				require.Less(t, steps, 1000, "hand did not terminate")
				actor, ok := m.NextActor()
				require.True(t, ok)

				w, err := m.Window(actor)
				require.NoError(t, err)
				action := w.Legal[rng.IntN(len(w.Legal))]
				amount := 0
				if action == RaiseTo {
					amount = w.MinRaiseTo + rng.IntN(w.MaxRaiseTo-w.MinRaiseTo+1)
				}

				_, err = m.Apply(actor, action, amount)
				require.NoError(t, err, "legal action %s rejected", action)
				require.NoError(t, m.CheckConservation())
			}

			_, err = m.FinishHand()
			require.NoError(t, err)
			require.NoError(t, m.CheckConservation())
		}
	}
}

func TestSeatClaimedMidHandSitsOut(t *testing.T) {
	m := newTestMatch(t, 3, "Alpha", "Beta")
	_, err := m.StartHand(7)
	require.NoError(t, err)

	// A third team arrives while the hand runs. It gets its seat and stack
	// but was never dealt cards, so it has no say in this hand.
	late, err := m.AssignSeat("Late")
	require.NoError(t, err)
	require.Equal(t, 2, late.Index)
	assert.Empty(t, late.Hole)

	_, err = m.Window(2)
	assert.ErrorIs(t, err, ErrInvalidAction)

	// A full raise rebuilds the actor queue; the undealt seat must not be
	// pulled in.
	_, err = m.Apply(0, RaiseTo, 300)
	require.NoError(t, err)
	_, err = m.Apply(2, RaiseTo, 600)
	assert.ErrorIs(t, err, ErrOutOfTurn)

	events, err := m.Apply(1, Call, 0)
	require.NoError(t, err)
	var flopped bool
	for _, ev := range events {
		if _, ok := ev.(FlopEvent); ok {
			flopped = true
		}
	}
	assert.True(t, flopped, "call settles the street with only two players in")

	actor, ok := m.NextActor()
	require.True(t, ok)
	assert.NotEqual(t, 2, actor)
	assert.Equal(t, 10000, late.Stack)
	require.NoError(t, m.CheckConservation())

	// Check the hand down; the joiner is dealt into the next one.
	for !m.IsHandComplete() {
		actor, ok := m.NextActor()
		require.True(t, ok)
		_, err := m.Apply(actor, Check, 0)
		require.NoError(t, err)
	}
	_, err = m.FinishHand()
	require.NoError(t, err)

	_, err = m.StartHand(8)
	require.NoError(t, err)
	assert.Len(t, late.Hole, 2)
}
