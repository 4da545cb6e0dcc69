package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldToWin(t *testing.T) {
	m := newTestMatch(t, 3, "A", "B", "C")
	_, err := m.StartHand(3)
	require.NoError(t, err)

	// Button opens to 400, the blinds get out of the way.
	_, err = m.Apply(0, RaiseTo, 400)
	require.NoError(t, err)
	_, err = m.Apply(1, Fold, 0)
	require.NoError(t, err)
	events, err := m.Apply(2, Fold, 0)
	require.NoError(t, err)

	var award *PotAwardEvent
	for _, ev := range events {
		switch e := ev.(type) {
		case PotAwardEvent:
			award = &e
		case ShowdownEvent:
			t.Fatal("uncontested pot must not reveal hole cards")
		case FlopEvent, TurnEvent, RiverEvent:
			t.Fatalf("no further streets after a fold-to-win, got %s", ev.Ev())
		}
	}
	require.NotNil(t, award)
	assert.Equal(t, PotAwardEvent{Seat: 0, Amount: 550, Pot: 0}, *award)

	assert.Equal(t, 10150, m.Seat(0).Stack)
	assert.Equal(t, 9950, m.Seat(1).Stack)
	assert.Equal(t, 9900, m.Seat(2).Stack)
	assert.True(t, m.IsHandComplete())
	require.NoError(t, m.CheckConservation())
}

func TestShortStackOffersOnlyShortRaise(t *testing.T) {
	m := newTestMatch(t, 2, "Alpha", "Beta")
	setStack(m, 0, 125)

	_, err := m.StartHand(9)
	require.NoError(t, err)

	// Button posted 50 of a 125 stack; a full min-raise to 200 is out of
	// reach, so the only raise is the 125 all-in.
	w, err := m.Window(0)
	require.NoError(t, err)
	assert.True(t, w.Allows(Call))
	assert.Equal(t, 50, w.CallAmount)
	assert.True(t, w.Allows(RaiseTo))
	assert.Equal(t, 125, w.MinRaiseTo)
	assert.Equal(t, 125, w.MaxRaiseTo)
	assert.True(t, w.ShortOnly)

	_, err = m.Apply(0, RaiseTo, 200)
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = m.Apply(0, RaiseTo, 125)
	require.NoError(t, err)
	assert.True(t, m.Seat(0).AllIn)
	require.NoError(t, m.CheckConservation())
}

func TestShortAllInRaiseDoesNotReopenBetting(t *testing.T) {
	m := newTestMatch(t, 3, "A", "B", "C")
	setStack(m, 2, 350)

	_, err := m.StartHand(21)
	require.NoError(t, err)

	// Button makes a full raise to 300; the small blind folds.
	_, err = m.Apply(0, RaiseTo, 300)
	require.NoError(t, err)
	_, err = m.Apply(1, Fold, 0)
	require.NoError(t, err)

	// The big blind's 350 all-in is 50 over the bet, far short of the 200
	// increment. The button already acted and owes no response, so the
	// hand runs straight out.
	events, err := m.Apply(2, RaiseTo, 350)
	require.NoError(t, err)

	actionDone := false
	awards := 0
	awarded := 0
	for _, ev := range events {
		switch e := ev.(type) {
		case BetEvent:
			assert.False(t, actionDone)
		case FlopEvent:
			actionDone = true
		case PotAwardEvent:
			awards++
			awarded += e.Amount
			if e.Pot == 1 {
				// The unmatched 50 comes straight back to the all-in seat.
				assert.Equal(t, 2, e.Seat)
				assert.Equal(t, 50, e.Amount)
			}
		}
	}
	assert.True(t, actionDone, "streets should run out with no further action")
	assert.GreaterOrEqual(t, awards, 1)
	assert.Equal(t, 700, awarded, "button 300 + all-in 350 + folded small blind 50")
	assert.True(t, m.IsHandComplete())
	require.NoError(t, m.CheckConservation())
}

func TestFullRaiseReopensBetting(t *testing.T) {
	m := newTestMatch(t, 3, "A", "B", "C")

	_, err := m.StartHand(13)
	require.NoError(t, err)

	_, err = m.Apply(0, RaiseTo, 300)
	require.NoError(t, err)
	_, err = m.Apply(1, Fold, 0)
	require.NoError(t, err)
	_, err = m.Apply(2, RaiseTo, 600)
	require.NoError(t, err)

	// The button faces the re-raise and must act again.
	actor, ok := m.NextActor()
	require.True(t, ok)
	assert.Equal(t, 0, actor)

	w, err := m.Window(0)
	require.NoError(t, err)
	assert.Equal(t, 300, w.CallAmount)
	assert.Equal(t, 900, w.MinRaiseTo, "next raise must add at least the 300 increment")
}

func TestOutOfTurnRejected(t *testing.T) {
	m := newTestMatch(t, 3, "A", "B", "C")
	_, err := m.StartHand(17)
	require.NoError(t, err)

	before := m.Seat(1).Stack
	_, err = m.Apply(1, Fold, 0)
	assert.ErrorIs(t, err, ErrOutOfTurn)
	assert.Equal(t, before, m.Seat(1).Stack)
	assert.False(t, m.Seat(1).HasFolded)
}

func TestIllegalActionLeavesStateUnchanged(t *testing.T) {
	m := newTestMatch(t, 3, "A", "B", "C")
	_, err := m.StartHand(17)
	require.NoError(t, err)

	pot := m.Hand().Pot
	stack := m.Seat(0).Stack

	// Checking while facing the big blind is not offered.
	_, err = m.Apply(0, Check, 0)
	assert.ErrorIs(t, err, ErrInvalidAction)

	// Raising below the minimum is rejected.
	_, err = m.Apply(0, RaiseTo, 150)
	assert.ErrorIs(t, err, ErrInvalidAction)

	assert.Equal(t, pot, m.Hand().Pot)
	assert.Equal(t, stack, m.Seat(0).Stack)
	actor, _ := m.NextActor()
	assert.Equal(t, 0, actor, "actor unchanged after rejections")
}

func TestAllInSeatCannotActAgain(t *testing.T) {
	m := newTestMatch(t, 3, "A", "B", "C")
	setStack(m, 0, 200)

	_, err := m.StartHand(23)
	require.NoError(t, err)

	_, err = m.Apply(0, RaiseTo, 200)
	require.NoError(t, err)
	require.True(t, m.Seat(0).AllIn)

	_, err = m.Apply(0, Fold, 0)
	assert.ErrorIs(t, err, ErrOutOfTurn)
}

func TestCallForExactStackIsAllInAndNoRaise(t *testing.T) {
	m := newTestMatch(t, 2, "Alpha", "Beta")
	setStack(m, 0, 100)

	_, err := m.StartHand(29)
	require.NoError(t, err)

	// Button holds exactly the big blind: calling uses the whole stack and
	// no raise is possible.
	w, err := m.Window(0)
	require.NoError(t, err)
	assert.Equal(t, []ActionType{Fold, Call}, w.Legal)
	assert.Equal(t, 50, w.CallAmount)

	_, err = m.Apply(0, Call, 0)
	require.NoError(t, err)
	assert.True(t, m.Seat(0).AllIn)
}

func TestCheckCommitsNothing(t *testing.T) {
	m := newTestMatch(t, 2, "Alpha", "Beta")
	_, err := m.StartHand(31)
	require.NoError(t, err)

	_, err = m.Apply(0, Call, 0)
	require.NoError(t, err)
	_, err = m.Apply(1, Check, 0)
	require.NoError(t, err)

	// On the flop the big blind checks first and commits nothing.
	pot := m.Hand().Pot
	stack := m.Seat(1).Stack
	actor, _ := m.NextActor()
	require.Equal(t, 1, actor)
	events, err := m.Apply(1, Check, 0)
	require.NoError(t, err)

	assert.Equal(t, CheckEvent{Seat: 1}, events[0])
	assert.Equal(t, pot, m.Hand().Pot)
	assert.Equal(t, stack, m.Seat(1).Stack)
}

func TestAutoActionPrefersCheckThenCall(t *testing.T) {
	m := newTestMatch(t, 2, "Alpha", "Beta")
	_, err := m.StartHand(37)
	require.NoError(t, err)

	// Button faces the half-blind: no free check, so auto-play calls.
	action, amount, err := m.AutoAction(0)
	require.NoError(t, err)
	assert.Equal(t, Call, action)
	assert.Equal(t, 0, amount)

	_, err = m.Apply(0, Call, 0)
	require.NoError(t, err)

	// The big blind closes the street for free.
	action, _, err = m.AutoAction(1)
	require.NoError(t, err)
	assert.Equal(t, Check, action)
}

func TestBlindAllInRunsHandOut(t *testing.T) {
	m := newTestMatch(t, 2, "Alpha", "Beta")
	setStack(m, 0, 50)

	events, err := m.StartHand(41)
	require.NoError(t, err)

	// The button's whole stack went in on the small blind; only the big
	// blind can act.
	actor, ok := m.NextActor()
	require.True(t, ok)
	assert.Equal(t, 1, actor)

	_, err = m.Apply(1, Check, 0)
	require.NoError(t, err)
	assert.True(t, m.IsHandComplete())
	require.NoError(t, m.CheckConservation())

	_ = events
	total := m.Seat(0).Stack + m.Seat(1).Stack
	assert.Equal(t, 50+10000, total)
}
