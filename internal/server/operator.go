package server

import (
	"github.com/botarena/holdem/internal/protocol"
)

// Operator control surface. Commands invalid for the current state are
// dropped without a reply; the status advisory is the operator's feedback
// channel.

func (s *Session) handleControl(conn *Conn, control protocol.Control) {
	if !s.isOperator(conn) {
		s.logger.Debug("Dropping control from non-operator", "conn", conn.ID()[:8])
		return
	}

	switch control.Command {
	case protocol.CommandStartHand:
		s.controlStartHand()
	case protocol.CommandSkipAction:
		s.controlSkipAction(control.Seat)
	case protocol.CommandForfeitSeat:
		s.controlForfeitSeat(control.Seat)
	default:
		s.logger.Debug("Dropping unknown control command", "command", control.Command)
	}
	s.publishStatus()
}

func (s *Session) isOperator(conn *Conn) bool {
	spec, ok := s.bcast.spectators[conn.ID()]
	return ok && spec.role == protocol.RoleOperator
}

// controlStartHand starts the next hand under operator hand control. If
// the table cannot start yet the command stays armed and fires as soon as
// enough funded seats are connected.
func (s *Session) controlStartHand() {
	if s.cfg.Table.HandControl != HandControlOperator || s.match.InHand() || s.finished {
		return
	}
	s.manualArmed = true
	s.logger.Info("Operator armed hand start")
	s.maybeStartHand()
}

// controlSkipAction expires the acting seat's clock immediately and plays
// the fallback action for it. A seat argument, when given, must name the
// seat actually due to act.
func (s *Session) controlSkipAction(seatArg *int) {
	actor, ok := s.match.NextActor()
	if !ok {
		return
	}
	if seatArg != nil && *seatArg != actor {
		return
	}

	kind, amount, err := s.match.AutoAction(actor)
	if err != nil {
		s.logger.Error("Skip failed", "seat", actor, "error", err)
		return
	}
	s.logger.Info("Operator skipped action", "seat", actor, "auto", kind.String())

	events, err := s.match.Apply(actor, kind, amount)
	if err != nil {
		s.logger.Error("Skip action rejected", "seat", actor, "error", err)
		return
	}
	s.decision.Stop()
	s.afterTransition(events)
}

// controlForfeitSeat retires a seat. Mid-hand the seat folds now and busts
// out when the hand settles; between hands the stack is removed at once.
func (s *Session) controlForfeitSeat(seatArg *int) {
	if seatArg == nil {
		return
	}
	seat := *seatArg

	events, err := s.match.Forfeit(seat)
	if err != nil {
		s.logger.Debug("Forfeit dropped", "seat", seat, "error", err)
		return
	}
	s.logger.Info("Operator forfeited seat", "seat", seat)

	if s.match.InHand() {
		s.afterTransition(events)
		return
	}

	for _, ev := range events {
		s.bcast.ToBots(s.eventFrame(protocol.TypeEvent, ev))
		s.bcast.ToSpectators(s.eventFrame(protocol.TypeSpectatorEvent, ev))
	}
	s.broadcastLobby()
	if s.match.IsMatchOver() {
		s.endMatch(s.match.Winner())
	}
}
