package server

import (
	"github.com/botarena/holdem/internal/engine"
	"github.com/botarena/holdem/internal/protocol"
	"github.com/botarena/holdem/poker"
)

// Payload builders. Every outbound frame is assembled here from match
// state; session.go decides who receives it.

func (s *Session) frame(msgType string, payload any) []byte {
	data, err := protocol.Marshal(msgType, payload, s.clock.Now())
	if err != nil {
		s.logger.Error("Failed to marshal frame", "type", msgType, "error", err)
		return nil
	}
	return data
}

func (s *Session) eventFrame(msgType string, ev engine.Event) []byte {
	data, err := protocol.MarshalEvent(msgType, ev, s.clock.Now())
	if err != nil {
		s.logger.Error("Failed to marshal event", "ev", ev.Ev(), "error", err)
		return nil
	}
	return data
}

func (s *Session) configInfo() protocol.ConfigInfo {
	t := s.cfg.Table
	return protocol.ConfigInfo{
		Variant:       "NLHE",
		Seats:         t.Seats,
		StartingStack: t.StartingStack,
		SB:            t.SmallBlind,
		BB:            t.BigBlind,
		MoveTimeMS:    t.MoveTimeMS,
	}
}

func (s *Session) welcomePayload(seat *engine.Seat) protocol.Welcome {
	return protocol.Welcome{
		TableID: s.tableID,
		Seat:    seat.Index,
		Team:    seat.Team,
		Config:  s.configInfo(),
	}
}

func (s *Session) lobbyPayload() protocol.Lobby {
	var players []protocol.LobbyPlayer
	for _, seat := range s.match.Seats() {
		if seat == nil {
			continue
		}
		players = append(players, protocol.LobbyPlayer{
			Seat:      seat.Index,
			Team:      seat.Team,
			Connected: seat.Connected,
			Stack:     seat.Stack,
		})
	}
	return protocol.Lobby{Players: players}
}

func (s *Session) stacks() []protocol.SeatStack {
	var stacks []protocol.SeatStack
	for _, seat := range s.match.Seats() {
		if seat != nil {
			stacks = append(stacks, protocol.SeatStack{Seat: seat.Index, Stack: seat.Stack})
		}
	}
	return stacks
}

func (s *Session) startHandPayload(hand *engine.Hand) protocol.StartHand {
	return protocol.StartHand{
		HandID: hand.ID,
		Seed:   hand.Seed,
		Button: hand.Button,
		Stacks: s.stacks(),
	}
}

func (s *Session) players() []protocol.ActPlayer {
	var players []protocol.ActPlayer
	for _, seat := range s.match.Seats() {
		if seat == nil {
			continue
		}
		players = append(players, protocol.ActPlayer{
			Seat:      seat.Index,
			Stack:     seat.Stack,
			HasFolded: seat.HasFolded,
			Committed: seat.Committed,
		})
	}
	return players
}

func (s *Session) actPayload(seat *engine.Seat, w engine.ActionWindow) protocol.Act {
	hand := s.match.Hand()
	act := protocol.Act{
		HandID: hand.ID,
		Seat:   seat.Index,
		Phase:  hand.Phase.String(),
		Pot:    hand.Pot,
		You: protocol.ActYou{
			Hole:      poker.Labels(seat.Hole),
			Stack:     seat.Stack,
			Committed: seat.Committed,
			ToCall:    max(hand.CurrentBet-seat.Committed, 0),
			TimeMS:    int(s.decision.Remaining().Milliseconds()),
		},
		Table: protocol.ActTable{
			SB:     s.cfg.Table.SmallBlind,
			BB:     s.cfg.Table.BigBlind,
			Seats:  s.cfg.Table.Seats,
			Button: hand.Button,
		},
		Players:   s.players(),
		Community: poker.Labels(hand.Community),
	}
	act.Legal, act.CallAmount, act.MinRaiseTo, act.MaxRaiseTo = windowFields(w)
	return act
}

func (s *Session) snapshotPayload(seat *engine.Seat) protocol.Snapshot {
	hand := s.match.Hand()
	snap := protocol.Snapshot{
		AtHandID: hand.ID,
		Phase:    hand.Phase.String(),
		You: protocol.SnapshotYou{
			Seat:   seat.Index,
			Hole:   poker.Labels(seat.Hole),
			Stack:  seat.Stack,
			ToCall: max(hand.CurrentBet-seat.Committed, 0),
		},
		Players:   s.players(),
		Community: poker.Labels(hand.Community),
	}
	if actor, ok := s.match.NextActor(); ok {
		snap.NextActor = &actor
		snap.TimeMSRemaining = int(s.decision.Remaining().Milliseconds())
		if actor == seat.Index {
			if w, err := s.match.Window(actor); err == nil {
				snap.Legal, snap.CallAmount, snap.MinRaiseTo, snap.MaxRaiseTo = windowFields(w)
			}
		}
	}
	return snap
}

func (s *Session) endHandPayload(handID string) protocol.EndHand {
	return protocol.EndHand{HandID: handID, Stacks: s.stacks()}
}

func (s *Session) matchEndPayload(winner *engine.Seat) protocol.MatchEnd {
	end := protocol.MatchEnd{}
	if winner != nil {
		end.Winner = &protocol.WinnerInfo{Seat: winner.Index, Team: winner.Team}
	}
	for _, seat := range s.match.Seats() {
		if seat != nil {
			end.FinalStacks = append(end.FinalStacks, protocol.FinalStack{
				Seat:  seat.Index,
				Team:  seat.Team,
				Stack: seat.Stack,
			})
		}
	}
	return end
}

// spectatorStatePayload is the omniscient table view: all hole cards, the
// live pot, and the running decision clock.
func (s *Session) spectatorStatePayload() protocol.SpectatorState {
	state := protocol.SpectatorState{
		TableID: s.tableID,
		SB:      s.cfg.Table.SmallBlind,
		BB:      s.cfg.Table.BigBlind,
	}

	hand := s.match.Hand()
	if hand != nil {
		state.HandID = hand.ID
		state.Pot = hand.Pot
		state.Phase = hand.Phase.String()
		state.Community = poker.Labels(hand.Community)
		if actor, ok := s.match.NextActor(); ok {
			state.NextActor = &actor
			remaining := int(s.decision.Remaining().Milliseconds())
			state.TimeRemainingMS = &remaining
		}
	}

	button := s.match.Button()
	for _, seat := range s.match.Seats() {
		if seat == nil {
			continue
		}
		state.Seats = append(state.Seats, protocol.SpectatorSeat{
			Seat:      seat.Index,
			Team:      seat.Team,
			Stack:     seat.Stack,
			Committed: seat.Committed,
			Hole:      poker.Labels(seat.Hole),
			HasFolded: seat.HasFolded,
			Connected: seat.Connected,
			IsButton:  seat.Index == button,
		})
	}
	return state
}

func (s *Session) statusPayload() protocol.Status {
	inHand := s.match.InHand()
	canStart := !inHand && s.match.CanStartHand() && s.match.ConnectedFunded() >= 2
	return protocol.Status{
		InHand:              inHand,
		AwaitingManualStart: !inHand && s.cfg.Table.HandControl == HandControlOperator && !s.finished,
		ManualStartArmed:    s.manualArmed,
		PlayersReady:        s.match.ConnectedFunded(),
		CanStart:            canStart,
	}
}

func windowFields(w engine.ActionWindow) (legal []string, call, minTo, maxTo *int) {
	for _, a := range w.Legal {
		legal = append(legal, a.String())
	}
	if w.Allows(engine.Call) {
		amount := w.CallAmount
		call = &amount
	}
	if w.Allows(engine.RaiseTo) {
		minRaise, maxRaise := w.MinRaiseTo, w.MaxRaiseTo
		minTo, maxTo = &minRaise, &maxRaise
	}
	return legal, call, minTo, maxTo
}
