package server

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/botarena/holdem/internal/engine"
	"github.com/botarena/holdem/internal/protocol"
)

// HelloError rejects a handshake with a wire error code. The connection is
// closed after the error frame is sent.
type HelloError struct {
	Code string
	Msg  string
}

func (e *HelloError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Msg) }

// SeatRegistry binds connections to persistent seats. Seats outlive their
// sockets: a team that drops keeps its stack and reclaims the same seat on
// reconnect. All methods run on the session goroutine.
type SeatRegistry struct {
	match  *engine.Match
	locks  map[string]string // team key -> join code; empty means open table
	conns  map[int]*Conn     // seat index -> bound connection
	byConn map[string]int    // connection id -> seat index
	logger *log.Logger
}

// NewSeatRegistry creates the registry for a match. locks reserve the
// table for the named teams.
func NewSeatRegistry(match *engine.Match, locks []SeatLock, logger *log.Logger) *SeatRegistry {
	r := &SeatRegistry{
		match:  match,
		locks:  make(map[string]string, len(locks)),
		conns:  make(map[int]*Conn),
		byConn: make(map[string]int),
		logger: logger.WithPrefix("registry"),
	}
	for _, lock := range locks {
		r.locks[engine.TeamKey(lock.Team)] = lock.JoinCode
	}
	return r
}

// Bind resolves a bot hello to a seat. When the team was already bound to a
// live socket the superseded connection is returned so the caller can close
// it with a "replaced" code.
func (r *SeatRegistry) Bind(conn *Conn, hello protocol.Hello) (*engine.Seat, *Conn, error) {
	if _, bound := r.byConn[conn.ID()]; bound {
		return nil, nil, &HelloError{Code: protocol.CodeTeamTaken, Msg: "connection already holds a seat"}
	}
	if engine.TeamKey(hello.Team) == "" {
		return nil, nil, &HelloError{Code: protocol.CodeBadSchema, Msg: "team required"}
	}

	if len(r.locks) > 0 {
		code, reserved := r.locks[engine.TeamKey(hello.Team)]
		if !reserved || hello.JoinCode != code {
			return nil, nil, &HelloError{Code: protocol.CodeTeamUnknown, Msg: "team not registered for this table"}
		}
	}

	seat, err := r.match.AssignSeat(hello.Team)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrTableFull):
			return nil, nil, &HelloError{Code: protocol.CodeTableFull, Msg: "no seats left"}
		case errors.Is(err, engine.ErrTeamRequired):
			return nil, nil, &HelloError{Code: protocol.CodeBadSchema, Msg: "team required"}
		default:
			return nil, nil, err
		}
	}

	replaced := r.conns[seat.Index]
	if replaced != nil {
		delete(r.byConn, replaced.ID())
	}

	r.conns[seat.Index] = conn
	r.byConn[conn.ID()] = seat.Index
	seat.Connected = true

	r.logger.Info("Seat bound", "seat", seat.Index, "team", seat.Team, "replaced", replaced != nil)
	return seat, replaced, nil
}

// Unbind detaches a closed connection from its seat, if it held one. The
// seat is marked disconnected but keeps its stack.
func (r *SeatRegistry) Unbind(conn *Conn) (int, bool) {
	idx, ok := r.byConn[conn.ID()]
	if !ok {
		return 0, false
	}
	delete(r.byConn, conn.ID())
	// A replaced socket may report its close after the replacement bound.
	if r.conns[idx] != nil && r.conns[idx].ID() == conn.ID() {
		delete(r.conns, idx)
		if seat := r.match.Seat(idx); seat != nil {
			seat.Connected = false
		}
		r.logger.Info("Seat unbound", "seat", idx)
		return idx, true
	}
	return 0, false
}

// Conn returns the live connection bound to a seat, or nil.
func (r *SeatRegistry) Conn(seat int) *Conn { return r.conns[seat] }

// SeatOf returns the seat index a connection is bound to.
func (r *SeatRegistry) SeatOf(conn *Conn) (int, bool) {
	idx, ok := r.byConn[conn.ID()]
	return idx, ok
}

// Bots lists every live bot connection.
func (r *SeatRegistry) Bots() []*Conn {
	out := make([]*Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}
