package server

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/botarena/holdem/internal/engine"
	"github.com/botarena/holdem/internal/handid"
	"github.com/botarena/holdem/internal/protocol"
)

// helloDeadline is how long a fresh connection gets to send its hello.
const helloDeadline = 5 * time.Second

// Session is the single driver for one tournament table. It alone touches
// the match, the registry, and the decision clock; connections, timers,
// and the pacer only post into its inbox. That keeps every rule decision
// serialized without a single mutex around game state.
type Session struct {
	cfg      *Config
	logger   *log.Logger
	clock    quartz.Clock
	match    *engine.Match
	registry *SeatRegistry
	bcast    *Broadcaster
	decision *DecisionClock

	inbox    chan connEvent
	helloDue chan string

	tableID  string
	moveTime time.Duration

	pendingHello map[string]*helloWatch
	manualArmed  bool
	lastStatus   *protocol.Status
	finished     bool
	failure      error
}

// NewSession builds the session and its collaborators from configuration.
func NewSession(cfg *Config, clock quartz.Clock, logger *log.Logger) *Session {
	match := engine.NewMatch(cfg.Engine(), handid.NewGenerator(clock))
	registry := NewSeatRegistry(match, cfg.Seats, logger)

	var delay time.Duration
	if cfg.Table.Presentation {
		delay = time.Duration(cfg.Table.PresentationDelayMS) * time.Millisecond
	}

	return &Session{
		cfg:          cfg,
		logger:       logger.WithPrefix("session"),
		clock:        clock,
		match:        match,
		registry:     registry,
		bcast:        NewBroadcaster(clock, delay, registry, logger),
		decision:     NewDecisionClock(clock, cfg.Table.TimeoutMode, logger),
		inbox:        make(chan connEvent, 64),
		helloDue:     make(chan string, 8),
		tableID:      cfg.Table.ID,
		moveTime:     time.Duration(cfg.Table.MoveTimeMS) * time.Millisecond,
		pendingHello: make(map[string]*helloWatch),
	}
}

// helloWatch tracks a connection that has not yet identified itself.
type helloWatch struct {
	conn  *Conn
	timer *quartz.Timer
}

// Inbox is where connections post their lifecycle events and frames.
func (s *Session) Inbox() chan<- connEvent { return s.inbox }

// Run drives the table until the match ends or the context is cancelled.
// It returns nil on a clean match end and the drift error when the chip
// conservation check fails.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("Table open",
		"table", s.tableID,
		"seats", s.cfg.Table.Seats,
		"blinds", s.cfg.Table.SmallBlind, "bb", s.cfg.Table.BigBlind,
		"hand_control", s.cfg.Table.HandControl)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.inbox:
			s.handleConnEvent(ev)
		case e := <-s.decision.Expired():
			s.handleExpiry(e)
		case id := <-s.helloDue:
			s.handleHelloDeadline(id)
		}
		if s.finished {
			return s.failure
		}
	}
}

func (s *Session) handleConnEvent(ev connEvent) {
	switch {
	case ev.opened:
		s.handleOpen(ev.conn)
	case ev.closed:
		s.handleClose(ev.conn)
	default:
		s.handleFrame(ev.conn, ev.frame)
	}
}

func (s *Session) handleOpen(conn *Conn) {
	id := conn.ID()
	s.pendingHello[id] = &helloWatch{
		conn: conn,
		timer: s.clock.AfterFunc(helloDeadline, func() {
			s.helloDue <- id
		}),
	}
}

func (s *Session) handleHelloDeadline(id string) {
	watch, pending := s.pendingHello[id]
	if !pending {
		return
	}
	delete(s.pendingHello, id)
	s.logger.Info("Handshake deadline missed", "conn", id[:8])
	_ = watch.conn.Close()
}

func (s *Session) handleClose(conn *Conn) {
	if watch, pending := s.pendingHello[conn.ID()]; pending {
		watch.timer.Stop()
		delete(s.pendingHello, conn.ID())
	}

	if s.bcast.RemoveSpectator(conn) {
		return
	}

	seat, ok := s.registry.Unbind(conn)
	if !ok {
		return
	}
	s.logger.Info("Bot disconnected", "seat", seat)
	if actor, running := s.decision.Seat(); running && actor == seat {
		s.decision.Pause()
	}
	s.broadcastLobby()
	s.publishStatus()
}

func (s *Session) handleFrame(conn *Conn, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownType) {
			s.logger.Debug("Dropping unknown frame", "conn", conn.ID()[:8])
			return
		}
		// Schema violations get an error frame but keep the socket: a bot
		// with a serialization bug can correct itself. Connections that
		// never identify still die at the hello deadline.
		s.sendError(conn, protocol.CodeBadSchema, err.Error())
		return
	}

	switch m := msg.(type) {
	case protocol.Hello:
		if conn.Endpoint() == EndpointSpectator {
			s.handleSpectatorHello(conn, m)
		} else {
			s.handleBotHello(conn, m)
		}
	case protocol.Action:
		s.handleAction(conn, m)
	case protocol.Control:
		s.handleControl(conn, m)
	}
}

func (s *Session) settleHello(conn *Conn) {
	if watch, pending := s.pendingHello[conn.ID()]; pending {
		watch.timer.Stop()
		delete(s.pendingHello, conn.ID())
	}
}

func (s *Session) handleBotHello(conn *Conn, hello protocol.Hello) {
	seat, replaced, err := s.registry.Bind(conn, hello)
	if err != nil {
		var herr *HelloError
		if errors.As(err, &herr) {
			s.sendError(conn, herr.Code, herr.Msg)
		} else {
			s.sendError(conn, protocol.CodeBadSchema, err.Error())
		}
		_ = conn.Close()
		return
	}
	s.settleHello(conn)

	if replaced != nil {
		replaced.CloseWithCode(CloseReplaced, "replaced by new connection")
	}

	_ = conn.Send(s.frame(protocol.TypeWelcome, s.welcomePayload(seat)))
	s.broadcastLobby()

	if s.match.InHand() {
		_ = conn.Send(s.frame(protocol.TypeSnapshot, s.snapshotPayload(seat)))
		if actor, ok := s.match.NextActor(); ok && actor == seat.Index {
			s.decision.Resume()
			if w, werr := s.match.Window(actor); werr == nil {
				_ = conn.Send(s.frame(protocol.TypeAct, s.actPayload(seat, w)))
			}
		}
	}

	s.maybeStartHand()
	s.publishStatus()
}

func (s *Session) handleSpectatorHello(conn *Conn, hello protocol.Hello) {
	role := hello.Role
	if role == "" {
		role = protocol.RoleSpectator
	}
	if role != protocol.RoleSpectator && role != protocol.RoleOperator {
		s.sendError(conn, protocol.CodeBadSchema, "unknown role")
		_ = conn.Close()
		return
	}

	mode := hello.Mode
	if mode == "" {
		if s.cfg.Table.Presentation {
			mode = protocol.ModePresentation
		} else {
			mode = protocol.ModeLive
		}
	}

	s.settleHello(conn)
	s.bcast.AddSpectator(conn, role, mode)

	_ = conn.Send(s.frame(protocol.TypeSpectatorWelcome, protocol.SpectatorWelcome{
		TableID: s.tableID,
		Role:    role,
		Mode:    mode,
		Config:  s.configInfo(),
	}))
	_ = conn.Send(s.frame(protocol.TypeSpectatorLobby, s.lobbyPayload()))
	_ = conn.Send(s.frame(protocol.TypeSpectatorSnapshot, s.spectatorStatePayload()))
	if role == protocol.RoleOperator {
		_ = conn.Send(s.frame(protocol.TypeSpectatorStatus, s.statusPayload()))
	}
}

func (s *Session) handleAction(conn *Conn, action protocol.Action) {
	seat, bound := s.registry.SeatOf(conn)
	if !bound {
		s.sendError(conn, protocol.CodeBadSchema, "hello required before action")
		_ = conn.Close()
		return
	}

	hand := s.match.Hand()
	if hand == nil || action.HandID != hand.ID {
		// A decision for a hand that already settled; harmless race.
		s.sendError(conn, protocol.CodeActionTooLate, "hand is over")
		return
	}

	kind, err := engine.ParseActionType(action.Action)
	if err != nil {
		s.sendError(conn, protocol.CodeInvalidAction, err.Error())
		return
	}
	amount := 0
	if action.Amount != nil {
		amount = *action.Amount
	}

	events, err := s.match.Apply(seat, kind, amount)
	if err != nil {
		code := protocol.CodeInvalidAction
		if errors.Is(err, engine.ErrOutOfTurn) {
			code = protocol.CodeOutOfTurn
		}
		s.sendError(conn, code, err.Error())
		return
	}

	s.logger.Info("Action applied", "hand", hand.ID, "seat", seat, "action", kind.String(), "amount", amount)
	s.decision.Stop()
	s.afterTransition(events)
}

func (s *Session) handleExpiry(e clockExpiry) {
	if !s.decision.Matches(e) {
		return
	}
	hand := s.match.Hand()
	if hand == nil || hand.ID != e.handID {
		return
	}
	actor, ok := s.match.NextActor()
	if !ok || actor != e.seat {
		return
	}

	kind, amount, err := s.match.AutoAction(actor)
	if err != nil {
		s.logger.Error("Auto action failed", "seat", actor, "error", err)
		return
	}
	s.logger.Info("Decision clock expired", "hand", hand.ID, "seat", actor, "auto", kind.String())

	events, err := s.match.Apply(actor, kind, amount)
	if err != nil {
		s.logger.Error("Auto action rejected", "seat", actor, "error", err)
		return
	}
	s.decision.Stop()
	s.afterTransition(events)
}

// afterTransition publishes an event burst and moves the table forward:
// conservation check, spectator snapshot, then the next prompt, hand end,
// or match end.
func (s *Session) afterTransition(events []engine.Event) {
	for _, ev := range events {
		s.bcast.ToBots(s.eventFrame(protocol.TypeEvent, ev))
		s.bcast.ToSpectators(s.eventFrame(protocol.TypeSpectatorEvent, ev))
	}

	if err := s.match.CheckConservation(); err != nil {
		s.fail(err)
		return
	}

	s.bcast.ToSpectators(s.frame(protocol.TypeSpectatorSnapshot, s.spectatorStatePayload()))

	if s.match.InHand() {
		if s.match.IsHandComplete() {
			s.endHand()
		} else {
			s.promptActor()
		}
	}
	s.publishStatus()
}

// promptActor sends the private act prompt and arms the decision clock.
// Re-prompting the seat that already holds a running clock is a no-op so
// unrelated transitions (an operator forfeit elsewhere) do not reset it.
func (s *Session) promptActor() {
	actor, ok := s.match.NextActor()
	if !ok {
		return
	}
	hand := s.match.Hand()
	if cur, running := s.decision.Seat(); running && cur == actor {
		return
	}

	seat := s.match.Seat(actor)
	w, err := s.match.Window(actor)
	if err != nil {
		s.logger.Error("No action window for actor", "seat", actor, "error", err)
		return
	}

	s.decision.Arm(actor, hand.ID, s.moveTime)
	if !s.bcast.ToSeat(actor, s.frame(protocol.TypeAct, s.actPayload(seat, w))) {
		// Actor is offline; under the pause policy their clock waits.
		s.decision.Pause()
	}
}

func (s *Session) endHand() {
	handID := s.match.Hand().ID
	s.decision.Stop()

	forfeits, err := s.match.FinishHand()
	if err != nil {
		s.logger.Error("Failed to finish hand", "hand", handID, "error", err)
		return
	}
	for _, ev := range forfeits {
		s.bcast.ToBots(s.eventFrame(protocol.TypeEvent, ev))
		s.bcast.ToSpectators(s.eventFrame(protocol.TypeSpectatorEvent, ev))
	}

	s.bcast.ToBots(s.frame(protocol.TypeEndHand, s.endHandPayload(handID)))
	s.bcast.ToSpectators(s.frame(protocol.TypeSpectatorEndHand, s.endHandPayload(handID)))
	s.logger.Info("Hand complete", "hand", handID)

	if s.match.IsMatchOver() {
		s.endMatch(s.match.Winner())
		return
	}
	s.maybeStartHand()
}

func (s *Session) maybeStartHand() {
	if s.finished || s.match.InHand() || !s.match.CanStartHand() {
		return
	}
	if s.match.ConnectedFunded() < 2 {
		return
	}
	if s.cfg.Table.HandControl == HandControlOperator && !s.manualArmed {
		return
	}
	s.manualArmed = false
	s.startHand()
}

func (s *Session) startHand() {
	seed := uint64(s.clock.Now().UnixMilli())
	events, err := s.match.StartHand(seed)
	if err != nil {
		s.logger.Error("Failed to start hand", "error", err)
		return
	}

	hand := s.match.Hand()
	s.logger.Info("Hand started", "hand", hand.ID, "seed", seed, "button", hand.Button)
	s.bcast.ToBots(s.frame(protocol.TypeStart, s.startHandPayload(hand)))
	s.bcast.ToSpectators(s.frame(protocol.TypeSpectatorStart, s.startHandPayload(hand)))
	s.afterTransition(events)
}

func (s *Session) endMatch(winner *engine.Seat) {
	if s.finished {
		return
	}
	s.finished = true
	s.decision.Stop()

	frame := s.frame(protocol.TypeMatchEnd, s.matchEndPayload(winner))
	s.bcast.ToBots(frame)
	s.bcast.ToSpectators(frame)

	if winner != nil {
		s.logger.Info("Match over", "winner", winner.Team, "seat", winner.Index)
	} else {
		s.logger.Error("Match aborted")
	}
}

// fail aborts the match after an invariant violation. No winner is named.
func (s *Session) fail(err error) {
	s.logger.Error("Fatal table error", "error", err)
	s.failure = err
	s.endMatch(nil)
}

func (s *Session) broadcastLobby() {
	s.bcast.ToBots(s.frame(protocol.TypeLobby, s.lobbyPayload()))
	s.bcast.ToSpectators(s.frame(protocol.TypeSpectatorLobby, s.lobbyPayload()))
}

// publishStatus pushes the operator advisory when any field changed.
func (s *Session) publishStatus() {
	status := s.statusPayload()
	if s.lastStatus != nil && *s.lastStatus == status {
		return
	}
	s.lastStatus = &status
	s.bcast.ToOperators(s.frame(protocol.TypeSpectatorStatus, status))
}

func (s *Session) sendError(conn *Conn, code, msg string) {
	_ = conn.Send(s.frame(protocol.TypeError, protocol.ErrorMsg{Code: code, Msg: msg}))
}
