package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/botarena/holdem/internal/protocol"
)

// Broadcaster fans frames out to recipients. Bots and operators always get
// frames immediately; presentation-mode spectators drain through a paced
// FIFO so a human audience can follow the action.
type Broadcaster struct {
	clock      quartz.Clock
	delay      time.Duration
	registry   *SeatRegistry
	spectators map[string]*spectator
	logger     *log.Logger
}

type spectator struct {
	conn  *Conn
	role  string
	pacer *pacer // nil for live delivery
}

// NewBroadcaster creates the fan-out stage. delay applies only to
// presentation-mode spectators.
func NewBroadcaster(clock quartz.Clock, delay time.Duration, registry *SeatRegistry, logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		clock:      clock,
		delay:      delay,
		registry:   registry,
		spectators: make(map[string]*spectator),
		logger:     logger.WithPrefix("broadcast"),
	}
}

// AddSpectator registers a spectator or operator connection. Operators are
// never paced regardless of the requested mode.
func (b *Broadcaster) AddSpectator(conn *Conn, role, mode string) {
	s := &spectator{conn: conn, role: role}
	if role == protocol.RoleSpectator && mode == protocol.ModePresentation && b.delay > 0 {
		s.pacer = newPacer(func(frame []byte) { _ = conn.Send(frame) }, b.clock, b.delay)
	}
	b.spectators[conn.ID()] = s
	b.logger.Info("Spectator joined", "conn", conn.ID()[:8], "role", role, "paced", s.pacer != nil)
}

// RemoveSpectator drops a closed spectator connection.
func (b *Broadcaster) RemoveSpectator(conn *Conn) bool {
	s, ok := b.spectators[conn.ID()]
	if !ok {
		return false
	}
	if s.pacer != nil {
		s.pacer.stop()
	}
	delete(b.spectators, conn.ID())
	return true
}

// ToBots delivers a frame to every seated bot connection.
func (b *Broadcaster) ToBots(frame []byte) {
	for _, conn := range b.registry.Bots() {
		_ = conn.Send(frame)
	}
}

// ToSeat delivers a private frame to one seat's bound connection.
func (b *Broadcaster) ToSeat(seat int, frame []byte) bool {
	conn := b.registry.Conn(seat)
	if conn == nil {
		return false
	}
	return conn.Send(frame) == nil
}

// ToSpectators delivers a frame to every spectator and operator, pacing
// the presentation-mode ones.
func (b *Broadcaster) ToSpectators(frame []byte) {
	for _, s := range b.spectators {
		if s.pacer != nil {
			s.pacer.enqueue(frame)
		} else {
			_ = s.conn.Send(frame)
		}
	}
}

// ToOperators delivers a frame to operator connections only.
func (b *Broadcaster) ToOperators(frame []byte) {
	for _, s := range b.spectators {
		if s.role == protocol.RoleOperator {
			_ = s.conn.Send(frame)
		}
	}
}

// pacer releases one frame per delay tick, preserving order. It has its
// own lock because the release timer fires off the session goroutine.
type pacer struct {
	send  func([]byte)
	clock quartz.Clock
	delay time.Duration

	mu      sync.Mutex
	queue   [][]byte
	timer   *quartz.Timer
	armed   bool
	stopped bool
}

func newPacer(send func([]byte), clock quartz.Clock, delay time.Duration) *pacer {
	return &pacer{send: send, clock: clock, delay: delay}
}

// enqueue delivers immediately when the pacer is idle, otherwise queues
// behind the running delay.
func (p *pacer) enqueue(frame []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if !p.armed {
		p.send(frame)
		p.armed = true
		p.timer = p.clock.AfterFunc(p.delay, p.release)
		return
	}
	p.queue = append(p.queue, frame)
}

func (p *pacer) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if len(p.queue) == 0 {
		p.armed = false
		return
	}
	frame := p.queue[0]
	p.queue = p.queue[1:]
	p.send(frame)
	p.timer = p.clock.AfterFunc(p.delay, p.release)
}

func (p *pacer) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	p.queue = nil
	if p.timer != nil {
		p.timer.Stop()
	}
}
