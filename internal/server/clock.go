package server

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// clockExpiry is delivered to the session loop when an armed decision
// window runs out. gen guards against stale fires after a re-arm.
type clockExpiry struct {
	seat   int
	handID string
	gen    uint64
}

// DecisionClock times one seat's decision window. In the default pause
// policy the window freezes while the acting seat is disconnected and
// resumes with the remaining time; the auto policy is plain wall clock.
// All methods run on the session goroutine; only the timer callback fires
// elsewhere, and it just posts to the expiry channel.
type DecisionClock struct {
	clock  quartz.Clock
	mode   string
	fire   chan clockExpiry
	logger *log.Logger

	gen       uint64
	seat      int
	handID    string
	timer     *quartz.Timer
	deadline  time.Time
	remaining time.Duration
	running   bool
	paused    bool
}

// NewDecisionClock creates a clock with the given timeout policy.
func NewDecisionClock(clock quartz.Clock, mode string, logger *log.Logger) *DecisionClock {
	return &DecisionClock{
		clock:  clock,
		mode:   mode,
		fire:   make(chan clockExpiry, 8),
		logger: logger.WithPrefix("clock"),
	}
}

// Expired is the channel the session loop selects on.
func (c *DecisionClock) Expired() <-chan clockExpiry { return c.fire }

// Arm starts a fresh decision window for the seat.
func (c *DecisionClock) Arm(seat int, handID string, d time.Duration) {
	c.halt()
	c.gen++
	c.seat = seat
	c.handID = handID
	c.remaining = d
	c.running = true
	c.paused = false
	c.start(d)
	c.logger.Debug("Clock armed", "seat", seat, "hand", handID, "ms", d.Milliseconds())
}

// Pause freezes the window. Under the auto policy this is a no-op: a
// disconnected seat burns clock like anyone else.
func (c *DecisionClock) Pause() {
	if c.mode != TimeoutPause || !c.running || c.paused {
		return
	}
	c.timer.Stop()
	c.remaining = max(c.deadline.Sub(c.clock.Now()), 0)
	c.paused = true
	c.gen++
	c.logger.Debug("Clock paused", "seat", c.seat, "remaining_ms", c.remaining.Milliseconds())
}

// Resume restarts a paused window with the time it had left.
func (c *DecisionClock) Resume() {
	if !c.running || !c.paused {
		return
	}
	c.paused = false
	c.gen++
	c.start(c.remaining)
	c.logger.Debug("Clock resumed", "seat", c.seat, "remaining_ms", c.remaining.Milliseconds())
}

// Stop cancels the window and invalidates any in-flight expiry.
func (c *DecisionClock) Stop() {
	c.halt()
	c.gen++
	c.running = false
	c.paused = false
}

// Remaining reports how much decision time is left, for snapshots.
func (c *DecisionClock) Remaining() time.Duration {
	switch {
	case !c.running:
		return 0
	case c.paused:
		return c.remaining
	default:
		return max(c.deadline.Sub(c.clock.Now()), 0)
	}
}

// Seat returns the seat the running window belongs to.
func (c *DecisionClock) Seat() (int, bool) { return c.seat, c.running }

// Matches reports whether an expiry belongs to the currently armed window.
func (c *DecisionClock) Matches(e clockExpiry) bool {
	return c.running && !c.paused && e.gen == c.gen
}

func (c *DecisionClock) start(d time.Duration) {
	gen, seat, handID := c.gen, c.seat, c.handID
	c.deadline = c.clock.Now().Add(d)
	c.timer = c.clock.AfterFunc(d, func() {
		c.fire <- clockExpiry{seat: seat, handID: handID, gen: gen}
	})
}

func (c *DecisionClock) halt() {
	if c.timer != nil {
		c.timer.Stop()
	}
}
