// Package handid generates the monotonic hand labels published with every
// hand, of the form H-YYYYMMDD-NNNNN.
package handid

import (
	"fmt"
	"regexp"

	"github.com/coder/quartz"
)

var pattern = regexp.MustCompile(`^H-\d{8}-\d{5}$`)

// Generator hands out sequential hand ids. The clock is injectable so
// tests pin the date component.
type Generator struct {
	clock quartz.Clock
	seq   int
}

// NewGenerator creates a generator. A nil clock falls back to real time.
func NewGenerator(clock quartz.Clock) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{clock: clock}
}

// Next returns the next hand id and advances the sequence.
func (g *Generator) Next() string {
	g.seq++
	return fmt.Sprintf("H-%s-%05d", g.clock.Now().UTC().Format("20060102"), g.seq)
}

// Sequence reports how many ids have been issued.
func (g *Generator) Sequence() int {
	return g.seq
}

// Validate checks that an id matches the H-YYYYMMDD-NNNNN shape.
func Validate(id string) error {
	if !pattern.MatchString(id) {
		return fmt.Errorf("malformed hand id: %q", id)
	}
	return nil
}
