// Package challenge owns the rotating transport challenge: a short-lived
// shared secret that keys the transport cipher for one rotation period.
package challenge

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/atomic"
)

// DefaultPeriod is the challenge lifetime.
const DefaultPeriod = 60 * time.Second

// Challenge is an unpredictable value valid for one rotation period.
type Challenge string

// window is the broker's snapshot: the current challenge plus the
// immediately previous one, which stays acceptable for decryption for one
// extra period so a client that fetched the challenge just before a
// rotation does not fail spuriously.
type window struct {
	current  Challenge
	previous Challenge // empty before the first rotation
}

// Broker holds the single process-wide challenge and rotates it on a timer.
// Reads always observe a consistent window; rotation never blocks readers.
type Broker struct {
	period time.Duration
	win    atomic.Pointer[window]
}

// New seeds the broker with a fresh challenge. period <= 0 selects DefaultPeriod.
func New(period time.Duration) (*Broker, error) {
	if period <= 0 {
		period = DefaultPeriod
	}
	first, err := generate()
	if err != nil {
		return nil, err
	}
	b := &Broker{period: period}
	b.win.Store(&window{current: first})
	return b, nil
}

// Current returns the active challenge.
func (b *Broker) Current() Challenge {
	return b.win.Load().current
}

// Accepted returns the challenges valid for decryption: the current one and,
// once rotation has happened, the immediately previous one.
func (b *Broker) Accepted() []Challenge {
	w := b.win.Load()
	if w.previous == "" {
		return []Challenge{w.current}
	}
	return []Challenge{w.current, w.previous}
}

// Run rotates the challenge every period until ctx is done.
func (b *Broker) Run(ctx context.Context) {
	t := time.NewTicker(b.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			b.rotate()
		}
	}
}

// rotate swaps in a fresh challenge, demoting the current one to previous.
func (b *Broker) rotate() {
	next, err := generate()
	if err != nil {
		// keep the old window rather than serve a weak value
		return
	}
	cur := b.win.Load().current
	b.win.Store(&window{current: next, previous: cur})
}

// generate produces a cryptographically unpredictable 128-bit value.
func generate() (Challenge, error) {
	v, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return Challenge(v.String()), nil
}
