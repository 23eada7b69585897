// Package patchchan provides the broadcast channel carrying patches from
// the ingest side of an input to its editing surface.
package patchchan

import (
	"sync"

	"github.com/signadot/ptsync/patch"
)

// Handler receives published patches, one at a time, in publish order.
type Handler func(patch.Patch)

type subscriber struct {
	fn Handler
}

// Channel is an unbounded multi-subscriber broadcast of patches. Publish
// delivers to every subscriber synchronously, so nothing is ever buffered
// or dropped while the channel is open.
type Channel struct {
	mu     sync.RWMutex
	subs   []*subscriber
	closed bool
}

func New() *Channel {
	return &Channel{}
}

// Subscribe registers fn and returns the function removing it. On a closed
// channel it does nothing.
func (c *Channel) Subscribe(fn Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	s := &subscriber{fn: fn}
	c.subs = append(c.subs, s)
	var once sync.Once
	return func() {
		once.Do(func() { c.remove(s) })
	}
}

func (c *Channel) remove(s *subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, o := range c.subs {
		if o == s {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers each of ps, in order, to all current subscribers. It is
// a no-op once the channel is closed.
func (c *Channel) Publish(ps ...patch.Patch) {
	for i := range ps {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return
		}
		subs := c.subs
		c.mu.RUnlock()
		for _, s := range subs {
			s.fn(ps[i])
		}
	}
}

// Close drops all subscribers. Close may be called more than once.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.subs = nil
}

func (c *Channel) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Len returns the number of subscribers.
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}
