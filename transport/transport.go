// Package transport defines how patches produced elsewhere reach a
// synchronizer, and provides an in-process implementation.
//
// Package rpc provides one over JSON-RPC 2.0.
package transport

import (
	"context"
	"log/slog"
	"sync"

	"github.com/signadot/ptsync/patch"
)

// Batch is a set of patches delivered together, optionally with the value
// of the document after they were applied.
type Batch struct {
	Patches  []patch.Patch `json:"patches" yaml:"patches"`
	Snapshot any           `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

type Handler func(Batch)

// Subscriber is a patch feed. Subscribe registers h and returns the
// function removing it.
type Subscriber interface {
	Subscribe(h Handler) (unsubscribe func())
}

type Publisher interface {
	Publish(ctx context.Context, b Batch) error
}

type subscription struct {
	h Handler
}

// Hub is an in-process Subscriber and Publisher. Batches are delivered to
// all subscribers in publish order, one publish at a time.
type Hub struct {
	mu   sync.RWMutex
	pub  sync.Mutex
	subs map[*subscription]struct{}
	list []*subscription
	log  *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		subs: make(map[*subscription]struct{}),
		log:  log.With("component", "hub"),
	}
}

func (h *Hub) Subscribe(fn Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &subscription{h: fn}
	h.subs[s] = struct{}{}
	h.list = append(h.list, s)
	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(s) })
	}
}

func (h *Hub) unsubscribe(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, s)
	for i, o := range h.list {
		if o == s {
			h.list = append(h.list[:i:i], h.list[i+1:]...)
			break
		}
	}
}

// Publish delivers b to every subscriber, in subscription order.
func (h *Hub) Publish(ctx context.Context, b Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.pub.Lock()
	defer h.pub.Unlock()

	h.mu.RLock()
	list := h.list
	h.mu.RUnlock()
	h.log.Debug("publish", "patches", len(b.Patches), "subscribers", len(list))
	for _, s := range list {
		h.mu.RLock()
		_, live := h.subs[s]
		h.mu.RUnlock()
		if live {
			s.h(b)
		}
	}
	return nil
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
