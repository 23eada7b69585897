package rpc

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/signadot/ptsync/notify"
	"github.com/signadot/ptsync/transport"

	"go.lsp.dev/jsonrpc2"
)

type Config struct {
	Log *slog.Logger
	// Hub is the hub batches are published on; a new one is created when
	// nil.
	Hub *transport.Hub
	// Check, when set, inspects each published batch. A notification it
	// returns is shown to the publisher with window/showMessage.
	Check func(transport.Batch) *notify.Notification
}

// Server accepts published batches from its connections and broadcasts
// them to all of them.
type Server struct {
	hub   *transport.Hub
	check func(transport.Batch) *notify.Notification
	log   *slog.Logger
}

func NewServer(cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "rpc-server")
	hub := cfg.Hub
	if hub == nil {
		hub = transport.NewHub(log)
	}
	return &Server{hub: hub, check: cfg.Check, log: log}
}

// Hub returns the server's hub; in-process subscribers may use it
// directly.
func (s *Server) Hub() *transport.Hub {
	return s.hub
}

// ServeConn serves one connection until it is closed or ctx is done.
func (s *Server) ServeConn(ctx context.Context, rwc io.ReadWriteCloser) error {
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	out := newOutbox()
	unsub := s.hub.Subscribe(out.push)
	defer unsub()
	defer out.close()
	go func() {
		for {
			b, ok := out.pop()
			if !ok {
				return
			}
			if err := conn.Notify(ctx, MethodPatches, b); err != nil {
				s.log.Warn("failed to forward batch", "error", err)
			}
		}
	}()

	conn.Go(ctx, s.handler(notify.NewRPC(ctx, conn, s.log)))
	select {
	case <-conn.Done():
	case <-ctx.Done():
		conn.Close()
		<-conn.Done()
	}
	err := conn.Err()
	if err == io.EOF || ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) handler(sink notify.Sink) jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case MethodPublish:
			b, err := decodeBatch(req)
			if err != nil {
				return reply(ctx, nil, err)
			}
			s.log.Debug("publish", "patches", len(b.Patches))
			if err := s.hub.Publish(ctx, b); err != nil {
				return reply(ctx, nil, err)
			}
			if s.check != nil {
				if n := s.check(b); n != nil {
					sink.Push(*n)
				}
			}
			return reply(ctx, nil, nil)
		default:
			return methodNotFound(ctx, reply, req)
		}
	}
}

// outbox queues batches for one connection so that a slow reader never
// blocks publishing on the hub.
type outbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []transport.Batch
	closed bool
}

func newOutbox() *outbox {
	o := &outbox{}
	o.cond = sync.NewCond(&o.mu)
	return o
}

func (o *outbox) push(b transport.Batch) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.queue = append(o.queue, b)
	o.cond.Signal()
}

func (o *outbox) pop() (transport.Batch, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.queue) == 0 && !o.closed {
		o.cond.Wait()
	}
	if o.closed {
		return transport.Batch{}, false
	}
	b := o.queue[0]
	o.queue = o.queue[1:]
	return b, true
}

func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.cond.Broadcast()
}
