package rpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/signadot/ptsync/ir"
	"github.com/signadot/ptsync/notify"
	"github.com/signadot/ptsync/patch"
	"github.com/signadot/ptsync/transport"

	"github.com/google/go-cmp/cmp"
)

type collector struct {
	mu    sync.Mutex
	paths []string
	got   chan struct{}
}

func newCollector() *collector {
	return &collector{got: make(chan struct{}, 100)}
}

func (c *collector) handle(b transport.Batch) {
	c.mu.Lock()
	for _, p := range b.Patches {
		c.paths = append(c.paths, p.Path.String())
	}
	c.mu.Unlock()
	c.got <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) []string {
	t.Helper()
	for range n {
		select {
		case <-c.got:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for batch")
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func connect(ctx context.Context, t *testing.T, srv *Server) *Client {
	t.Helper()
	a, b := net.Pipe()
	go func() {
		if err := srv.ServeConn(ctx, a); err != nil {
			t.Logf("serve: %v", err)
		}
	}()
	c := Dial(ctx, b, nil)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPublishFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := NewServer(nil)
	pub := connect(ctx, t, srv)
	sub := connect(ctx, t, srv)

	cs := newCollector()
	sub.Subscribe(cs.handle)
	cp := newCollector()
	pub.Subscribe(cp.handle)
	local := newCollector()
	srv.Hub().Subscribe(local.handle)

	for _, p := range []string{"a", "b", "c"} {
		b := transport.Batch{Patches: []patch.Patch{patch.SetAt(ir.MustParsePath(p), 1.0).WithOrigin(patch.Remote)}}
		if err := pub.Publish(ctx, b); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"a", "b", "c"}
	for name, c := range map[string]*collector{"subscriber": cs, "publisher": cp, "local": local} {
		if diff := cmp.Diff(want, c.wait(t, 3)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", name, diff)
		}
	}
}

func TestBatchRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := NewServer(nil)
	c := connect(ctx, t, srv)
	var (
		mu  sync.Mutex
		got transport.Batch
	)
	done := make(chan struct{}, 1)
	c.Subscribe(func(b transport.Batch) {
		mu.Lock()
		got = b
		mu.Unlock()
		done <- struct{}{}
	})
	in := transport.Batch{
		Patches: []patch.Patch{
			patch.InsertAt(patch.After, ir.MustParsePath(`[_key=="a"]`), map[string]any{"_key": "b"}).WithOrigin(patch.Remote),
		},
		Snapshot: []any{map[string]any{"_key": "a"}, map[string]any{"_key": "b"}},
	}
	if err := c.Publish(ctx, in); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	mu.Lock()
	defer mu.Unlock()
	p := got.Patches[0]
	if p.Type != patch.Insert || p.Position != patch.After || p.Origin != patch.Remote || !p.Path.Equal(in.Patches[0].Path) {
		t.Errorf("unexpected patch %+v", p)
	}
	if !ir.Equal(got.Snapshot, in.Snapshot) {
		t.Errorf("snapshot mismatch: %v", got.Snapshot)
	}
}

func TestCheckNotifiesPublisher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := NewServer(&Config{
		Check: func(b transport.Batch) *notify.Notification {
			if b.Snapshot == nil {
				return &notify.Notification{Severity: notify.Warning, Description: "no snapshot"}
			}
			return nil
		},
	})
	c := connect(ctx, t, srv)
	got := make(chan notify.Notification, 1)
	c.OnMessage(notify.Func(func(n notify.Notification) { got <- n }))
	if err := c.Publish(ctx, transport.Batch{Snapshot: []any{}}); err != nil {
		t.Fatal(err)
	}
	if err := c.Publish(ctx, transport.Batch{}); err != nil {
		t.Fatal(err)
	}
	select {
	case n := <-got:
		if n.Severity != notify.Warning || n.Description != "no snapshot" {
			t.Errorf("unexpected notification %+v", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	select {
	case n := <-got:
		t.Errorf("unexpected second notification %+v", n)
	default:
	}
}
