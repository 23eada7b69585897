package rpc

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/signadot/ptsync/notify"
	"github.com/signadot/ptsync/transport"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Client is a transport.Subscriber and transport.Publisher talking to a
// Server.
type Client struct {
	conn jsonrpc2.Conn
	hub  *transport.Hub
	log  *slog.Logger

	mu   sync.Mutex
	sink notify.Sink
}

// Dial starts a client on rwc. The connection runs until Close or until
// ctx is done.
func Dial(ctx context.Context, rwc io.ReadWriteCloser, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "rpc-client")
	c := &Client{
		conn: jsonrpc2.NewConn(jsonrpc2.NewStream(rwc)),
		hub:  transport.NewHub(log),
		log:  log,
	}
	c.conn.Go(ctx, c.handle)
	return c
}

func (c *Client) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	case MethodPatches:
	case protocol.MethodWindowShowMessage:
		c.showMessage(req)
		return nil
	default:
		return methodNotFound(ctx, reply, req)
	}
	b, err := decodeBatch(req)
	if err != nil {
		c.log.Warn("dropping malformed batch", "error", err)
		return nil
	}
	return c.hub.Publish(ctx, b)
}

func (c *Client) showMessage(req jsonrpc2.Request) {
	var params protocol.ShowMessageParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		c.log.Warn("dropping malformed message", "error", err)
		return
	}
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	if sink == nil {
		c.log.Info(params.Message, "type", params.Type)
		return
	}
	sink.Push(notify.Notification{Severity: severity(params.Type), Description: params.Message})
}

// OnMessage sets the sink receiving messages shown by the server.
func (c *Client) OnMessage(sink notify.Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

func severity(t protocol.MessageType) notify.Severity {
	switch t {
	case protocol.MessageTypeError:
		return notify.Error
	case protocol.MessageTypeWarning:
		return notify.Warning
	default:
		return notify.Info
	}
}

func (c *Client) Subscribe(h transport.Handler) func() {
	return c.hub.Subscribe(h)
}

// Publish sends b to the server and waits for it to be accepted.
func (c *Client) Publish(ctx context.Context, b transport.Batch) error {
	var res json.RawMessage
	_, err := c.conn.Call(ctx, MethodPublish, b, &res)
	return err
}

func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.conn.Done()
	return err
}

func (c *Client) Done() <-chan struct{} {
	return c.conn.Done()
}
