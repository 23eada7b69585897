// Package rpc carries patch batches over JSON-RPC 2.0.
//
// A client publishes with a "ptsync/publish" request whose params are a
// [transport.Batch]. The server fans every published batch out to all
// connected clients, the publisher included, as a "ptsync/patches"
// notification. Notifications are handled in the order they are read, so a
// client's subscribers see batches in publish order.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/signadot/ptsync/debug"
	"github.com/signadot/ptsync/transport"

	"go.lsp.dev/jsonrpc2"
)

const (
	MethodPublish = "ptsync/publish"
	MethodPatches = "ptsync/patches"
)

func decodeBatch(req jsonrpc2.Request) (transport.Batch, error) {
	var b transport.Batch
	if err := json.Unmarshal(req.Params(), &b); err != nil {
		return b, fmt.Errorf("%w: %w", jsonrpc2.ErrInvalidParams, err)
	}
	if debug.RPC() {
		debug.Logf("rpc %s %d patches\n", req.Method(), len(b.Patches))
	}
	return b, nil
}

func methodNotFound(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if _, ok := req.(*jsonrpc2.Call); !ok {
		return nil
	}
	return reply(ctx, nil, fmt.Errorf("%w: %q", jsonrpc2.ErrMethodNotFound, req.Method()))
}
