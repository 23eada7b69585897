package notify

import (
	"context"
	"log/slog"

	"go.lsp.dev/protocol"
)

// Notifier sends JSON-RPC notifications; jsonrpc2.Conn implements it.
type Notifier interface {
	Notify(ctx context.Context, method string, params any) error
}

// RPC forwards notifications to a JSON-RPC peer as LSP window/showMessage
// notifications.
type RPC struct {
	ctx  context.Context
	conn Notifier
	log  *slog.Logger
}

func NewRPC(ctx context.Context, conn Notifier, log *slog.Logger) *RPC {
	if log == nil {
		log = slog.Default()
	}
	return &RPC{ctx: ctx, conn: conn, log: log.With("component", "notify")}
}

func (r *RPC) Push(n Notification) {
	msg := n.Description
	if n.Title != "" {
		msg = n.Title + ": " + msg
	}
	params := &protocol.ShowMessageParams{
		Type:    MessageType(n.Severity),
		Message: msg,
	}
	if err := r.conn.Notify(r.ctx, protocol.MethodWindowShowMessage, params); err != nil {
		r.log.Warn("failed to send notification", "error", err)
	}
}

// MessageType maps a severity to its LSP message type.
func MessageType(s Severity) protocol.MessageType {
	switch s {
	case Error:
		return protocol.MessageTypeError
	case Warning:
		return protocol.MessageTypeWarning
	case Info:
		return protocol.MessageTypeInfo
	default:
		return protocol.MessageTypeLog
	}
}
