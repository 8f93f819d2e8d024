package transport

import (
	"context"
	"time"

	"github.com/coder/websocket"

	"github.com/wdcollab/wdcore/pkg/crdt"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// Channel is one collaboration session's opaque, reliable,
// ordered-per-sender operation channel (spec.md §6), backed by a single
// websocket connection. Send and Receive are each safe to call from one
// goroutine; a Channel does not multiplex senders on its own (pkg/crdt's
// causal delivery already tolerates reordering across distinct senders,
// but a single Channel corresponds to a single sender's ordered stream).
type Channel struct {
	conn *websocket.Conn
}

// NewChannel wraps an already-negotiated websocket connection. Use Dial or
// Accept to obtain one, or pass a connection from an existing HTTP upgrade.
func NewChannel(conn *websocket.Conn) *Channel {
	conn.SetReadLimit(maxEnvelopeBytes)
	return &Channel{conn: conn}
}

// maxEnvelopeBytes bounds a single encoded Operation. Large payloads (a
// FormatSet carrying an embedded resource, say) belong in pkg/resource,
// referenced by id, not inlined here.
const maxEnvelopeBytes = 1 << 20

// Dial opens a Channel to a collaboration server.
func Dial(ctx context.Context, url string) (*Channel, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, wderrors.New(wderrors.KindIO, "transport.Dial", err.Error())
	}
	return NewChannel(conn), nil
}

// Send encodes and writes one operation. The websocket layer guarantees
// ordering and delivery within a single connection, satisfying the
// "reliable, ordered-per-sender" contract without this package needing its
// own sequencing.
func (c *Channel) Send(ctx context.Context, op crdt.Operation) error {
	b, err := Marshal(op)
	if err != nil {
		return err
	}
	if err := c.conn.Write(ctx, websocket.MessageText, b); err != nil {
		return wderrors.New(wderrors.KindIO, "Channel.Send", err.Error())
	}
	return nil
}

// Receive blocks for the next operation off the wire.
func (c *Channel) Receive(ctx context.Context) (crdt.Operation, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return crdt.Operation{}, wderrors.New(wderrors.KindIO, "Channel.Receive", err.Error())
	}
	return Unmarshal(data)
}

// Close closes the underlying connection with a normal closure code.
func (c *Channel) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// Ping round-trips a control frame, used by a host to detect a half-open
// connection before an idle peer is evicted from presence.
func (c *Channel) Ping(ctx context.Context, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.conn.Ping(pingCtx); err != nil {
		return wderrors.New(wderrors.KindIO, "Channel.Ping", err.Error())
	}
	return nil
}
