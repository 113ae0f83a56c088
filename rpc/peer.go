package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
)

const (
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

// RequestHandler answers a server-initiated request (spec.md §4.F:
// workspace/configuration, workspace/applyEdit, window/workDoneProgress/create).
type RequestHandler func(ctx context.Context, method string, params json.RawMessage) (result any, err error)

// NotificationHandler observes a server-initiated notification (spec.md
// §4.E/§4.F: textDocument/publishDiagnostics, $/progress, window/logMessage,
// window/showMessage, $/logTrace).
type NotificationHandler func(ctx context.Context, method string, params json.RawMessage)

// Peer is the correlation layer between one language server subprocess
// and the Client state machine above it (spec.md §4.B). It wraps a
// *jsonrpc2.Conn built over github.com/sourcegraph/jsonrpc2's
// Content-Length framing, leaving id allocation and call/reply matching
// to the library rather than reimplementing it.
type Peer struct {
	conn   *jsonrpc2.Conn
	stream *gatedReader

	mu        sync.RWMutex
	onRequest RequestHandler
	onNotify  NotificationHandler
}

// NewPeer builds a Peer over stdout/stdin of a spawned process. The
// stream does not start delivering inbound bytes until Open is called,
// giving the caller a chance to install handlers via SetRequestHandler
// and SetNotificationHandler first.
func NewPeer(ctx context.Context, stdout io.ReadCloser, stdin io.WriteCloser) *Peer {
	gated := newGatedReader(stdout)
	rwc := &processStream{reader: gated, writer: stdin}
	p := &Peer{stream: gated}
	p.conn = jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}), p)
	return p
}

// Open releases buffered inbound bytes once handlers are installed.
func (p *Peer) Open() { p.stream.Open() }

// SetRequestHandler installs the callback used to answer server-initiated
// requests. Safe to call concurrently with inbound traffic.
func (p *Peer) SetRequestHandler(h RequestHandler) {
	p.mu.Lock()
	p.onRequest = h
	p.mu.Unlock()
}

// SetNotificationHandler installs the callback used to observe
// server-initiated notifications.
func (p *Peer) SetNotificationHandler(h NotificationHandler) {
	p.mu.Lock()
	p.onNotify = h
	p.mu.Unlock()
}

// Handle implements jsonrpc2.Handler, demultiplexing inbound traffic to
// whichever callback is installed. This inverts the teacher's server-role
// dispatch (internal/lspserver/server.go's handle switch): there the
// Handler answers client requests; here it answers server requests, per
// spec.md §9's client/server role swap.
func (p *Peer) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	var params json.RawMessage
	if req.Params != nil {
		params = json.RawMessage(*req.Params)
	}

	if req.Notif {
		p.mu.RLock()
		h := p.onNotify
		p.mu.RUnlock()
		if h != nil {
			h(ctx, req.Method, params)
		}
		return
	}

	p.mu.RLock()
	h := p.onRequest
	p.mu.RUnlock()
	if h == nil {
		_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
			Code:    codeMethodNotFound,
			Message: "unhandled method: " + req.Method,
		})
		return
	}

	result, err := h(ctx, req.Method, params)
	if err != nil {
		var se *ServerError
		if errors.As(err, &se) {
			_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: se.Code, Message: se.Message})
			return
		}
		_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: codeInternalError, Message: err.Error()})
		return
	}
	_ = conn.Reply(ctx, req.ID, result)
}

// Call issues an outbound request and blocks for its reply. Context
// cancellation resolves the call locally with ErrCancelled; no
// $/cancelRequest is emitted.
func (p *Peer) Call(ctx context.Context, method string, params, result any) error {
	err := p.conn.Call(ctx, method, params, result)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ErrCancelled
	}
	var respErr *jsonrpc2.Error
	if errors.As(err, &respErr) {
		var data []byte
		if respErr.Data != nil {
			data = []byte(*respErr.Data)
		}
		return &ServerError{Code: respErr.Code, Message: respErr.Message, Data: data}
	}
	if p.disconnected() {
		return ErrDisconnected
	}
	return err
}

// Notify issues an outbound notification; the server sends no reply.
func (p *Peer) Notify(ctx context.Context, method string, params any) error {
	err := p.conn.Notify(ctx, method, params)
	if err != nil && p.disconnected() {
		return ErrDisconnected
	}
	return err
}

// disconnected reports whether the underlying connection has already
// torn down, distinguishing a dead peer (spec.md §7 NotConnected) from
// an ordinary per-call failure.
func (p *Peer) disconnected() bool {
	select {
	case <-p.conn.DisconnectNotify():
		return true
	default:
		return false
	}
}

// Done is closed when the underlying connection disconnects, locally or
// remotely, letting the Service Supervisor detect a dead peer without
// polling (spec.md §4.G).
func (p *Peer) Done() <-chan struct{} {
	return p.conn.DisconnectNotify()
}

// Close tears down the connection. Any calls still blocked in Call
// unblock with an error from the underlying library.
func (p *Peer) Close() error {
	return p.conn.Close()
}
