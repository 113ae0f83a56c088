// Package rpctest is a fake language server, the mirror image of the
// teacher's internal/lsptest: that package drove tally's LSP *server*
// as a black-box client over a real subprocess; this package drives our
// *client* runtime against a fake server. Since the thing under test
// here is a library (rpc.Peer/client.Client), not a CLI binary, the
// fake server talks over an in-memory net.Pipe rather than spawning a
// subprocess — there is no "real" binary to build and exec.
package rpctest

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/lspbridge/rpc"
)

// Call is one request or notification the Server received.
type Call struct {
	Method string
	Params json.RawMessage
	Notif  bool
}

// HandlerFunc answers one request. Return (nil, nil) for notifications,
// whose return value is ignored.
type HandlerFunc func(ctx context.Context, call Call) (result any, err error)

// Server is a fake language server: it accepts exactly the client side
// of a JSON-RPC connection and answers with whatever HandlerFunc
// returns, recording every call it receives for assertions.
type Server struct {
	conn *jsonrpc2.Conn

	mu    sync.Mutex
	calls []Call

	handler HandlerFunc
}

// New starts a fake server and returns it along with the
// io.ReadWriteCloser a client should connect to (normally passed to
// rpc.NewPeer). The connection is torn down via t.Cleanup.
func New(t *testing.T, handler HandlerFunc) (*Server, net.Conn) {
	t.Helper()

	serverSide, clientSide := net.Pipe()

	s := &Server{handler: handler}
	stream := jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{})
	s.conn = jsonrpc2.NewConn(context.Background(), stream, jsonrpc2.HandlerWithError(s.handle))

	t.Cleanup(func() {
		_ = s.conn.Close()
		_ = clientSide.Close()
	})

	return s, clientSide
}

// NewPeer starts a fake server and returns it along with an already
// constructed rpc.Peer connected to it — the common case for tests that
// exercise client/service code above the wire layer. Callers still need
// to call Peer.Open() after installing handlers.
func NewPeer(t *testing.T, handler HandlerFunc) (*Server, *rpc.Peer) {
	t.Helper()
	s, conn := New(t, handler)
	peer := rpc.NewPeer(context.Background(), conn, conn)
	return s, peer
}

func (s *Server) handle(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	var raw json.RawMessage
	if req.Params != nil {
		raw = json.RawMessage(*req.Params)
	}
	call := Call{Method: req.Method, Params: raw, Notif: req.Notif}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()

	if s.handler == nil {
		return nil, nil
	}
	return s.handler(ctx, call)
}

// Calls returns every call received so far, in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Notify sends a server-initiated notification to the client.
func (s *Server) Notify(t *testing.T, method string, params any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.conn.Notify(ctx, method, params))
}

// Call issues a server-initiated request to the client and decodes the
// reply into result.
func (s *Server) Call(t *testing.T, method string, params, result any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.conn.Call(ctx, method, params, result))
}

// WaitForCall blocks until a call matching method has been received, or
// fails the test after timeout.
func (s *Server) WaitForCall(t *testing.T, method string, timeout time.Duration) Call {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, c := range s.Calls() {
			if c.Method == method {
				return c
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("rpctest: timed out waiting for call to %q", method)
	return Call{}
}
