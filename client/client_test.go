package client_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/lspbridge/client"
	"github.com/wharflab/lspbridge/diagnostics"
	"github.com/wharflab/lspbridge/internal/rpctest"
	"github.com/wharflab/lspbridge/protocol"
	"github.com/wharflab/lspbridge/rpc"
)

func startClient(t *testing.T, handler rpctest.HandlerFunc) (*rpctest.Server, *client.Client) {
	t.Helper()
	srv, peer := rpctest.NewPeer(t, handler)
	c := client.New(peer, client.Options{ClientInfo: protocol.ClientInfo{Name: "lspbridge-test"}})
	peer.Open()
	return srv, c
}

func fakeInitializeHandler(t *testing.T, caps protocol.ServerCapabilities) rpctest.HandlerFunc {
	return func(_ context.Context, call rpctest.Call) (any, error) {
		switch call.Method {
		case "initialize":
			return protocol.InitializeResult{Capabilities: caps}, nil
		case "shutdown":
			return nil, nil
		default:
			t.Logf("fake server: unexpected call %s", call.Method)
			return nil, nil
		}
	}
}

func TestClientStartReachesReady(t *testing.T) {
	kind := protocol.SyncFull
	_, c := startClient(t, fakeInitializeHandler(t, protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncValue{Kind: kind},
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, client.Ready, c.State())
	assert.Equal(t, protocol.SyncFull, c.SyncKind())
}

func TestClientQueuesCallsBeforeReady(t *testing.T) {
	ready := make(chan struct{})
	srv, peer := rpctest.NewPeer(t, func(_ context.Context, call rpctest.Call) (any, error) {
		switch call.Method {
		case "initialize":
			<-ready
			return protocol.InitializeResult{}, nil
		case "textDocument/hover":
			return protocol.Hover{}, nil
		default:
			return nil, nil
		}
	})
	c := client.New(peer, client.Options{})
	peer.Open()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	startDone := make(chan error, 1)
	go func() { startDone <- c.Start(ctx) }()

	callDone := make(chan error, 1)
	go func() {
		var result protocol.Hover
		callDone <- c.Call(ctx, protocol.MethodTextDocumentHover, protocol.HoverParams{}, &result)
	}()

	time.Sleep(20 * time.Millisecond)
	close(ready)

	require.NoError(t, <-startDone)
	require.NoError(t, <-callDone)
	_ = srv
}

func TestClientDispatchesPublishDiagnostics(t *testing.T) {
	srv, c := startClient(t, fakeInitializeHandler(t, protocol.ServerCapabilities{}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Start(ctx))

	type update struct {
		uri   protocol.DocumentURI
		count int
	}
	received := make(chan update, 1)
	c.Diagnostics().Subscribe(func(uri protocol.DocumentURI, entries []diagnostics.Entry) {
		received <- update{uri: uri, count: len(entries)}
	})

	srv.Notify(t, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI: "file:///a.go",
		Diagnostics: []protocol.Diagnostic{
			{Message: "unused import", Severity: protocol.SeverityWarning},
		},
	})

	select {
	case u := <-received:
		assert.Equal(t, protocol.DocumentURI("file:///a.go"), u.uri)
		assert.Equal(t, 1, u.count)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for diagnostics")
	}
}

func TestClientHandlesWorkspaceConfiguration(t *testing.T) {
	srv, c := startClient(t, fakeInitializeHandler(t, protocol.ServerCapabilities{}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Start(ctx))

	c.SetConfigurationProvider(func(item protocol.ConfigurationItem) any {
		return map[string]any{"section": item.Section}
	})

	var result []any
	srv.Call(t, "workspace/configuration", protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{{Section: "gopls"}},
	}, &result)

	require.Len(t, result, 1)
	asMap, ok := result[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gopls", asMap["section"])
}

func TestClientEmitsUnknownNotifications(t *testing.T) {
	srv, c := startClient(t, fakeInitializeHandler(t, protocol.ServerCapabilities{}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Start(ctx))

	type seen struct {
		method protocol.Method
		raw    string
	}
	received := make(chan seen, 1)
	c.OnNotification(func(method protocol.Method, params json.RawMessage) {
		received <- seen{method: method, raw: string(params)}
	})

	srv.Notify(t, "experimental/serverStatus", map[string]any{"quiescent": true})

	select {
	case s := <-received:
		assert.Equal(t, protocol.Method("experimental/serverStatus"), s.method)
		assert.Contains(t, s.raw, "quiescent")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for unhandled notification fan-out")
	}
}

func TestClientSupportsLanguage(t *testing.T) {
	_, c := startClient(t, fakeInitializeHandler(t, protocol.ServerCapabilities{}))
	c2 := client.New(mustNewPeer(t), client.Options{Languages: []string{"go", "python"}})

	assert.True(t, c2.SupportsLanguage("go"))
	assert.True(t, c2.SupportsLanguage("python"))
	// python3 is a fixed alias for python (spec.md §4.C).
	assert.True(t, c2.SupportsLanguage("python3"))
	assert.False(t, c2.SupportsLanguage("rust"))

	c2.AddLanguage("rust")
	assert.True(t, c2.SupportsLanguage("rust"))

	// A Client with no declared languages supports nothing.
	assert.False(t, c.SupportsLanguage("go"))
}

func mustNewPeer(t *testing.T) *rpc.Peer {
	t.Helper()
	_, peer := rpctest.NewPeer(t, func(context.Context, rpctest.Call) (any, error) { return nil, nil })
	return peer
}

func TestClientShutdownSequence(t *testing.T) {
	var gotShutdown, gotExit bool
	srv, peer := rpctest.NewPeer(t, func(_ context.Context, call rpctest.Call) (any, error) {
		switch call.Method {
		case "initialize":
			return protocol.InitializeResult{}, nil
		case "shutdown":
			gotShutdown = true
			return nil, nil
		case "exit":
			gotExit = true
			return nil, nil
		default:
			return nil, nil
		}
	})
	c := client.New(peer, client.Options{})
	peer.Open()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Shutdown(ctx))
	assert.Equal(t, client.Stopped, c.State())
	assert.True(t, gotShutdown)
	assert.True(t, gotExit)
	_ = srv
}
