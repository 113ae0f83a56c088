package client

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/wharflab/lspbridge/protocol"
)

// newDispatchTable builds the method -> handler map answering
// server-initiated requests (spec.md §4.F), mirroring the shape of the
// teacher's handle switch in internal/lspserver/server.go but inverted:
// there the table answers client requests; here it answers server
// requests.
func newDispatchTable() map[protocol.Method]requestHandlerFunc {
	return map[protocol.Method]requestHandlerFunc{
		protocol.MethodWorkspaceConfiguration:  (*Client).handleConfiguration,
		protocol.MethodWorkspaceApplyEdit:      (*Client).handleApplyEdit,
		protocol.MethodWorkDoneProgressCreate:  (*Client).handleWorkDoneProgressCreate,
	}
}

// handleRequest answers one server-initiated request via the Peer's
// RequestHandler hook.
func (c *Client) handleRequest(ctx context.Context, method string, params json.RawMessage) (any, error) {
	h, ok := c.dispatch[protocol.Method(method)]
	if !ok {
		return nil, &StateError{Op: "unhandled request " + method, State: c.State()}
	}
	return h(c, ctx, params)
}

func (c *Client) handleConfiguration(_ context.Context, raw []byte) (any, error) {
	var params protocol.ConfigurationParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}

	c.mu.Lock()
	provider := c.configProvider
	c.mu.Unlock()

	results := make([]any, len(params.Items))
	for i, item := range params.Items {
		if provider != nil {
			results[i] = provider(item)
		} else {
			results[i] = nil
		}
	}
	return results, nil
}

func (c *Client) handleWorkDoneProgressCreate(_ context.Context, raw []byte) (any, error) {
	var params protocol.WorkDoneProgressCreateParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	c.progress.Create(params.Token)
	return nil, nil
}

// handleNotification answers one server-initiated notification via the
// Peer's NotificationHandler hook.
func (c *Client) handleNotification(ctx context.Context, method string, params json.RawMessage) {
	switch protocol.Method(method) {
	case protocol.MethodTextDocumentPublishDiagnostics:
		c.onPublishDiagnostics(params)
	case protocol.MethodProgress:
		c.onProgress(params)
	case protocol.MethodWindowLogMessage:
		c.onLogMessage(params)
	case protocol.MethodWindowShowMessage:
		c.onShowMessage(params)
	case protocol.MethodLogTrace:
		c.onLogTrace(params)
	default:
		c.log.Debug("client: unhandled notification", "method", method)
		c.emitNotification(protocol.Method(method), params)
	}
}

// emitNotification fans an unrecognized notification out to every
// registered NotificationListener (spec.md §4.C).
func (c *Client) emitNotification(method protocol.Method, params json.RawMessage) {
	c.mu.Lock()
	listeners := append([]NotificationListener(nil), c.notificationListeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(method, params)
	}
}

func (c *Client) onPublishDiagnostics(raw []byte) {
	var params protocol.PublishDiagnosticsParams
	if err := json.Unmarshal(raw, &params); err != nil {
		c.log.Warn("client: publishDiagnostics decode failed", "error", err)
		return
	}
	c.diagnostics.Publish(params.URI, params.Diagnostics)
}

func (c *Client) onProgress(raw []byte) {
	var params protocol.ProgressParams
	if err := json.Unmarshal(raw, &params); err != nil {
		c.log.Warn("client: progress decode failed", "error", err)
		return
	}
	kind, err := protocol.ProgressKind(params.Value)
	if err != nil {
		c.log.Warn("client: progress kind decode failed", "error", err)
		return
	}
	switch kind {
	case protocol.ProgressBegin:
		var begin protocol.WorkDoneProgressBegin
		if err := json.Unmarshal(params.Value, &begin); err == nil {
			c.progress.Begin(params.Token, begin)
		}
	case protocol.ProgressReport:
		var report protocol.WorkDoneProgressReport
		if err := json.Unmarshal(params.Value, &report); err == nil {
			c.progress.Report(params.Token, report)
		}
	case protocol.ProgressEnd:
		var end protocol.WorkDoneProgressEnd
		if err := json.Unmarshal(params.Value, &end); err == nil {
			c.progress.End(params.Token, end)
		}
	}
}

// messageLevel maps an LSP MessageType onto a log level that never fatals
// the host on ordinary server chatter (spec.md §4.C: "never Error, to
// avoid making the host fatal on server chatter"). Error/Warning/Info
// (1-3) are logged at Info; Log (4) at Debug.
func messageLevel(t protocol.MessageType) slog.Level {
	if t == protocol.MessageLog {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func (c *Client) onLogMessage(raw []byte) {
	var params protocol.LogMessageParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	c.log.Log(context.Background(), messageLevel(params.Type), "server log", "type", params.Type, "message", params.Message)
}

func (c *Client) onShowMessage(raw []byte) {
	var params protocol.ShowMessageParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	c.log.Log(context.Background(), messageLevel(params.Type), "server message", "type", params.Type, "message", params.Message)
}

func (c *Client) onLogTrace(raw []byte) {
	var params protocol.LogTraceParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	c.log.Debug("server trace", "message", params.Message)
}
