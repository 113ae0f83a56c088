// Command fakeserver is a minimal language server used only by
// service_test.go: enough of the initialize/shutdown/exit handshake to
// exercise service.Runner/Service's spawn and respawn paths against a
// real subprocess, the same role the teacher's testdata/testagent plays
// for internal/ai/acp's tests (acp_test.go, runner_test.go), rebuilt
// around sourcegraph/jsonrpc2 instead of the ACP SDK since that is the
// wire library our own service package speaks.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sourcegraph/jsonrpc2"
)

func main() {
	mode := flag.String("mode", "happy", "fakeserver behavior: happy|crash|no-reply")
	flag.Parse()

	stream := jsonrpc2.NewBufferedStream(stdioRWC{}, jsonrpc2.VSCodeObjectCodec{})
	h := &handler{mode: *mode}
	conn := jsonrpc2.NewConn(context.Background(), stream, h)
	h.conn = conn
	<-conn.DisconnectNotify()
}

type handler struct {
	mode string
	conn *jsonrpc2.Conn
}

func (h *handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	switch req.Method {
	case "initialize":
		if h.mode == "no-reply" {
			return
		}
		result := map[string]any{
			"capabilities": map[string]any{
				"textDocumentSync": 1,
			},
		}
		_ = conn.Reply(ctx, req.ID, result)
		if h.mode == "crash" {
			go func() {
				os.Exit(1)
			}()
		}
	case "shutdown":
		_ = conn.Reply(ctx, req.ID, nil)
	case "exit":
		os.Exit(0)
	default:
		if !req.Notif {
			_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: -32601, Message: "method not found: " + req.Method})
		}
	}
}

// stdioRWC adapts the process's own stdin/stdout into the
// io.ReadWriteCloser jsonrpc2.NewBufferedStream expects, mirroring
// rpc.processStream from the other side of the pipe.
type stdioRWC struct{}

func (stdioRWC) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioRWC) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioRWC) Close() error {
	_ = os.Stdin.Close()
	return os.Stdout.Close()
}
