// Package rpc provides the Content-Length-framed JSON-RPC 2.0 transport
// and request/notification correlation the Client speaks to a language
// server over (spec.md §4.A/§4.B). It is a thin wrapper over
// github.com/sourcegraph/jsonrpc2, the wire engine this runtime uses in
// the same client role the teacher's own black-box LSP test harness
// already exercised it in.
package rpc

import (
	"io"
	"sync"
)

// processStream adapts a spawned process's stdin/stdout pipes into the
// single io.ReadWriteCloser jsonrpc2.NewBufferedStream expects, mirroring
// the teacher's processIO type (internal/lsptest/setup_test.go, itself a
// mirror of stdioRWC in internal/lspserver/server.go).
type processStream struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

// NewProcessStream wraps a subprocess's stdout (reader) and stdin (writer)
// as one io.ReadWriteCloser suitable for jsonrpc2.NewBufferedStream.
func NewProcessStream(stdout io.ReadCloser, stdin io.WriteCloser) io.ReadWriteCloser {
	return &processStream{reader: stdout, writer: stdin}
}

func (p *processStream) Read(data []byte) (int, error)  { return p.reader.Read(data) }
func (p *processStream) Write(data []byte) (int, error) { return p.writer.Write(data) }

func (p *processStream) Close() error {
	if err := p.reader.Close(); err != nil {
		_ = p.writer.Close()
		return err
	}
	return p.writer.Close()
}

// gatedReader delays reads from the underlying reader until Open is
// called, adapted from acp's readGate (internal/ai/acp/runner.go): the
// Peer must finish constructing its jsonrpc2.Conn and Handler before the
// subprocess's stdout is allowed to start delivering bytes, or an
// eagerly-buffering io.Reader can drop the first frame.
type gatedReader struct {
	r     io.Reader
	once  sync.Once
	ready chan struct{}
}

func newGatedReader(r io.Reader) *gatedReader {
	return &gatedReader{r: r, ready: make(chan struct{})}
}

func (g *gatedReader) Open() { g.once.Do(func() { close(g.ready) }) }

func (g *gatedReader) Read(p []byte) (int, error) {
	<-g.ready
	return g.r.Read(p)
}

// Close closes the underlying reader if it is a Closer. Needed because
// gatedReader stands in for the process's stdout pipe in processStream,
// which expects a full io.ReadCloser.
func (g *gatedReader) Close() error {
	if c, ok := g.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
