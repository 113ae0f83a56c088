package rpc

import (
	"errors"
	"fmt"
)

// ErrDisconnected is returned by Peer.Call and Peer.Notify once the
// underlying connection has been closed, locally or by the remote end.
var ErrDisconnected = errors.New("rpc: peer disconnected")

// ErrCancelled is returned by Peer.Call when its context is done before a
// reply arrives. spec.md §9 marks emitting $/cancelRequest as optional;
// this runtime resolves the call locally without sending one (see
// SPEC_FULL.md §4.A/§4.B).
var ErrCancelled = errors.New("rpc: call cancelled")

// ServerError is a JSON-RPC error object returned by the remote peer in
// reply to a Call, modeled after the teacher's RunnerError: a typed
// wrapper that keeps the original code/data available to errors.As
// callers instead of flattening it into a string.
type ServerError struct {
	Code    int64
	Message string
	Data    []byte
}

func (e *ServerError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("rpc: server error %d: %s", e.Code, e.Message)
}
