package service

import (
	"fmt"
	"strings"
)

// SpawnError wraps a language server process failure, adapted from the
// teacher's RunnerError (internal/ai/acp/errors.go): it keeps a tail of
// the server's stderr alongside the error so a crash can be diagnosed
// without the Supervisor streaming server stderr into application logs
// on every respawn attempt.
type SpawnError struct {
	Op       string
	Err      error
	ExitCode *int
	Stderr   string
}

func (e *SpawnError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("unknown error")
	}
	if e.ExitCode != nil {
		fmt.Fprintf(&b, " (exit=%d)", *e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		b.WriteString("; server stderr (tail): ")
		b.WriteString(s)
	}
	return b.String()
}

func (e *SpawnError) Unwrap() error { return e.Err }
