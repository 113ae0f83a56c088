// Package progress tracks server-reported $/progress sessions keyed by
// the token the server chose on window/workDoneProgress/create or on an
// unsolicited progress stream (spec.md §4.F).
package progress

import (
	"strconv"
	"sync"

	"github.com/wharflab/lspbridge/protocol"
)

// Token is the live state of one progress session.
type Token struct {
	Key         string
	Title       string
	Message     string
	Percentage  *uint32
	Cancellable bool
	Done        bool
}

// Store holds every progress session the Client has seen begin and not
// yet end. Entries are removed on End so long-running clients don't
// accumulate stale tokens.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{tokens: make(map[string]*Token)}
}

func keyOf(token protocol.IntegerOrString) string {
	if token.String != nil {
		return *token.String
	}
	if token.Integer != nil {
		return strconv.FormatInt(*token.Integer, 10)
	}
	return ""
}

// Create reserves key for a progress session the server is about to
// start, in response to window/workDoneProgress/create.
func (s *Store) Create(token protocol.IntegerOrString) {
	key := keyOf(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[key]; !ok {
		s.tokens[key] = &Token{Key: key}
	}
}

// Begin starts (or re-keys, for servers that skip workDoneProgress/create)
// a progress session.
func (s *Store) Begin(token protocol.IntegerOrString, begin protocol.WorkDoneProgressBegin) *Token {
	key := keyOf(token)
	t := &Token{
		Key:         key,
		Title:       begin.Title,
		Message:     begin.Message,
		Percentage:  begin.Percentage,
		Cancellable: begin.Cancellable,
	}
	s.mu.Lock()
	s.tokens[key] = t
	s.mu.Unlock()
	return t
}

// Report updates an in-progress session.
func (s *Store) Report(token protocol.IntegerOrString, report protocol.WorkDoneProgressReport) *Token {
	key := keyOf(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[key]
	if !ok {
		t = &Token{Key: key}
		s.tokens[key] = t
	}
	if report.Message != "" {
		t.Message = report.Message
	}
	if report.Percentage != nil {
		t.Percentage = report.Percentage
	}
	t.Cancellable = report.Cancellable
	return t
}

// End closes a progress session and removes it from the Store.
func (s *Store) End(token protocol.IntegerOrString, end protocol.WorkDoneProgressEnd) *Token {
	key := keyOf(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[key]
	if !ok {
		t = &Token{Key: key}
	}
	t.Done = true
	if end.Message != "" {
		t.Message = end.Message
	}
	delete(s.tokens, key)
	return t
}

// Get returns the current state of a session, if it is still live.
func (s *Store) Get(token protocol.IntegerOrString) (Token, bool) {
	key := keyOf(token)
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[key]
	if !ok {
		return Token{}, false
	}
	return *t, true
}
