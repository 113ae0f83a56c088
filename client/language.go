package client

// languageAliases maps a buffer language id to the id a server
// registration is keyed under when the two differ, per spec.md §4.C
// ("a fixed alias python3→python"). GtkSourceView-style ids are the
// wire vocabulary the Host's buffers report in (spec.md §6).
var languageAliases = map[string]string{
	"python3": "python",
}

// LanguageAcceptor reports whether a client instance handles buffers of
// the given language id.
type LanguageAcceptor func(languageID string) bool

func exactOrAliased(want string) LanguageAcceptor {
	return func(languageID string) bool {
		if languageID == want {
			return true
		}
		return languageAliases[languageID] == want
	}
}

// AddLanguage declares a language this Client handles (spec.md §4.C).
// The default acceptor matches by string equality, with languageAliases
// resolving known aliases (e.g. a "python3" buffer matches a Client
// registered for "python"). Call it from a service.Config's
// NewClientOptions hook (the configure_client hook of spec.md §4.G), or
// directly after client.New, before the Document Bridge starts.
func (c *Client) AddLanguage(languageID string) {
	c.mu.Lock()
	c.languageAcceptors = append(c.languageAcceptors, exactOrAliased(languageID))
	c.mu.Unlock()
}

// SupportsLanguage reports whether any registered acceptor matches
// languageID — a first-wins accumulator among listeners (spec.md §4.C).
// A Client with no declared languages supports nothing; the Document
// Bridge uses this to decide whether a newly loaded buffer should be
// tracked at all (spec.md §3 "Tracked Document").
func (c *Client) SupportsLanguage(languageID string) bool {
	c.mu.Lock()
	acceptors := c.languageAcceptors
	c.mu.Unlock()

	for _, accept := range acceptors {
		if accept(languageID) {
			return true
		}
	}
	return false
}
