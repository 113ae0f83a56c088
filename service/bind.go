package service

import (
	"context"

	"github.com/wharflab/lspbridge/client"
)

// Bind lazily starts the Service on first use, then blocks until it has
// produced at least one Client (or ctx is done) (spec.md §4.G "Provides
// a bind_client(provider) convenience that lazily starts the service on
// first use"). Use when a caller genuinely needs the first instance
// before proceeding, e.g. to run an initial workspace/symbol query at
// startup.
func (s *Service) Bind(ctx context.Context) (*client.Client, error) {
	if c := s.Client(); c != nil {
		return c, nil
	}

	ch := make(chan *client.Client, 1)
	s.OnReady(func(c *client.Client) {
		select {
		case ch <- c:
		default:
		}
	})

	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	select {
	case c := <-ch:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// BindLazy returns an accessor that always reads whichever Client is
// currently live, the property-binding replacement for the teacher's
// signal-based provider rebinding (spec.md §9 REDESIGN FLAGS, §4.G): a
// feature provider calls the returned func on every use instead of
// holding a Client reference that a respawn would invalidate.
func (s *Service) BindLazy() func() *client.Client {
	return s.Client
}
