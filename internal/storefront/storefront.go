// Package storefront mirrors the seller's store-appearance settings singleton.
package storefront

import (
	"context"
	"log/slog"
	"sync"

	"example.com/confeitapp/internal/api"
)

const (
	fetchFallback  = "Não foi possível carregar a loja."
	updateFallback = "Não foi possível atualizar a loja."
)

// Settings holds the local copy of GET /store.
type Settings struct {
	client *api.Client
	logger *slog.Logger

	mu      sync.Mutex
	store   *api.Store
	loading bool
	err     string
}

// NewSettings starts empty; call Fetch to populate.
func NewSettings(client *api.Client, logger *slog.Logger) *Settings {
	return &Settings{client: client, logger: logger}
}

// Store returns a copy of the local singleton, or nil before a successful fetch.
func (s *Settings) Store() *api.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	st := *s.store
	return &st
}

// Loading reports whether a fetch is in flight.
func (s *Settings) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last fetch failure message, or "".
func (s *Settings) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Fetch replaces the local singleton; failure clears it and records the message.
func (s *Settings) Fetch(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	fetched, err := s.client.GetStore(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.logger.Error("fetch store failed", "error", err)
		s.err = api.UserMessage(err, fetchFallback)
		s.store = nil
		return
	}
	s.store = &fetched
}

// Update sends a partial settings payload. Unlike Fetch it reports failures to
// the caller instead of swallowing them into Err: the settings form must tell
// a structured conflict (duplicate slug, *api.Error with Code) apart from a
// generic failure. On success the local singleton is replaced with the server
// record; on failure it is untouched.
func (s *Settings) Update(ctx context.Context, payload api.UpdateStorePayload) (api.Store, error) {
	updated, err := s.client.UpdateStore(ctx, payload)
	if err != nil {
		s.logger.Error("update store failed", "error", err)
		return api.Store{}, &api.Error{Message: api.UserMessage(err, updateFallback), Code: api.ErrorCode(err)}
	}

	s.mu.Lock()
	s.store = &updated
	s.mu.Unlock()
	return updated, nil
}
