package storefront_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/confeitapp/internal/api"
	"example.com/confeitapp/internal/storefront"
)

func writeEnvelope(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newSettings(t *testing.T, mux *http.ServeMux) *storefront.Settings {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := api.NewClient(server.URL, time.Second, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return storefront.NewSettings(client, logger)
}

func storePayload(slug string) map[string]any {
	return map[string]any{
		"id": "s1", "name": "Doces da Ana", "slug": slug,
		"supportedDeliveryTypes": []string{"DELIVERY", "PICKUP"},
		"layoutStyle":            "grid",
	}
}

func TestFetchLoadsSingleton(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /store", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": storePayload("doces-da-ana")})
	})
	s := newSettings(t, mux)

	s.Fetch(context.Background())

	store := s.Store()
	require.NotNil(t, store)
	assert.Equal(t, "doces-da-ana", store.Slug)
	assert.Empty(t, s.Err())
	assert.False(t, s.Loading())
}

func TestFetchFailureClearsSingleton(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /store", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": storePayload("doces-da-ana")})
			return
		}
		writeEnvelope(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "indisponível"})
	})
	s := newSettings(t, mux)
	ctx := context.Background()

	s.Fetch(ctx)
	require.NotNil(t, s.Store())

	s.Fetch(ctx)
	assert.Nil(t, s.Store())
	assert.Equal(t, "indisponível", s.Err())
}

func TestUpdateReplacesSingleton(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /store", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": storePayload("doces-da-ana")})
	})
	mux.HandleFunc("PATCH /store", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": storePayload("confeitaria-ana")})
	})
	s := newSettings(t, mux)
	ctx := context.Background()

	s.Fetch(ctx)
	slug := "Confeitaria Ana"
	updated, err := s.Update(ctx, api.UpdateStorePayload{Slug: &slug})
	require.NoError(t, err)
	assert.Equal(t, "confeitaria-ana", updated.Slug, "server-normalized slug wins")
	assert.Equal(t, "confeitaria-ana", s.Store().Slug)
}

func TestUpdateDuplicateSlugIsDistinguishable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /store", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": storePayload("doces-da-ana")})
	})
	mux.HandleFunc("PATCH /store", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, map[string]any{
			"success": false, "error": "Este endereço de loja já está em uso.", "code": "DUPLICATE_SLUG",
		})
	})
	s := newSettings(t, mux)
	ctx := context.Background()

	s.Fetch(ctx)
	before := *s.Store()

	slug := "taken"
	_, err := s.Update(ctx, api.UpdateStorePayload{Slug: &slug})
	require.Error(t, err)

	// The caller branches on the machine code, not the message text.
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, api.CodeDuplicateSlug, apiErr.Code)

	assert.Equal(t, before, *s.Store(), "failed update must not touch local state")
}

func TestUpdateGenericFailureHasNoCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /store", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "boom"})
	})
	s := newSettings(t, mux)

	name := "Nova Loja"
	_, err := s.Update(context.Background(), api.UpdateStorePayload{Name: &name})
	require.Error(t, err)
	assert.Empty(t, api.ErrorCode(err))
}
