package orders_test

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
	"example.com/confeitapp/internal/orders"
)

func writeEnvelope(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T, mux *http.ServeMux) *api.Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return api.NewClient(server.URL, time.Second, nil)
}

func TestFeedSortsNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
			{"id": "o1", "orderNumber": "PED-1", "status": "pending", "createdAt": base.Format(time.RFC3339)},
			{"id": "o2", "orderNumber": "PED-2", "status": "pending", "createdAt": base.Add(2 * time.Hour).Format(time.RFC3339)},
			{"id": "o3", "orderNumber": "PED-3", "status": "pending", "createdAt": base.Format(time.RFC3339)},
			{"id": "o4", "orderNumber": "PED-4", "status": "pending", "createdAt": base.Add(time.Hour).Format(time.RFC3339)},
		}})
	})
	feed := orders.NewFeed(newServer(t, mux), quietLogger())

	feed.Fetch(context.Background())

	data := feed.Orders()
	require.Len(t, data, 4)
	for i := 1; i < len(data); i++ {
		assert.False(t, data[i].CreatedAt.After(data[i-1].CreatedAt),
			"feed must be non-increasing by createdAt")
	}
	// Stable sort: equal timestamps keep server order (o1 before o3).
	assert.Equal(t, "o1", data[2].ID)
	assert.Equal(t, "o3", data[3].ID)
}

func TestFeedFailureClearsData(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
				{"id": "o1", "orderNumber": "PED-1", "status": "pending", "createdAt": time.Now().UTC().Format(time.RFC3339)},
			}})
			return
		}
		writeEnvelope(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "indisponível"})
	})
	feed := orders.NewFeed(newServer(t, mux), quietLogger())
	ctx := context.Background()

	feed.Fetch(ctx)
	require.Len(t, feed.Orders(), 1)

	feed.Fetch(ctx)
	assert.Empty(t, feed.Orders())
	assert.Equal(t, "indisponível", feed.Err())
	assert.False(t, feed.Loading())
}

func orderPayload(status string) map[string]any {
	return map[string]any{
		"id": "o1", "orderNumber": "PED-1", "customerName": "Ana", "status": status,
		"quantity": 2, "unitPrice": 10.0, "totalPrice": 20.0,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
}

func TestDetailFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/o1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": orderPayload("pending")})
	})
	detail := orders.NewDetail(newServer(t, mux), quietLogger(), "o1")

	detail.Fetch(context.Background())

	order := detail.Order()
	require.NotNil(t, order)
	assert.Equal(t, api.OrderPending, order.Status)
	assert.Empty(t, detail.Err())
}

func TestDetailFetchWithoutID(t *testing.T) {
	detail := orders.NewDetail(newServer(t, http.NewServeMux()), quietLogger(), "")

	detail.Fetch(context.Background())

	assert.Nil(t, detail.Order())
	assert.NotEmpty(t, detail.Err())
	assert.False(t, detail.Loading())
}

func TestDetailStatusUpdateCommit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/o1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": orderPayload("pending")})
	})
	mux.HandleFunc("PATCH /orders/o1/status", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": orderPayload("confirmed")})
	})
	detail := orders.NewDetail(newServer(t, mux), quietLogger(), "o1")
	ctx := context.Background()

	detail.Fetch(ctx)
	detail.UpdateStatus(ctx, api.OrderConfirmed)

	assert.Equal(t, api.OrderConfirmed, detail.Order().Status)
	assert.Empty(t, detail.Err())
}

func TestDetailStatusUpdateRollback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/o1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": orderPayload("pending")})
	})
	mux.HandleFunc("PATCH /orders/o1/status", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, map[string]any{"success": false, "error": "transição inválida"})
	})
	detail := orders.NewDetail(newServer(t, mux), quietLogger(), "o1")
	ctx := context.Background()

	detail.Fetch(ctx)
	before := *detail.Order()

	detail.UpdateStatus(ctx, api.OrderDelivered)

	assert.Equal(t, before, *detail.Order(), "failed status change must restore the snapshot")
	assert.Equal(t, "transição inválida", detail.Err())
}
