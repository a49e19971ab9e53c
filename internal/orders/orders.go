// Package orders mirrors the store's order feed and single-order detail view.
package orders

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"example.com/confeitapp/internal/api"
)

const (
	feedFallback   = "Não foi possível carregar os pedidos."
	detailFallback = "Não foi possível carregar os detalhes do pedido."
	statusFallback = "Não foi possível atualizar o status do pedido."
)

// Feed mirrors GET /orders, always sorted newest-first by createdAt. The sort
// is stable so server order breaks ties.
type Feed struct {
	client *api.Client
	logger *slog.Logger

	mu      sync.Mutex
	data    []api.Order
	loading bool
	err     string
}

// NewFeed starts empty; call Fetch to populate.
func NewFeed(client *api.Client, logger *slog.Logger) *Feed {
	return &Feed{client: client, logger: logger}
}

// Orders returns a copy of the current feed.
func (f *Feed) Orders() []api.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.data)
}

// Loading reports whether a fetch is in flight.
func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Err returns the last failure message, or "".
func (f *Feed) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Fetch replaces the feed wholesale; on failure the feed is emptied so no
// stale rows sit next to the error message.
func (f *Feed) Fetch(ctx context.Context) {
	f.mu.Lock()
	f.loading = true
	f.err = ""
	f.mu.Unlock()

	fetched, err := f.client.ListOrders(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		f.logger.Error("fetch orders failed", "error", err)
		f.err = api.UserMessage(err, feedFallback)
		f.data = nil
		return
	}
	sort.SliceStable(fetched, func(i, j int) bool {
		return fetched[i].CreatedAt.After(fetched[j].CreatedAt)
	})
	f.data = fetched
}

// Detail mirrors one order. Status changes apply optimistically and roll back
// to the pre-mutation snapshot when the server rejects them, same discipline
// as the product toggle.
type Detail struct {
	client *api.Client
	logger *slog.Logger
	id     string

	mu      sync.Mutex
	order   *api.Order
	loading bool
	err     string
}

// NewDetail tracks the order with the given id.
func NewDetail(client *api.Client, logger *slog.Logger, id string) *Detail {
	return &Detail{client: client, logger: logger, id: id}
}

// Order returns a copy of the tracked order, or nil before a successful fetch.
func (d *Detail) Order() *api.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.order == nil {
		return nil
	}
	o := *d.order
	return &o
}

// Loading reports whether a fetch is in flight.
func (d *Detail) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// Err returns the last failure message, or "".
func (d *Detail) Err() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Fetch loads the order; failure clears it so the view never shows stale data.
func (d *Detail) Fetch(ctx context.Context) {
	d.mu.Lock()
	if d.id == "" {
		d.err = "ID do pedido não fornecido."
		d.loading = false
		d.mu.Unlock()
		return
	}
	d.loading = true
	d.err = ""
	d.mu.Unlock()

	order, err := d.client.GetOrder(ctx, d.id)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		d.logger.Error("fetch order failed", "id", d.id, "error", err)
		d.err = api.UserMessage(err, detailFallback)
		d.order = nil
		return
	}
	d.order = &order
}

// UpdateStatus optimistically moves the order to status, restoring the
// snapshot and recording the error when the server rejects the transition.
func (d *Detail) UpdateStatus(ctx context.Context, status api.OrderStatus) {
	d.mu.Lock()
	if d.order == nil {
		d.mu.Unlock()
		return
	}
	snapshot := *d.order
	d.order.Status = status
	d.mu.Unlock()

	updated, err := d.client.UpdateOrderStatus(ctx, d.id, status)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.logger.Error("update order status failed", "id", d.id, "error", err)
		d.order = &snapshot
		d.err = api.UserMessage(err, statusFallback)
		return
	}
	d.order = &updated
}
