// Package products holds the client-side mirror of the seller's catalog and
// the optimistic mutations that keep it responsive: flips and edits apply
// locally first and are rolled back wholesale if the server rejects them.
package products

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"example.com/confeitapp/internal/api"
)

const (
	fetchFallback  = "Não foi possível carregar os produtos."
	toggleFallback = "Não foi possível atualizar o status. Tente novamente."
	createFallback = "Falha ao criar o produto."
	updateFallback = "Falha ao atualizar o produto."
)

// Collection mirrors GET /products. The mutex guards the struct between the
// suspension points of a request; whole mutations are deliberately not
// serialized per product id (see ToggleStatus).
type Collection struct {
	client *api.Client
	logger *slog.Logger

	mu      sync.Mutex
	data    []api.Product
	loading bool
	err     string
}

// NewCollection starts with an empty catalog; call Fetch to populate it.
func NewCollection(client *api.Client, logger *slog.Logger) *Collection {
	return &Collection{client: client, logger: logger}
}

// Products returns a copy of the current local catalog.
func (c *Collection) Products() []api.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.data)
}

// Loading reports whether a fetch is in flight.
func (c *Collection) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the last failure message, or "" when the last operation succeeded.
func (c *Collection) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Fetch replaces the local catalog with the server's. On failure the catalog
// is emptied rather than left stale next to the error message.
func (c *Collection) Fetch(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	c.err = ""
	c.mu.Unlock()

	fetched, err := c.client.ListProducts(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.logger.Error("fetch products failed", "error", err)
		c.err = api.UserMessage(err, fetchFallback)
		c.data = nil
		return
	}
	c.data = fetched
}

// ToggleStatus optimistically flips a product's active flag, then confirms
// with the server. On rejection the pre-mutation snapshot is restored exactly.
// Each call snapshots at invocation time; two overlapping toggles on the same
// id can clobber each other, matching the behavior of the app being ported.
func (c *Collection) ToggleStatus(ctx context.Context, id string, active bool) {
	c.mu.Lock()
	snapshot := slices.Clone(c.data)
	for i := range c.data {
		if c.data[i].ID == id {
			c.data[i].IsActive = active
		}
	}
	c.mu.Unlock()

	updated, err := c.client.ToggleProduct(ctx, id, active)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error("toggle product failed", "id", id, "error", err)
		c.data = snapshot
		c.err = api.UserMessage(err, toggleFallback)
		return
	}
	// Re-apply the canonical record so server-side fields (updatedAt) land too.
	for i := range c.data {
		if c.data[i].ID == id {
			c.data[i] = updated
		}
	}
}

// Create posts a new product. On success the canonical server record is
// prepended; on failure the catalog is untouched and the error is returned so
// the form can keep the user's input.
func (c *Collection) Create(ctx context.Context, input api.CreateProductInput) (api.Product, error) {
	created, err := c.client.CreateProduct(ctx, input)
	if err != nil {
		c.logger.Error("create product failed", "error", err)
		return api.Product{}, &api.Error{Message: api.UserMessage(err, createFallback), Code: api.ErrorCode(err)}
	}

	c.mu.Lock()
	c.data = append([]api.Product{created}, c.data...)
	c.mu.Unlock()
	return created, nil
}

// Update sends a partial patch and, on success, replaces the matching local
// record with the server's canonical one. Failure leaves the catalog untouched.
func (c *Collection) Update(ctx context.Context, id string, input api.UpdateProductInput) (api.Product, error) {
	updated, err := c.client.UpdateProduct(ctx, id, input)
	if err != nil {
		c.logger.Error("update product failed", "id", id, "error", err)
		return api.Product{}, &api.Error{Message: api.UserMessage(err, updateFallback), Code: api.ErrorCode(err)}
	}

	c.mu.Lock()
	for i := range c.data {
		if c.data[i].ID == id {
			c.data[i] = updated
		}
	}
	c.mu.Unlock()
	return updated, nil
}
