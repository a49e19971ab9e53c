package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource yields the bearer token for the current session, if any. The
// client consults it on every request so a sign-in or sign-out between two
// calls takes effect immediately.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Client sends authenticated JSON requests to the ConfeitApp API. Every
// response is expected to carry the uniform {success, data|error} envelope.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient configures a client for the given base URL (including the /api
// prefix). tokens may be nil, in which case all requests go out unauthenticated.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// do sends one request and decodes the envelope into out (out may be nil when
// the caller only cares about success). Failure envelopes and non-2xx statuses
// become *Error; transport problems are returned wrapped, not shaped.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &Error{Message: "A requisição falhou.", Status: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if !env.Success || resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := env.Error
		if message == "" {
			message = "A requisição falhou."
		}
		return &Error{Message: message, Code: env.Code, Status: resp.StatusCode}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// Login exchanges credentials for a token/user pair.
func (c *Client) Login(ctx context.Context, email, password string) (AuthData, error) {
	var data AuthData
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &data); err != nil {
		return AuthData{}, err
	}
	if data.Token == "" || data.User.ID == "" {
		return AuthData{}, &Error{Message: "Resposta de login incompleta."}
	}
	return data, nil
}

// Register creates a seller account. The caller signs in afterwards; register
// itself returns no session.
func (c *Client) Register(ctx context.Context, name, email, password, phone string) error {
	payload := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"phone":    phone,
	}
	return c.do(ctx, http.MethodPost, "/auth/register", payload, nil)
}

// ListProducts fetches the seller's catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct adds a product and returns the canonical server record.
func (c *Client) CreateProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodPost, "/products", input, &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// UpdateProduct applies a partial patch and returns the canonical record.
func (c *Client) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), input, &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// ToggleProduct flips a product's active flag and returns the updated record.
func (c *Client) ToggleProduct(ctx context.Context, id string, active bool) (Product, error) {
	var product Product
	payload := map[string]bool{"isActive": active}
	if err := c.do(ctx, http.MethodPatch, "/products/"+url.PathEscape(id)+"/toggle", payload, &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// ListOrders fetches the store's orders in whatever order the server returns them.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, id string) (Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// UpdateOrderStatus moves an order to a new lifecycle state.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) (Order, error) {
	var order Order
	payload := map[string]OrderStatus{"status": status}
	if err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/status", payload, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// SeedRandomOrder asks the development backend to fabricate one order. Only
// the stub API exposes this route.
func (c *Client) SeedRandomOrder(ctx context.Context) (Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/dev/orders/random", nil, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// GetStore fetches the seller's storefront settings singleton.
func (c *Client) GetStore(ctx context.Context) (Store, error) {
	var store Store
	if err := c.do(ctx, http.MethodGet, "/store", nil, &store); err != nil {
		return Store{}, err
	}
	return store, nil
}

// UpdateStore applies a partial settings update and returns the server record.
func (c *Client) UpdateStore(ctx context.Context, payload UpdateStorePayload) (Store, error) {
	var store Store
	if err := c.do(ctx, http.MethodPatch, "/store", payload, &store); err != nil {
		return Store{}, err
	}
	return store, nil
}
