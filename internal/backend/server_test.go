package backend_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/confeitapp/internal/api"
	"example.com/confeitapp/internal/backend"
	"example.com/confeitapp/internal/sqliteutil"
)

type memoryTokens struct{ token string }

func (m *memoryTokens) Token(context.Context) (string, bool) {
	return m.token, m.token != ""
}

// newStub boots the full stub API on an in-memory database and returns a
// client pointed at it plus the mutable token holder.
func newStub(t *testing.T) (*api.Client, *memoryTokens) {
	t.Helper()

	db, err := sqliteutil.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := backend.NewStore(db)
	require.NoError(t, store.Init(context.Background()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(backend.NewServer(store, logger).Router())
	t.Cleanup(server.Close)

	tokens := &memoryTokens{}
	return api.NewClient(server.URL+"/api", time.Second, tokens), tokens
}

func signUp(t *testing.T, client *api.Client, tokens *memoryTokens, name, email string) api.User {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, client.Register(ctx, name, email, "secret123", "11999990000"))
	data, err := client.Login(ctx, email, "secret123")
	require.NoError(t, err)
	tokens.token = data.Token
	return data.User
}

func TestRegisterAndLogin(t *testing.T) {
	client, tokens := newStub(t)
	ctx := context.Background()

	user := signUp(t, client, tokens, "Ana Souza", "ana@doces.com")
	assert.Equal(t, "ana@doces.com", user.Email)
	assert.NotEmpty(t, user.ID)

	// Registration also provisions the default storefront.
	store, err := client.GetStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana-souza", store.Slug)
	assert.ElementsMatch(t, []api.DeliveryType{api.Delivery, api.Pickup}, store.SupportedDeliveryTypes)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	client, tokens := newStub(t)
	ctx := context.Background()
	signUp(t, client, tokens, "Ana", "ana@doces.com")

	err := client.Register(ctx, "Outra Ana", "ana@doces.com", "secret123", "11999990000")
	require.Error(t, err)
	assert.Equal(t, api.CodeEmailTaken, api.ErrorCode(err))
}

func TestLoginWrongPassword(t *testing.T) {
	client, tokens := newStub(t)
	signUp(t, client, tokens, "Ana", "ana@doces.com")

	_, err := client.Login(context.Background(), "ana@doces.com", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, api.CodeInvalidCredentials, api.ErrorCode(err))
}

func TestAuthenticatedRoutesRejectMissingToken(t *testing.T) {
	client, _ := newStub(t)

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	assert.Equal(t, api.CodeUnauthorized, api.ErrorCode(err))
}

func TestProductLifecycle(t *testing.T) {
	client, tokens := newStub(t)
	ctx := context.Background()
	signUp(t, client, tokens, "Ana", "ana@doces.com")

	created, err := client.CreateProduct(ctx, api.CreateProductInput{
		Name: "Bolo de cenoura", Description: "Com cobertura de chocolate", Price: 45,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive, "new products start active")

	newPrice := 49.9
	updated, err := client.UpdateProduct(ctx, created.ID, api.UpdateProductInput{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 49.9, updated.Price)

	toggled, err := client.ToggleProduct(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	products, err := client.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.False(t, products[0].IsActive)
}

func TestToggleUnknownProduct(t *testing.T) {
	client, tokens := newStub(t)
	signUp(t, client, tokens, "Ana", "ana@doces.com")

	_, err := client.ToggleProduct(context.Background(), "missing", false)
	require.Error(t, err)
	assert.Equal(t, api.CodeNotFound, api.ErrorCode(err))
}

func TestOrderSeedingAndStatus(t *testing.T) {
	client, tokens := newStub(t)
	ctx := context.Background()
	signUp(t, client, tokens, "Ana", "ana@doces.com")

	// Seeding requires at least one product.
	_, err := client.SeedRandomOrder(ctx)
	require.Error(t, err)

	_, err = client.CreateProduct(ctx, api.CreateProductInput{Name: "Brigadeiro", Description: "Cento", Price: 120})
	require.NoError(t, err)

	seeded, err := client.SeedRandomOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.OrderPending, seeded.Status)
	assert.InDelta(t, seeded.UnitPrice*float64(seeded.Quantity), seeded.TotalPrice, 0.001)

	fetched, err := client.GetOrder(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.OrderNumber, fetched.OrderNumber)

	confirmed, err := client.UpdateOrderStatus(ctx, seeded.ID, api.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, api.OrderConfirmed, confirmed.Status)

	orders, err := client.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, api.OrderConfirmed, orders[0].Status)
}

func TestOrderStatusValidation(t *testing.T) {
	client, tokens := newStub(t)
	ctx := context.Background()
	signUp(t, client, tokens, "Ana", "ana@doces.com")
	_, err := client.CreateProduct(ctx, api.CreateProductInput{Name: "Bolo", Description: "x", Price: 10})
	require.NoError(t, err)
	seeded, err := client.SeedRandomOrder(ctx)
	require.NoError(t, err)

	_, err = client.UpdateOrderStatus(ctx, seeded.ID, api.OrderStatus("shipped"))
	require.Error(t, err)
	assert.Equal(t, api.CodeValidation, api.ErrorCode(err))
}

func TestStoreUpdateAndSlugConflict(t *testing.T) {
	client, tokens := newStub(t)
	ctx := context.Background()
	signUp(t, client, tokens, "Ana", "ana@doces.com")
	firstToken := tokens.token

	// Second seller whose store will try to take the first seller's slug.
	signUp(t, client, tokens, "Beatriz", "bia@doces.com")

	slug := "Ana Souza" // normalizes to ana-souza, already taken
	_, err := client.UpdateStore(ctx, api.UpdateStorePayload{Slug: &slug})
	require.Error(t, err)
	assert.Equal(t, api.CodeDuplicateSlug, api.ErrorCode(err))

	// An unrelated partial update works and normalizes the slug.
	theme := "#FF5599"
	layout := api.LayoutList
	newSlug := "Doces da Bia!"
	updated, err := client.UpdateStore(ctx, api.UpdateStorePayload{
		Slug: &newSlug, ThemeColor: &theme, LayoutStyle: &layout,
	})
	require.NoError(t, err)
	assert.Equal(t, "doces-da-bia", updated.Slug)
	assert.Equal(t, "#FF5599", updated.ThemeColor)
	assert.Equal(t, api.LayoutList, updated.LayoutStyle)

	// The first seller's store is untouched.
	tokens.token = firstToken
	store, err := client.GetStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana-souza", store.Slug)
}
