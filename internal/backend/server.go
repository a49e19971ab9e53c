// Package backend is a development stand-in for the ConfeitApp REST API. It
// speaks the production envelope and error codes so the client core can be
// exercised end to end against a local SQLite database.
package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"example.com/confeitapp/internal/api"
)

// Server exposes the stub HTTP API.
type Server struct {
	store  *Store
	logger *slog.Logger
}

// NewServer builds a server backed by the provided store.
func NewServer(store *Store, logger *slog.Logger) *Server {
	return &Server{store: store, logger: logger}
}

// Router wires all routes under the /api prefix the client expects.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)

			r.Get("/products", s.handleListProducts)
			r.Post("/products", s.handleCreateProduct)
			r.Put("/products/{productID}", s.handleUpdateProduct)
			r.Patch("/products/{productID}", s.handleUpdateProduct)
			r.Patch("/products/{productID}/toggle", s.handleToggleProduct)

			r.Get("/orders", s.handleListOrders)
			r.Get("/orders/{orderID}", s.handleGetOrder)
			r.Patch("/orders/{orderID}/status", s.handleOrderStatus)

			r.Get("/store", s.handleGetStore)
			r.Patch("/store", s.handleUpdateStore)

			// Seed helper so the feed has data in development.
			r.Post("/dev/orders/random", s.handleRandomOrder)
		})
	})

	return r
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeFail(w, http.StatusBadRequest, "JSON inválido.", api.CodeValidation)
		return
	}
	if strings.TrimSpace(payload.Name) == "" || strings.TrimSpace(payload.Email) == "" ||
		len(payload.Password) < 8 || strings.TrimSpace(payload.Phone) == "" {
		writeFail(w, http.StatusBadRequest, "name, email, password (mín. 8) e phone são obrigatórios.", api.CodeValidation)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, "Falha ao registrar.", "")
		return
	}
	seller, err := s.store.CreateSeller(r.Context(), payload.Name, strings.ToLower(payload.Email), string(hash), payload.Phone)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeFail(w, http.StatusConflict, "Este email já está cadastrado.", api.CodeEmailTaken)
			return
		}
		s.logger.Error("register failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Falha ao registrar.", "")
		return
	}
	s.logger.Info("seller registered", "seller_id", seller.ID, "email", seller.Email)
	writeData(w, http.StatusCreated, seller)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeFail(w, http.StatusBadRequest, "JSON inválido.", api.CodeValidation)
		return
	}

	seller, hash, err := s.store.SellerByEmail(r.Context(), strings.ToLower(payload.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeFail(w, http.StatusUnauthorized, "Email ou senha incorretos.", api.CodeInvalidCredentials)
			return
		}
		s.logger.Error("login lookup failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Falha ao entrar.", "")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(payload.Password)) != nil {
		writeFail(w, http.StatusUnauthorized, "Email ou senha incorretos.", api.CodeInvalidCredentials)
		return
	}

	token, err := s.store.IssueToken(r.Context(), seller.ID)
	if err != nil {
		s.logger.Error("issue token failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Falha ao entrar.", "")
		return
	}
	writeData(w, http.StatusOK, api.AuthData{Token: token, User: seller})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ownStore(w, r)
	if !ok {
		return
	}
	products, err := s.store.ListProducts(r.Context(), store.ID)
	if err != nil {
		s.logger.Error("list products failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Não foi possível carregar os produtos.", "")
		return
	}
	if products == nil {
		products = []api.Product{}
	}
	writeData(w, http.StatusOK, products)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ownStore(w, r)
	if !ok {
		return
	}
	var input api.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeFail(w, http.StatusBadRequest, "JSON inválido.", api.CodeValidation)
		return
	}
	if strings.TrimSpace(input.Name) == "" || input.Price < 0 {
		writeFail(w, http.StatusBadRequest, "name é obrigatório e price deve ser >= 0.", api.CodeValidation)
		return
	}
	product, err := s.store.CreateProduct(r.Context(), store.ID, input)
	if err != nil {
		s.logger.Error("create product failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Falha ao criar o produto.", "")
		return
	}
	writeData(w, http.StatusCreated, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ownStore(w, r)
	if !ok {
		return
	}
	var input api.UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeFail(w, http.StatusBadRequest, "JSON inválido.", api.CodeValidation)
		return
	}
	if input.Price != nil && *input.Price < 0 {
		writeFail(w, http.StatusBadRequest, "price deve ser >= 0.", api.CodeValidation)
		return
	}
	product, err := s.store.UpdateProduct(r.Context(), store.ID, chi.URLParam(r, "productID"), input)
	if err != nil {
		s.productError(w, err, "Falha ao atualizar o produto.")
		return
	}
	writeData(w, http.StatusOK, product)
}

func (s *Server) handleToggleProduct(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ownStore(w, r)
	if !ok {
		return
	}
	var payload struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeFail(w, http.StatusBadRequest, "JSON inválido.", api.CodeValidation)
		return
	}
	product, err := s.store.ToggleProduct(r.Context(), store.ID, chi.URLParam(r, "productID"), payload.IsActive)
	if err != nil {
		s.productError(w, err, "Não foi possível atualizar o status.")
		return
	}
	writeData(w, http.StatusOK, product)
}

func (s *Server) productError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, sql.ErrNoRows) {
		writeFail(w, http.StatusNotFound, "Produto não encontrado.", api.CodeNotFound)
		return
	}
	s.logger.Error("product operation failed", "error", err)
	writeFail(w, http.StatusInternalServerError, fallback, "")
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ownStore(w, r)
	if !ok {
		return
	}
	orders, err := s.store.ListOrders(r.Context(), store.ID)
	if err != nil {
		s.logger.Error("list orders failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Não foi possível carregar os pedidos.", "")
		return
	}
	if orders == nil {
		orders = []api.Order{}
	}
	writeData(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ownStore(w, r)
	if !ok {
		return
	}
	order, err := s.store.GetOrder(r.Context(), store.ID, chi.URLParam(r, "orderID"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeFail(w, http.StatusNotFound, "Pedido não encontrado.", api.CodeNotFound)
			return
		}
		s.logger.Error("get order failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Não foi possível carregar o pedido.", "")
		return
	}
	writeData(w, http.StatusOK, order)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ownStore(w, r)
	if !ok {
		return
	}
	var payload struct {
		Status api.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeFail(w, http.StatusBadRequest, "JSON inválido.", api.CodeValidation)
		return
	}
	if !payload.Status.Valid() {
		writeFail(w, http.StatusBadRequest, fmt.Sprintf("status %q inválido.", payload.Status), api.CodeValidation)
		return
	}
	order, err := s.store.UpdateOrderStatus(r.Context(), store.ID, chi.URLParam(r, "orderID"), payload.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeFail(w, http.StatusNotFound, "Pedido não encontrado.", api.CodeNotFound)
			return
		}
		s.logger.Error("update order status failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Não foi possível atualizar o status do pedido.", "")
		return
	}
	writeData(w, http.StatusOK, order)
}

func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ownStore(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, store)
}

func (s *Server) handleUpdateStore(w http.ResponseWriter, r *http.Request) {
	seller := s.sellerFromContext(r.Context())
	var payload api.UpdateStorePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeFail(w, http.StatusBadRequest, "JSON inválido.", api.CodeValidation)
		return
	}
	for _, dt := range payload.SupportedDeliveryTypes {
		if dt != api.Delivery && dt != api.Pickup {
			writeFail(w, http.StatusBadRequest, fmt.Sprintf("tipo de entrega %q inválido.", dt), api.CodeValidation)
			return
		}
	}
	store, err := s.store.UpdateStore(r.Context(), seller.ID, payload)
	if err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			writeFail(w, http.StatusConflict, "Este endereço de loja já está em uso.", api.CodeDuplicateSlug)
			return
		}
		s.logger.Error("update store failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Não foi possível atualizar a loja.", "")
		return
	}
	writeData(w, http.StatusOK, store)
}

func (s *Server) handleRandomOrder(w http.ResponseWriter, r *http.Request) {
	store, ok := s.ownStore(w, r)
	if !ok {
		return
	}
	order, err := s.store.CreateRandomOrder(r.Context(), store.ID)
	if err != nil {
		if errors.Is(err, ErrNoProducts) {
			writeFail(w, http.StatusBadRequest, "Cadastre um produto antes de gerar pedidos.", api.CodeValidation)
			return
		}
		s.logger.Error("seed order failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Falha ao gerar pedido.", "")
		return
	}
	writeData(w, http.StatusCreated, order)
}

// requireToken resolves the bearer token into the owning seller for all
// authenticated routes.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeFail(w, http.StatusUnauthorized, "Autenticação necessária.", api.CodeUnauthorized)
			return
		}
		seller, err := s.store.SellerByToken(r.Context(), strings.TrimSpace(token))
		if err != nil {
			writeFail(w, http.StatusUnauthorized, "Sessão inválida ou expirada.", api.CodeUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), sellerContextKey{}, seller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) sellerFromContext(ctx context.Context) api.User {
	return ctx.Value(sellerContextKey{}).(api.User)
}

// ownStore loads the authenticated seller's store, writing the failure itself.
func (s *Server) ownStore(w http.ResponseWriter, r *http.Request) (api.Store, bool) {
	seller := s.sellerFromContext(r.Context())
	store, err := s.store.StoreByOwner(r.Context(), seller.ID)
	if err != nil {
		s.logger.Error("load store failed", "seller_id", seller.ID, "error", err)
		writeFail(w, http.StatusInternalServerError, "Não foi possível carregar a loja.", "")
		return api.Store{}, false
	}
	return store, true
}

type sellerContextKey struct{}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeFail(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := map[string]any{"success": false, "error": message}
	if code != "" {
		payload["code"] = code
	}
	_ = json.NewEncoder(w).Encode(payload)
}
