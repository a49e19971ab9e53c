package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/confeitapp/internal/api"
)

// Sentinel errors the HTTP layer maps to envelope codes.
var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrDuplicateSlug = errors.New("slug already in use")
	ErrNoProducts    = errors.New("store has no products to order")
)

// Store contains all persistence logic for the stub API.
type Store struct {
	db  *sql.DB
	rnd *rand.Rand
}

// NewStore wires a data store backed by SQLite.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:  db,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Init applies schema migrations for the stub database.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sellers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			phone TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tokens (
			token TEXT PRIMARY KEY,
			seller_id TEXT NOT NULL,
			issued_at TIMESTAMP NOT NULL,
			FOREIGN KEY(seller_id) REFERENCES sellers(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS stores (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			street TEXT, number TEXT, neighborhood TEXT, city TEXT,
			state TEXT, zip_code TEXT, complement TEXT,
			delivery_types TEXT NOT NULL,
			logo_url TEXT, theme_color TEXT, layout_style TEXT, font_family TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY(owner_id) REFERENCES sellers(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			store_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			price REAL NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY(store_id) REFERENCES stores(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_products_store ON products(store_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			store_id TEXT NOT NULL,
			order_number TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			customer_phone TEXT NOT NULL,
			product_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price REAL NOT NULL,
			total_price REAL NOT NULL,
			delivery_date TEXT NOT NULL,
			delivery_time TEXT NOT NULL,
			observations TEXT,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY(store_id) REFERENCES stores(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_store ON orders(store_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply stub schema: %w", err)
		}
	}
	return nil
}

// CreateSeller registers an account and its default store in one transaction.
func (s *Store) CreateSeller(ctx context.Context, name, email, passwordHash, phone string) (api.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return api.User{}, fmt.Errorf("begin register tx: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sellers WHERE email = ?`, email).Scan(&existing); err != nil {
		return api.User{}, fmt.Errorf("check email: %w", err)
	}
	if existing > 0 {
		return api.User{}, ErrEmailTaken
	}

	now := time.Now().UTC()
	seller := api.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: now,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sellers(id, name, email, password_hash, phone, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		seller.ID, seller.Name, seller.Email, passwordHash, seller.Phone, now); err != nil {
		return api.User{}, fmt.Errorf("insert seller: %w", err)
	}

	slug, err := s.uniqueSlug(ctx, tx, Slugify(name))
	if err != nil {
		return api.User{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stores(id, owner_id, name, slug, delivery_types, layout_style, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), seller.ID, name, slug, deliveryTypesJSON(api.Delivery, api.Pickup),
		string(api.LayoutGrid), now, now); err != nil {
		return api.User{}, fmt.Errorf("insert default store: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return api.User{}, fmt.Errorf("commit register tx: %w", err)
	}
	return seller, nil
}

func (s *Store) uniqueSlug(ctx context.Context, tx *sql.Tx, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM stores WHERE slug = ?`, slug).Scan(&count); err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// SellerByEmail returns the account and its password hash for login checks.
func (s *Store) SellerByEmail(ctx context.Context, email string) (api.User, string, error) {
	var (
		seller api.User
		hash   string
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, phone, created_at FROM sellers WHERE email = ?`, email)
	if err := row.Scan(&seller.ID, &seller.Name, &seller.Email, &hash, &seller.Phone, &seller.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.User{}, "", err
		}
		return api.User{}, "", fmt.Errorf("get seller by email: %w", err)
	}
	return seller, hash, nil
}

// IssueToken mints an opaque bearer token for the seller.
func (s *Store) IssueToken(ctx context.Context, sellerID string) (string, error) {
	token := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens(token, seller_id, issued_at) VALUES(?, ?, ?)`,
		token, sellerID, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// SellerByToken resolves a bearer token, returning sql.ErrNoRows for unknown tokens.
func (s *Store) SellerByToken(ctx context.Context, token string) (api.User, error) {
	var seller api.User
	row := s.db.QueryRowContext(ctx,
		`SELECT s.id, s.name, s.email, s.phone, s.created_at
		 FROM sellers s JOIN tokens t ON t.seller_id = s.id
		 WHERE t.token = ?`, token)
	if err := row.Scan(&seller.ID, &seller.Name, &seller.Email, &seller.Phone, &seller.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.User{}, err
		}
		return api.User{}, fmt.Errorf("get seller by token: %w", err)
	}
	return seller, nil
}

const storeColumns = `id, owner_id, name, slug, street, number, neighborhood, city, state,
	zip_code, complement, delivery_types, logo_url, theme_color, layout_style, font_family,
	created_at, updated_at`

func scanStore(row *sql.Row) (api.Store, error) {
	var (
		st                                                   api.Store
		ownerID, deliveryTypes                               string
		street, number, neighborhood, city, state            sql.NullString
		zipCode, complement, logoURL, themeColor, fontFamily sql.NullString
		layoutStyle                                          sql.NullString
	)
	err := row.Scan(&st.ID, &ownerID, &st.Name, &st.Slug, &street, &number, &neighborhood,
		&city, &state, &zipCode, &complement, &deliveryTypes, &logoURL, &themeColor,
		&layoutStyle, &fontFamily, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return api.Store{}, err
	}
	st.Street = street.String
	st.Number = number.String
	st.Neighborhood = neighborhood.String
	st.City = city.String
	st.State = state.String
	st.ZipCode = zipCode.String
	st.Complement = complement.String
	st.LogoURL = logoURL.String
	st.ThemeColor = themeColor.String
	st.LayoutStyle = api.LayoutStyle(layoutStyle.String)
	st.FontFamily = fontFamily.String
	if err := json.Unmarshal([]byte(deliveryTypes), &st.SupportedDeliveryTypes); err != nil {
		return api.Store{}, fmt.Errorf("decode delivery types: %w", err)
	}
	return st, nil
}

// StoreByOwner fetches the seller's storefront singleton.
func (s *Store) StoreByOwner(ctx context.Context, ownerID string) (api.Store, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+storeColumns+` FROM stores WHERE owner_id = ?`, ownerID)
	st, err := scanStore(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.Store{}, err
		}
		return api.Store{}, fmt.Errorf("get store: %w", err)
	}
	return st, nil
}

// UpdateStore applies a partial payload to the owner's store. A slug that
// normalizes to another store's slug returns ErrDuplicateSlug.
func (s *Store) UpdateStore(ctx context.Context, ownerID string, payload api.UpdateStorePayload) (api.Store, error) {
	current, err := s.StoreByOwner(ctx, ownerID)
	if err != nil {
		return api.Store{}, err
	}

	if payload.Name != nil {
		current.Name = *payload.Name
	}
	if payload.Slug != nil {
		normalized := Slugify(*payload.Slug)
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM stores WHERE slug = ? AND id != ?`, normalized, current.ID).Scan(&count); err != nil {
			return api.Store{}, fmt.Errorf("check slug: %w", err)
		}
		if count > 0 {
			return api.Store{}, ErrDuplicateSlug
		}
		current.Slug = normalized
	}
	if payload.Street != nil {
		current.Street = *payload.Street
	}
	if payload.Number != nil {
		current.Number = *payload.Number
	}
	if payload.Neighborhood != nil {
		current.Neighborhood = *payload.Neighborhood
	}
	if payload.City != nil {
		current.City = *payload.City
	}
	if payload.State != nil {
		current.State = *payload.State
	}
	if payload.ZipCode != nil {
		current.ZipCode = *payload.ZipCode
	}
	if payload.Complement != nil {
		current.Complement = *payload.Complement
	}
	if len(payload.SupportedDeliveryTypes) > 0 {
		current.SupportedDeliveryTypes = payload.SupportedDeliveryTypes
	}
	if payload.ThemeColor != nil {
		current.ThemeColor = *payload.ThemeColor
	}
	if payload.LayoutStyle != nil {
		current.LayoutStyle = *payload.LayoutStyle
	}
	if payload.FontFamily != nil {
		current.FontFamily = *payload.FontFamily
	}
	if payload.ImageBase64 != nil && *payload.ImageBase64 != "" {
		// The stub does not keep image bytes; it assigns a synthetic URL.
		current.LogoURL = "/uploads/logos/" + uuid.NewString() + ".png"
	}
	current.UpdatedAt = time.Now().UTC()

	if _, err := s.db.ExecContext(ctx,
		`UPDATE stores SET name = ?, slug = ?, street = ?, number = ?, neighborhood = ?,
			city = ?, state = ?, zip_code = ?, complement = ?, delivery_types = ?,
			logo_url = ?, theme_color = ?, layout_style = ?, font_family = ?, updated_at = ?
		 WHERE id = ?`,
		current.Name, current.Slug, current.Street, current.Number, current.Neighborhood,
		current.City, current.State, current.ZipCode, current.Complement,
		deliveryTypesJSON(current.SupportedDeliveryTypes...), current.LogoURL,
		current.ThemeColor, string(current.LayoutStyle), current.FontFamily,
		current.UpdatedAt, current.ID); err != nil {
		return api.Store{}, fmt.Errorf("update store: %w", err)
	}
	return current, nil
}

func deliveryTypesJSON(types ...api.DeliveryType) string {
	encoded, _ := json.Marshal(types)
	return string(encoded)
}

const productColumns = `id, name, description, price, image_url, is_active, created_at, updated_at`

// ListProducts returns the store's catalog, newest first.
func (s *Store) ListProducts(ctx context.Context, storeID string) ([]api.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE store_id = ? ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []api.Product
	for rows.Next() {
		var p api.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter products: %w", err)
	}
	return products, nil
}

// GetProduct fetches one product scoped to the store.
func (s *Store) GetProduct(ctx context.Context, storeID, id string) (api.Product, error) {
	var p api.Product
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE store_id = ? AND id = ?`, storeID, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.Product{}, err
		}
		return api.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// CreateProduct inserts a catalog item with server-assigned id and timestamps.
func (s *Store) CreateProduct(ctx context.Context, storeID string, input api.CreateProductInput) (api.Product, error) {
	now := time.Now().UTC()
	p := api.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.ImageBase64 != "" {
		p.ImageURL = "/uploads/products/" + p.ID + ".png"
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO products(id, store_id, name, description, price, image_url, is_active, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, storeID, p.Name, p.Description, p.Price, p.ImageURL, p.IsActive, p.CreatedAt, p.UpdatedAt); err != nil {
		return api.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// UpdateProduct applies a partial patch and returns the updated record.
func (s *Store) UpdateProduct(ctx context.Context, storeID, id string, input api.UpdateProductInput) (api.Product, error) {
	p, err := s.GetProduct(ctx, storeID, id)
	if err != nil {
		return api.Product{}, err
	}
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.ImageBase64 != nil && *input.ImageBase64 != "" {
		p.ImageURL = "/uploads/products/" + p.ID + ".png"
	}
	p.UpdatedAt = time.Now().UTC()

	if _, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price = ?, image_url = ?, updated_at = ?
		 WHERE store_id = ? AND id = ?`,
		p.Name, p.Description, p.Price, p.ImageURL, p.UpdatedAt, storeID, id); err != nil {
		return api.Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// ToggleProduct sets the active flag and returns the updated record.
func (s *Store) ToggleProduct(ctx context.Context, storeID, id string, active bool) (api.Product, error) {
	p, err := s.GetProduct(ctx, storeID, id)
	if err != nil {
		return api.Product{}, err
	}
	p.IsActive = active
	p.UpdatedAt = time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE products SET is_active = ?, updated_at = ? WHERE store_id = ? AND id = ?`,
		p.IsActive, p.UpdatedAt, storeID, id); err != nil {
		return api.Product{}, fmt.Errorf("toggle product: %w", err)
	}
	return p, nil
}

const orderColumns = `id, order_number, customer_name, customer_phone, product_id, product_name,
	quantity, unit_price, total_price, delivery_date, delivery_time, observations, status,
	created_at, updated_at`

func scanOrder(scan func(dest ...any) error) (api.Order, error) {
	var (
		o            api.Order
		observations sql.NullString
	)
	err := scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone, &o.ProductID,
		&o.ProductName, &o.Quantity, &o.UnitPrice, &o.TotalPrice, &o.DeliveryDate,
		&o.DeliveryTime, &observations, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return api.Order{}, err
	}
	o.Observations = observations.String
	return o, nil
}

// ListOrders returns all orders for the store. The stub intentionally returns
// them in insertion order; the client owns the newest-first presentation sort.
func (s *Store) ListOrders(ctx context.Context, storeID string) ([]api.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE store_id = ?`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []api.Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter orders: %w", err)
	}
	return orders, nil
}

// GetOrder fetches one order scoped to the store.
func (s *Store) GetOrder(ctx context.Context, storeID, id string) (api.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE store_id = ? AND id = ?`, storeID, id)
	o, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.Order{}, err
		}
		return api.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// UpdateOrderStatus moves an order to a new state and returns the record.
func (s *Store) UpdateOrderStatus(ctx context.Context, storeID, id string, status api.OrderStatus) (api.Order, error) {
	o, err := s.GetOrder(ctx, storeID, id)
	if err != nil {
		return api.Order{}, err
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE store_id = ? AND id = ?`,
		o.Status, o.UpdatedAt, storeID, id); err != nil {
		return api.Order{}, fmt.Errorf("update order status: %w", err)
	}
	return o, nil
}

var (
	randomCustomers = []string{"Ana Souza", "Bruno Lima", "Carla Mendes", "Diego Alves", "Elisa Rocha"}
	randomTimes     = []string{"09:00", "11:30", "14:00", "16:30", "18:00"}
	randomNotes     = []string{"", "Sem lactose, por favor.", "Entregar na portaria.", "Escrever 'Parabéns' no topo."}
)

// CreateRandomOrder seeds one plausible order against a random product of the
// store. Creation times are scattered into the past so the newest-first sort
// in the client is observable.
func (s *Store) CreateRandomOrder(ctx context.Context, storeID string) (api.Order, error) {
	products, err := s.ListProducts(ctx, storeID)
	if err != nil {
		return api.Order{}, err
	}
	if len(products) == 0 {
		return api.Order{}, ErrNoProducts
	}
	product := products[s.rnd.Intn(len(products))]

	quantity := 1 + s.rnd.Intn(5)
	createdAt := time.Now().UTC().Add(-time.Duration(s.rnd.Intn(72)) * time.Hour)
	o := api.Order{
		ID:            uuid.NewString(),
		OrderNumber:   fmt.Sprintf("PED-%06d", s.rnd.Intn(1_000_000)),
		CustomerName:  randomCustomers[s.rnd.Intn(len(randomCustomers))],
		CustomerPhone: fmt.Sprintf("5511%08d", s.rnd.Intn(100_000_000)),
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      quantity,
		UnitPrice:     product.Price,
		TotalPrice:    product.Price * float64(quantity),
		DeliveryDate:  createdAt.Add(96 * time.Hour).Format("2006-01-02"),
		DeliveryTime:  randomTimes[s.rnd.Intn(len(randomTimes))],
		Observations:  randomNotes[s.rnd.Intn(len(randomNotes))],
		Status:        api.OrderPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO orders(id, store_id, order_number, customer_name, customer_phone, product_id,
			product_name, quantity, unit_price, total_price, delivery_date, delivery_time,
			observations, status, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, storeID, o.OrderNumber, o.CustomerName, o.CustomerPhone, o.ProductID,
		o.ProductName, o.Quantity, o.UnitPrice, o.TotalPrice, o.DeliveryDate, o.DeliveryTime,
		nullIfEmpty(o.Observations), o.Status, o.CreatedAt, o.UpdatedAt); err != nil {
		return api.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

func nullIfEmpty(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
