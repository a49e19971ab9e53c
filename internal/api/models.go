package api

import "time"

// User is the seller account attached to the current session. The client never
// edits it directly; it only re-reads it after auth operations.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// AuthData is the login payload: a bearer token paired with the user it authorizes.
type AuthData struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Product is one catalog item owned by the seller's store.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateProductInput carries the fields a seller fills in when adding a product.
// The server is authoritative for the id and timestamps on the returned record.
type CreateProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	ImageBase64 string  `json:"imageBase64,omitempty"`
}

// UpdateProductInput is a partial product patch; nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	ImageBase64 *string  `json:"imageBase64,omitempty"`
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProduction OrderStatus = "production"
	OrderReady      OrderStatus = "ready"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatusLabels maps statuses to display names for list and detail output.
var OrderStatusLabels = map[OrderStatus]string{
	OrderPending:    "Aguardando confirmação",
	OrderConfirmed:  "Confirmado",
	OrderProduction: "Em produção",
	OrderReady:      "Pronto",
	OrderDelivered:  "Entregue",
	OrderCancelled:  "Cancelado",
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	_, ok := OrderStatusLabels[s]
	return ok
}

// Order is a customer order as the seller sees it. totalPrice is computed
// server-side; the client never recalculates it.
type Order struct {
	ID            string      `json:"id"`
	OrderNumber   string      `json:"orderNumber"`
	CustomerName  string      `json:"customerName"`
	CustomerPhone string      `json:"customerPhone"`
	ProductID     string      `json:"productId"`
	ProductName   string      `json:"productName"`
	Quantity      int         `json:"quantity"`
	UnitPrice     float64     `json:"unitPrice"`
	TotalPrice    float64     `json:"totalPrice"`
	DeliveryDate  string      `json:"deliveryDate"`
	DeliveryTime  string      `json:"deliveryTime"`
	Observations  string      `json:"observations,omitempty"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// DeliveryType is a fulfillment option the store offers.
type DeliveryType string

const (
	Delivery DeliveryType = "DELIVERY"
	Pickup   DeliveryType = "PICKUP"
)

// LayoutStyle selects how the public store page arranges products.
type LayoutStyle string

const (
	LayoutGrid LayoutStyle = "grid"
	LayoutList LayoutStyle = "list"
)

// Store is the seller's storefront settings singleton.
type Store struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	Slug                   string         `json:"slug"`
	Street                 string         `json:"street,omitempty"`
	Number                 string         `json:"number,omitempty"`
	Neighborhood           string         `json:"neighborhood,omitempty"`
	City                   string         `json:"city,omitempty"`
	State                  string         `json:"state,omitempty"`
	ZipCode                string         `json:"zipCode,omitempty"`
	Complement             string         `json:"complement,omitempty"`
	SupportedDeliveryTypes []DeliveryType `json:"supportedDeliveryTypes"`
	LogoURL                string         `json:"logoUrl,omitempty"`
	ThemeColor             string         `json:"themeColor,omitempty"`
	LayoutStyle            LayoutStyle    `json:"layoutStyle,omitempty"`
	FontFamily             string         `json:"fontFamily,omitempty"`
	CreatedAt              time.Time      `json:"createdAt"`
	UpdatedAt              time.Time      `json:"updatedAt"`
}

// UpdateStorePayload is the wholesale partial update sent to PATCH /store.
type UpdateStorePayload struct {
	Name                   *string        `json:"name,omitempty"`
	Slug                   *string        `json:"slug,omitempty"`
	Street                 *string        `json:"street,omitempty"`
	Number                 *string        `json:"number,omitempty"`
	Neighborhood           *string        `json:"neighborhood,omitempty"`
	City                   *string        `json:"city,omitempty"`
	State                  *string        `json:"state,omitempty"`
	ZipCode                *string        `json:"zipCode,omitempty"`
	Complement             *string        `json:"complement,omitempty"`
	SupportedDeliveryTypes []DeliveryType `json:"supportedDeliveryTypes,omitempty"`
	ThemeColor             *string        `json:"themeColor,omitempty"`
	LayoutStyle            *LayoutStyle   `json:"layoutStyle,omitempty"`
	FontFamily             *string        `json:"fontFamily,omitempty"`
	ImageBase64            *string        `json:"imageBase64,omitempty"`
}
