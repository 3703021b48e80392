package orders

import "time"

type Product struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id"` // nil for orphaned listings
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	PictureURL  string    `json:"picture_url"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Order struct {
	ID         string      `json:"id"`
	BuyerID    *string     `json:"buyer_id"` // nil for manual/offline sales
	SellerID   string      `json:"seller_id"`
	TotalCents int64       `json:"total_cents"`
	Status     Status      `json:"status"`
	PaymentID  *string     `json:"payment_id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Items      []OrderItem `json:"items,omitempty"`
}

// OrderItem snapshots title and price at purchase time; it is never
// re-joined against the live product.
type OrderItem struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	ProductID  string `json:"product_id"`
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// ItemSnapshot is what the checkout layer hands the ledger after it has
// resolved title and price from the catalog.
type ItemSnapshot struct {
	ProductID  string
	Title      string
	Quantity   int
	PriceCents int64
}

// PaymentMethod is a seller's gateway credential, keyed (user_id, provider).
type PaymentMethod struct {
	UserID      string `json:"user_id"`
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token,omitempty"`
	PublicKey   string `json:"public_key,omitempty"`
	IsActive    bool   `json:"is_active"`
}

const ProviderMercadoPago = "MERCADOPAGO"
