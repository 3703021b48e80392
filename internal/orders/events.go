package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderApproved = "OrderApproved"
	EventManualSale    = "ManualSaleRecorded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderApprovedPayload struct {
	OrderID    string   `json:"order_id"`
	SellerID   string   `json:"seller_id"`
	BuyerID    *string  `json:"buyer_id,omitempty"`
	ItemTitles []string `json:"item_titles"`
	TotalCents int64    `json:"total_cents"`
}

type ManualSalePayload struct {
	OrderID     string `json:"order_id"`
	SellerID    string `json:"seller_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
}
