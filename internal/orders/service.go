package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/feriapp/marketplace-api/internal/kafka"
	"github.com/feriapp/marketplace-api/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Store is the slice of the repository the ledger needs.
type Store interface {
	Confirm(ctx context.Context, orderID, paymentID string, target Status) (Order, bool, error)
	MarkSold(ctx context.Context, sellerID, productID string) (Order, error)
}

// EventPublisher matches the async kafka producer.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Ledger owns order state transitions and emits the events that drive
// notification fan-out. Event publishing is best-effort: the database write
// is authoritative and a lost event never rolls it back.
type Ledger struct {
	Store    Store
	Approved EventPublisher // orders.approved
	Manual   EventPublisher // orders.manual-sale
	Redis    *redis.Client
	Log      *zap.Logger
	Service  string
}

// ConfirmFromCallback applies a gateway payment callback to an order.
func (l *Ledger) ConfirmFromCallback(ctx context.Context, orderID, paymentID, providerStatus string) (Order, error) {
	target := StatusFromProvider(providerStatus)
	o, changed, err := l.Store.Confirm(ctx, orderID, paymentID, target)
	if err != nil {
		return Order{}, err
	}

	l.cacheStatus(ctx, o)

	if changed && o.Status == StatusApproved {
		l.publish(l.Approved, EventOrderApproved, o.ID, OrderApprovedPayload{
			OrderID:    o.ID,
			SellerID:   o.SellerID,
			BuyerID:    o.BuyerID,
			ItemTitles: itemTitles(o.Items),
			TotalCents: o.TotalCents,
		})
	}
	return o, nil
}

// RecordManualSale registers a sale closed outside the platform.
func (l *Ledger) RecordManualSale(ctx context.Context, sellerID, productID string) (Order, error) {
	o, err := l.Store.MarkSold(ctx, sellerID, productID)
	if err != nil {
		return Order{}, err
	}

	l.cacheStatus(ctx, o)

	name := ""
	if len(o.Items) > 0 {
		name = o.Items[0].Title
	}
	l.publish(l.Manual, EventManualSale, o.ID, ManualSalePayload{
		OrderID:     o.ID,
		SellerID:    o.SellerID,
		ProductID:   productID,
		ProductName: name,
	})
	return o, nil
}

func (l *Ledger) publish(p EventPublisher, eventType, orderID string, payload any) {
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      l.Service,
		CorrelationID: orderID,
		Payload:       kafka.MustMarshal(payload),
	}
	p.Publish(PartitionKey(orderID), kafka.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (l *Ledger) cacheStatus(ctx context.Context, o Order) {
	if l.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body := fmt.Sprintf(`{"status":%q}`, o.Status)
	if err := l.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil && l.Log != nil {
		l.Log.Warn("status cache set failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func itemTitles(items []OrderItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}
