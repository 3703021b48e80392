package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/feriapp/marketplace-api/internal/kafka"
	"github.com/feriapp/marketplace-api/internal/orders"
	"github.com/feriapp/marketplace-api/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Store is what the dispatcher needs from the notifications repository.
type Store interface {
	TypeIDByName(ctx context.Context, name string) (int32, bool, error)
	Insert(ctx context.Context, userID string, typeID int32, message string, relatedID *string) error
}

// Deduper remembers processed event ids so redelivered Kafka messages do not
// produce duplicate notifications.
type Deduper interface {
	Seen(ctx context.Context, eventID string) bool
	Mark(ctx context.Context, eventID string)
}

type RedisDeduper struct {
	R       *redis.Client
	Service string
}

func (d *RedisDeduper) Seen(ctx context.Context, eventID string) bool {
	ok, _ := redisx.Exists(ctx, d.R, fmt.Sprintf(redisx.KeyDedup, d.Service, eventID))
	return ok
}

func (d *RedisDeduper) Mark(ctx context.Context, eventID string) {
	_ = d.R.Set(ctx, fmt.Sprintf(redisx.KeyDedup, d.Service, eventID), "1", redisx.TTLDedup).Err()
}

// Dispatcher records user-facing notifications from order events. Failures
// here are its own problem: nothing it does can roll back an order.
type Dispatcher struct {
	Store Store
	Dedup Deduper
	Log   *zap.Logger
}

// Notify looks up the type by name and records one notification. An unknown
// type name is a logged no-op, never an error.
func (d *Dispatcher) Notify(ctx context.Context, userID, typeName, message string, relatedID *string) error {
	typeID, ok, err := d.Store.TypeIDByName(ctx, typeName)
	if err != nil {
		return err
	}
	if !ok {
		d.Log.Error("notification type not found", zap.String("type", typeName))
		return nil
	}
	return d.Store.Insert(ctx, userID, typeID, message, relatedID)
}

// HandleOrderApproved notifies the seller ("sale") and, when the order has a
// buyer, the buyer ("buy").
func (d *Dispatcher) HandleOrderApproved(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderApproved {
		return nil
	}

	p, err := kafka.UnwrapPayload[orders.OrderApprovedPayload](env.Payload)
	if err != nil {
		return err
	}

	// dedup per recipient: a redelivery after a partial failure must only
	// retry the insert that failed
	titles := strings.Join(p.ItemTitles, ", ")
	sellerKey := env.EventID + ":seller"
	if !d.skip(ctx, sellerKey) {
		if err := d.Notify(ctx, p.SellerID, TypeSale,
			fmt.Sprintf("Has vendido %q por MercadoPago.", titles), &p.OrderID); err != nil {
			return err
		}
		d.mark(ctx, sellerKey)
	}
	if p.BuyerID != nil {
		buyerKey := env.EventID + ":buyer"
		if !d.skip(ctx, buyerKey) {
			if err := d.Notify(ctx, *p.BuyerID, TypeBuy,
				fmt.Sprintf("Has comprado %q.", titles), &p.OrderID); err != nil {
				return err
			}
			d.mark(ctx, buyerKey)
		}
	}
	return nil
}

// HandleManualSale notifies the seller that their offline sale was recorded.
func (d *Dispatcher) HandleManualSale(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventManualSale {
		return nil
	}
	if d.skip(ctx, env.EventID) {
		return nil
	}

	p, err := kafka.UnwrapPayload[orders.ManualSalePayload](env.Payload)
	if err != nil {
		return err
	}

	if err := d.Notify(ctx, p.SellerID, TypeManualSale,
		fmt.Sprintf("Registraste la venta de %q fuera de la plataforma.", p.ProductName), &p.OrderID); err != nil {
		return err
	}
	d.mark(ctx, env.EventID)
	return nil
}

func (d *Dispatcher) skip(ctx context.Context, eventID string) bool {
	return d.Dedup != nil && d.Dedup.Seen(ctx, eventID)
}

func (d *Dispatcher) mark(ctx context.Context, eventID string) {
	if d.Dedup != nil {
		d.Dedup.Mark(ctx, eventID)
	}
}
