package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/feriapp/marketplace-api/internal/kafka"
	"github.com/feriapp/marketplace-api/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type insertedRow struct {
	userID  string
	typeID  int32
	message string
}

type fakeStore struct {
	types    map[string]int32
	inserts  []insertedRow
	failUser string
	failErr  error
}

func (f *fakeStore) TypeIDByName(ctx context.Context, name string) (int32, bool, error) {
	id, ok := f.types[name]
	return id, ok, nil
}

func (f *fakeStore) Insert(ctx context.Context, userID string, typeID int32, message string, relatedID *string) error {
	if f.failUser != "" && userID == f.failUser {
		return f.failErr
	}
	f.inserts = append(f.inserts, insertedRow{userID, typeID, message})
	return nil
}

type memDeduper struct{ seen map[string]bool }

func (d *memDeduper) Seen(ctx context.Context, eventID string) bool { return d.seen[eventID] }
func (d *memDeduper) Mark(ctx context.Context, eventID string)      { d.seen[eventID] = true }

func newDispatcher() (*Dispatcher, *fakeStore) {
	store := &fakeStore{types: map[string]int32{
		TypeSale: 1, TypeBuy: 2, TypeManualSale: 3,
	}}
	return &Dispatcher{
		Store: store,
		Dedup: &memDeduper{seen: map[string]bool{}},
		Log:   zap.NewNop(),
	}, store
}

func approvedMessage(eventID string, buyerID *string) kafkago.Message {
	env := orders.Envelope{
		EventID:       eventID,
		EventType:     orders.EventOrderApproved,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      "test",
		CorrelationID: "ord-1",
		Payload: kafka.MustMarshal(orders.OrderApprovedPayload{
			OrderID:    "ord-1",
			SellerID:   "seller-1",
			BuyerID:    buyerID,
			ItemTitles: []string{"Bici usada"},
			TotalCents: 2000,
		}),
	}
	return kafkago.Message{Value: kafka.MustMarshal(env)}
}

func TestOrderApprovedNotifiesSellerAndBuyer(t *testing.T) {
	d, store := newDispatcher()
	buyer := "buyer-1"

	if err := d.HandleOrderApproved(context.Background(), approvedMessage("ev-1", &buyer)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.inserts) != 2 {
		t.Fatalf("notifications = %d, want 2", len(store.inserts))
	}
	if store.inserts[0].userID != "seller-1" || store.inserts[0].typeID != 1 {
		t.Errorf("seller notification = %+v", store.inserts[0])
	}
	if store.inserts[1].userID != "buyer-1" || store.inserts[1].typeID != 2 {
		t.Errorf("buyer notification = %+v", store.inserts[1])
	}
}

func TestOrderApprovedWithoutBuyerNotifiesSellerOnly(t *testing.T) {
	d, store := newDispatcher()

	if err := d.HandleOrderApproved(context.Background(), approvedMessage("ev-1", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.inserts) != 1 {
		t.Fatalf("notifications = %d, want 1", len(store.inserts))
	}
	if store.inserts[0].userID != "seller-1" {
		t.Errorf("notification = %+v", store.inserts[0])
	}
}

func TestOrderApprovedDuplicateDeliveryIsSkipped(t *testing.T) {
	d, store := newDispatcher()
	buyer := "buyer-1"
	msg := approvedMessage("ev-dup", &buyer)

	if err := d.HandleOrderApproved(context.Background(), msg); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := d.HandleOrderApproved(context.Background(), msg); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if len(store.inserts) != 2 {
		t.Fatalf("notifications = %d, want 2 (redelivery must not duplicate)", len(store.inserts))
	}
}

func TestOrderApprovedPartialFailureRetriesOnlyTheFailedInsert(t *testing.T) {
	d, store := newDispatcher()
	buyer := "buyer-1"
	msg := approvedMessage("ev-part", &buyer)

	store.failUser, store.failErr = "buyer-1", errors.New("insert: connection reset")
	if err := d.HandleOrderApproved(context.Background(), msg); err == nil {
		t.Fatal("expected the buyer insert failure to surface")
	}
	if len(store.inserts) != 1 || store.inserts[0].userID != "seller-1" {
		t.Fatalf("inserts after failure = %+v, want seller only", store.inserts)
	}

	store.failUser = ""
	if err := d.HandleOrderApproved(context.Background(), msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(store.inserts) != 2 {
		t.Fatalf("inserts after redelivery = %d, want 2", len(store.inserts))
	}
	if store.inserts[1].userID != "buyer-1" {
		t.Errorf("redelivery must only add the buyer notification, got %+v", store.inserts[1])
	}
}

func TestManualSaleNotifiesSeller(t *testing.T) {
	d, store := newDispatcher()
	env := orders.Envelope{
		EventID:      "ev-2",
		EventType:    orders.EventManualSale,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Payload: kafka.MustMarshal(orders.ManualSalePayload{
			OrderID:     "ord-7",
			SellerID:    "seller-2",
			ProductID:   "prod-3",
			ProductName: "Silla de madera",
		}),
	}

	if err := d.HandleManualSale(context.Background(), kafkago.Message{Value: kafka.MustMarshal(env)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.inserts) != 1 {
		t.Fatalf("notifications = %d, want 1", len(store.inserts))
	}
	if store.inserts[0].userID != "seller-2" || store.inserts[0].typeID != 3 {
		t.Errorf("notification = %+v", store.inserts[0])
	}
}

func TestNotifyUnknownTypeIsNoOp(t *testing.T) {
	d, store := newDispatcher()

	if err := d.Notify(context.Background(), "user-1", "no-such-type", "hola", nil); err != nil {
		t.Fatalf("unknown type must not fail: %v", err)
	}
	if len(store.inserts) != 0 {
		t.Fatalf("notifications = %d, want 0", len(store.inserts))
	}
}

func TestForeignEventTypeIsIgnored(t *testing.T) {
	d, store := newDispatcher()
	env := orders.Envelope{
		EventID:   "ev-3",
		EventType: "SomethingElse",
		Payload:   kafka.MustMarshal(map[string]string{}),
	}

	if err := d.HandleOrderApproved(context.Background(), kafkago.Message{Value: kafka.MustMarshal(env)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.inserts) != 0 {
		t.Fatal("foreign event types must be ignored")
	}
}
