package orders

import (
	"context"
	"encoding/json"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeStore struct {
	confirmOrder   Order
	confirmChanged bool
	confirmErr     error

	markSoldOrder Order
	markSoldErr   error
}

func (f *fakeStore) Confirm(ctx context.Context, orderID, paymentID string, target Status) (Order, bool, error) {
	return f.confirmOrder, f.confirmChanged, f.confirmErr
}

func (f *fakeStore) MarkSold(ctx context.Context, sellerID, productID string) (Order, error) {
	return f.markSoldOrder, f.markSoldErr
}

type fakePublisher struct {
	values [][]byte
}

func (f *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	f.values = append(f.values, value)
}

func newLedger(store *fakeStore) (*Ledger, *fakePublisher, *fakePublisher) {
	approved := &fakePublisher{}
	manual := &fakePublisher{}
	return &Ledger{
		Store:    store,
		Approved: approved,
		Manual:   manual,
		Log:      zap.NewNop(),
		Service:  "test",
	}, approved, manual
}

func TestConfirmPublishesOnApproval(t *testing.T) {
	buyer := "buyer-1"
	store := &fakeStore{
		confirmOrder: Order{
			ID:         "ord-1",
			BuyerID:    &buyer,
			SellerID:   "seller-1",
			Status:     StatusApproved,
			TotalCents: 2000,
			Items:      []OrderItem{{Title: "Bici usada", Quantity: 2, PriceCents: 1000}},
		},
		confirmChanged: true,
	}
	l, approved, manual := newLedger(store)

	o, err := l.ConfirmFromCallback(context.Background(), "ord-1", "pay-9", "approved")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusApproved {
		t.Fatalf("status = %s, want APPROVED", o.Status)
	}
	if len(approved.values) != 1 {
		t.Fatalf("approved events = %d, want 1", len(approved.values))
	}
	if len(manual.values) != 0 {
		t.Fatalf("manual events = %d, want 0", len(manual.values))
	}

	var env Envelope
	if err := json.Unmarshal(approved.values[0], &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.EventType != EventOrderApproved {
		t.Errorf("event type = %s", env.EventType)
	}
	if env.CorrelationID != "ord-1" {
		t.Errorf("correlation id = %s", env.CorrelationID)
	}
	var p OrderApprovedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.SellerID != "seller-1" || p.BuyerID == nil || *p.BuyerID != "buyer-1" {
		t.Errorf("payload parties = %+v", p)
	}
	if p.TotalCents != 2000 || len(p.ItemTitles) != 1 || p.ItemTitles[0] != "Bici usada" {
		t.Errorf("payload contents = %+v", p)
	}
}

func TestConfirmReplayPublishesNothing(t *testing.T) {
	store := &fakeStore{
		confirmOrder:   Order{ID: "ord-1", Status: StatusApproved},
		confirmChanged: false, // already terminal; repo refused the write
	}
	l, approved, _ := newLedger(store)

	if _, err := l.ConfirmFromCallback(context.Background(), "ord-1", "pay-9", "failure"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(approved.values) != 0 {
		t.Fatalf("approved events = %d, want 0", len(approved.values))
	}
}

func TestConfirmRejectionPublishesNothing(t *testing.T) {
	store := &fakeStore{
		confirmOrder:   Order{ID: "ord-5", Status: StatusRejected},
		confirmChanged: true,
	}
	l, approved, manual := newLedger(store)

	o, err := l.ConfirmFromCallback(context.Background(), "ord-5", "abc", "failure")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusRejected {
		t.Fatalf("status = %s, want REJECTED", o.Status)
	}
	if len(approved.values)+len(manual.values) != 0 {
		t.Fatal("rejection must not publish events")
	}
}

func TestRecordManualSalePublishes(t *testing.T) {
	paymentID := PaymentIDManual
	store := &fakeStore{
		markSoldOrder: Order{
			ID:        "ord-7",
			SellerID:  "seller-2",
			Status:    StatusApproved,
			PaymentID: &paymentID,
			Items:     []OrderItem{{ProductID: "prod-3", Title: "Silla de madera", Quantity: 1}},
		},
	}
	l, approved, manual := newLedger(store)

	o, err := l.RecordManualSale(context.Background(), "seller-2", "prod-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.PaymentID == nil || *o.PaymentID != PaymentIDManual {
		t.Fatalf("payment id = %v, want MANUAL", o.PaymentID)
	}
	if len(manual.values) != 1 || len(approved.values) != 0 {
		t.Fatalf("events = %d manual / %d approved, want 1/0", len(manual.values), len(approved.values))
	}

	var env Envelope
	if err := json.Unmarshal(manual.values[0], &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	p, errDecode := func() (ManualSalePayload, error) {
		var p ManualSalePayload
		err := json.Unmarshal(env.Payload, &p)
		return p, err
	}()
	if errDecode != nil {
		t.Fatalf("decode payload: %v", errDecode)
	}
	if p.ProductName != "Silla de madera" || p.SellerID != "seller-2" {
		t.Errorf("payload = %+v", p)
	}
}
