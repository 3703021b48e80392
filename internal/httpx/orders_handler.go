package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/feriapp/marketplace-api/internal/auth"
	"github.com/feriapp/marketplace-api/internal/metrics"
	"github.com/feriapp/marketplace-api/internal/orders"
	"github.com/feriapp/marketplace-api/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type LedgerService interface {
	ConfirmFromCallback(ctx context.Context, orderID, paymentID, providerStatus string) (orders.Order, error)
	RecordManualSale(ctx context.Context, sellerID, productID string) (orders.Order, error)
}

type OrderReader interface {
	GetByID(ctx context.Context, orderID string) (orders.Order, error)
	ListPurchases(ctx context.Context, buyerID string) ([]orders.Order, error)
	ListSales(ctx context.Context, sellerID string) ([]orders.Order, error)
}

type OrdersHandler struct {
	Ledger  LedgerService
	Reader  OrderReader
	Redis   *redis.Client
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

type ConfirmOrderReq struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router, authed func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authed)
		r.Post("/orders/confirm", h.confirm)
		r.Get("/orders/purchases", h.purchases)
		r.Get("/orders/sales", h.sales)
	})
	r.Get("/orders/{id}", h.get)
}

func (h *OrdersHandler) confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "json inválido"})
		return
	}
	if req.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "orderId es requerido"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Ledger.ConfirmFromCallback(ctx, req.OrderID, req.PaymentID, req.Status)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.OrdersConfirmed.WithLabelValues(string(o.Status)).Inc()
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	if !ok {
		badID(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// status cache first, DB as the source of truth
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Reader.GetByID(ctx, orderID)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, o.Status), redisx.TTLStatusCache).Err()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

func (h *OrdersHandler) purchases(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	list, err := h.Reader.ListPurchases(r.Context(), id.UserID)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) sales(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	list, err := h.Reader.ListSales(r.Context(), id.UserID)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
