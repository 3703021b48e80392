package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/feriapp/marketplace-api/internal/auth"
	"github.com/feriapp/marketplace-api/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductStore interface {
	Create(ctx context.Context, sellerID, name, description string, priceCents int64, pictureURL string) (orders.Product, error)
	GetByID(ctx context.Context, id string) (orders.Product, error)
	ListActive(ctx context.Context) ([]orders.Product, error)
}

type ProductsHandler struct {
	Products ProductStore
	Ledger   LedgerService
	Log      *zap.Logger
}

type createProductReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	PictureURL  string `json:"picture_url"`
}

func (h *ProductsHandler) Register(r chi.Router, authed func(http.Handler) http.Handler) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(authed)
		r.Post("/products", h.create)
		r.Post("/products/{id}/mark-sold", h.markSold)
	})
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.Products.ListActive(r.Context())
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	p, err := h.Products.GetByID(r.Context(), id)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "json inválido"})
		return
	}

	p, err := h.Products.Create(r.Context(), id.UserID, req.Name, req.Description, req.PriceCents, req.PictureURL)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// markSold registers a sale the seller closed off-platform (cash,
// in-person). Ownership and availability are enforced by the ledger.
func (h *ProductsHandler) markSold(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	productID, ok := pathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	o, err := h.Ledger.RecordManualSale(r.Context(), id.UserID, productID)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"msg":   "venta registrada",
		"order": o,
	})
}
