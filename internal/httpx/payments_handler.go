package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/feriapp/marketplace-api/internal/auth"
	"github.com/feriapp/marketplace-api/internal/orders"
	"github.com/feriapp/marketplace-api/internal/payments"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CheckoutService interface {
	CreatePreference(ctx context.Context, buyerID string, req payments.PreferenceRequest) (string, error)
}

type MethodStore interface {
	Upsert(ctx context.Context, userID, provider, accessToken, publicKey string) (orders.PaymentMethod, error)
	ListForUser(ctx context.Context, userID string) ([]orders.PaymentMethod, error)
}

type PaymentsHandler struct {
	Checkout CheckoutService
	Methods  MethodStore
	Log      *zap.Logger
}

func (h *PaymentsHandler) Register(r chi.Router, authed func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authed)
		r.Post("/payment/create_preference", h.createPreference)
		r.Get("/payment_methods", h.listMethods)
		r.Post("/payment_methods", h.saveMethod)
	})
}

func (h *PaymentsHandler) createPreference(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req payments.PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "json inválido"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	initPoint, err := h.Checkout.CreatePreference(ctx, id.UserID, req)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"init_point": initPoint})
}

func (h *PaymentsHandler) listMethods(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	methods, err := h.Methods.ListForUser(r.Context(), id.UserID)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, methods)
}

type saveMethodReq struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
	PublicKey   string `json:"public_key"`
}

func (h *PaymentsHandler) saveMethod(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req saveMethodReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "json inválido"})
		return
	}

	m, err := h.Methods.Upsert(r.Context(), id.UserID, req.Provider, req.AccessToken, req.PublicKey)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	m.AccessToken = payments.MaskToken(m.AccessToken)
	writeJSON(w, http.StatusOK, map[string]any{"msg": "método de pago guardado", "method": m})
}
