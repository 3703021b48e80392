package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/feriapp/marketplace-api/internal/metrics"
	"github.com/feriapp/marketplace-api/internal/orders"
	"go.uber.org/zap"
)

// CheckoutItem references a listing by id; title and price are resolved
// server-side so a tampered request cannot fabricate a total.
type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PreferenceRequest accepts either a cart (items) or the legacy single-item
// form with the fields at the top level.
type PreferenceRequest struct {
	Items []CheckoutItem `json:"items"`

	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type LineItem struct {
	ID         string
	Title      string
	Quantity   int
	PriceCents int64
	PictureURL string
}

type BackURLs struct {
	Success string
	Failure string
	Pending string
}

// Preference is the gateway-neutral checkout session descriptor. The
// external reference is the order id; the gateway echoes it back in the
// confirmation callback.
type Preference struct {
	Items             []LineItem
	ExternalReference string
	BackURLs          BackURLs
	AutoReturn        string
}

type CatalogStore interface {
	FindForCheckout(ctx context.Context, ids []string) (map[string]orders.Product, error)
}

type CredentialStore interface {
	Find(ctx context.Context, userID, provider string) (orders.PaymentMethod, error)
}

type OrderCreator interface {
	CreatePending(ctx context.Context, buyerID, sellerID string, items []orders.ItemSnapshot) (orders.Order, error)
}

// PreferenceCreator talks to the payment provider with a specific seller's
// credential and returns the hosted checkout URL.
type PreferenceCreator interface {
	Create(ctx context.Context, accessToken string, pref Preference) (string, error)
}

type Service struct {
	Catalog     CatalogStore
	Credentials CredentialStore
	Orders      OrderCreator
	Gateway     PreferenceCreator
	FrontendURL string
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

// CreatePreference turns a buyer's cart into a hosted checkout link:
// normalize, resolve the true sellers from the catalog, enforce the
// single-seller rule, fetch the seller's gateway credential, persist a
// PENDING order, then mint the preference against the seller's account.
//
// If the gateway call fails the order stays PENDING with no payment id; the
// preference may in fact exist on the provider side (timeout), so nothing is
// deleted.
func (s *Service) CreatePreference(ctx context.Context, buyerID string, req PreferenceRequest) (string, error) {
	items, err := normalize(req)
	if err != nil {
		return "", err
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return "", fmt.Errorf("%w: la cantidad debe ser mayor a cero", orders.ErrValidation)
		}
		ids = append(ids, it.ProductID)
	}

	products, err := s.Catalog.FindForCheckout(ctx, ids)
	if err != nil {
		return "", err
	}
	if len(products) != len(items) {
		return "", fmt.Errorf("%w: algunos productos no fueron encontrados", orders.ErrValidation)
	}

	var sellerID string
	for i, it := range items {
		p := products[it.ProductID]
		if p.UserID == nil {
			return "", fmt.Errorf("%w: el producto %s no tiene vendedor", orders.ErrValidation, p.ID)
		}
		if i == 0 {
			sellerID = *p.UserID
			continue
		}
		if *p.UserID != sellerID {
			return "", orders.ErrMultiSeller
		}
	}

	method, err := s.Credentials.Find(ctx, sellerID, orders.ProviderMercadoPago)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return "", orders.ErrSellerNotConfigured
		}
		return "", err
	}
	if method.AccessToken == "" || !method.IsActive {
		return "", orders.ErrSellerNotConfigured
	}

	snapshots := make([]orders.ItemSnapshot, 0, len(items))
	lines := make([]LineItem, 0, len(items))
	for _, it := range items {
		p := products[it.ProductID]
		snapshots = append(snapshots, orders.ItemSnapshot{
			ProductID:  p.ID,
			Title:      p.Name,
			Quantity:   it.Quantity,
			PriceCents: p.PriceCents,
		})
		lines = append(lines, LineItem{
			ID:         p.ID,
			Title:      p.Name,
			Quantity:   it.Quantity,
			PriceCents: p.PriceCents,
			PictureURL: p.PictureURL,
		})
	}

	order, err := s.Orders.CreatePending(ctx, buyerID, sellerID, snapshots)
	if err != nil {
		return "", err
	}
	if s.Metrics != nil {
		s.Metrics.OrdersCreated.Inc()
	}

	initPoint, err := s.Gateway.Create(ctx, method.AccessToken, Preference{
		Items:             lines,
		ExternalReference: order.ID,
		BackURLs: BackURLs{
			Success: s.FrontendURL + "/success",
			Failure: s.FrontendURL + "/failure",
			Pending: s.FrontendURL + "/pending",
		},
		AutoReturn: "approved",
	})
	if err != nil {
		if s.Metrics != nil {
			s.Metrics.PreferenceFailures.Inc()
		}
		if s.Log != nil {
			s.Log.Warn("preference creation failed, order left pending",
				zap.String("order_id", order.ID), zap.Error(err))
		}
		return "", fmt.Errorf("create preference: %w", err)
	}
	return initPoint, nil
}

func normalize(req PreferenceRequest) ([]CheckoutItem, error) {
	if len(req.Items) > 0 {
		return req.Items, nil
	}
	if req.ProductID == "" {
		return nil, fmt.Errorf("%w: se requiere el ID del producto", orders.ErrValidation)
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	return []CheckoutItem{{ProductID: req.ProductID, Quantity: qty}}, nil
}
