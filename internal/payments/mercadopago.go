package payments

import (
	"context"
	"fmt"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"
)

// MercadoPago mints checkout preferences through the official SDK. A fresh
// client is built per call because every seller has their own access token.
type MercadoPago struct{}

func (MercadoPago) Create(ctx context.Context, accessToken string, pref Preference) (string, error) {
	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return "", fmt.Errorf("mercadopago config: %w", err)
	}
	client := preference.NewClient(cfg)

	items := make([]preference.ItemRequest, 0, len(pref.Items))
	for _, it := range pref.Items {
		items = append(items, preference.ItemRequest{
			ID:         it.ID,
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  float64(it.PriceCents) / 100,
			PictureURL: it.PictureURL,
			CurrencyID: "ARS",
		})
	}

	resp, err := client.Create(ctx, preference.Request{
		Items:             items,
		ExternalReference: pref.ExternalReference,
		BackURLs: &preference.BackURLsRequest{
			Success: pref.BackURLs.Success,
			Failure: pref.BackURLs.Failure,
			Pending: pref.BackURLs.Pending,
		},
		AutoReturn: pref.AutoReturn,
	})
	if err != nil {
		return "", fmt.Errorf("mercadopago create preference: %w", err)
	}
	return resp.InitPoint, nil
}
