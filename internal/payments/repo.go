package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/feriapp/marketplace-api/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentMethodRepo struct{ DB *pgxpool.Pool }

func (r *PaymentMethodRepo) Find(ctx context.Context, userID, provider string) (orders.PaymentMethod, error) {
	var m orders.PaymentMethod
	err := r.DB.QueryRow(ctx, `
		SELECT user_id, provider, access_token, public_key, is_active
		FROM payment_methods WHERE user_id=$1 AND provider=$2`, userID, provider).
		Scan(&m.UserID, &m.Provider, &m.AccessToken, &m.PublicKey, &m.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.PaymentMethod{}, fmt.Errorf("%w: payment method", orders.ErrNotFound)
	}
	if err != nil {
		return orders.PaymentMethod{}, err
	}
	return m, nil
}

// Upsert saves a seller's gateway credential and re-activates it.
func (r *PaymentMethodRepo) Upsert(ctx context.Context, userID, provider, accessToken, publicKey string) (orders.PaymentMethod, error) {
	if provider == "" || accessToken == "" {
		return orders.PaymentMethod{}, fmt.Errorf("%w: provider y access token son requeridos", orders.ErrValidation)
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO payment_methods(user_id, provider, access_token, public_key, is_active)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (user_id, provider)
		DO UPDATE SET access_token=EXCLUDED.access_token, public_key=EXCLUDED.public_key, is_active=true
	`, userID, provider, accessToken, publicKey)
	if err != nil {
		return orders.PaymentMethod{}, err
	}
	return orders.PaymentMethod{UserID: userID, Provider: provider, AccessToken: accessToken, PublicKey: publicKey, IsActive: true}, nil
}

// ListForUser returns the caller's methods with tokens masked to the last
// four characters.
func (r *PaymentMethodRepo) ListForUser(ctx context.Context, userID string) ([]orders.PaymentMethod, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT user_id, provider, access_token, is_active
		FROM payment_methods WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.PaymentMethod
	for rows.Next() {
		var m orders.PaymentMethod
		if err := rows.Scan(&m.UserID, &m.Provider, &m.AccessToken, &m.IsActive); err != nil {
			return nil, err
		}
		m.AccessToken = MaskToken(m.AccessToken)
		out = append(out, m)
	}
	return out, rows.Err()
}

func MaskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****************" + token[len(token)-4:]
}
