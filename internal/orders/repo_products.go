package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepo struct{ DB *pgxpool.Pool }

func (r *ProductRepo) Create(ctx context.Context, sellerID, name, description string, priceCents int64, pictureURL string) (Product, error) {
	if name == "" || priceCents <= 0 {
		return Product{}, fmt.Errorf("%w: name and a positive price are required", ErrValidation)
	}
	p := Product{
		ID:          uuid.NewString(),
		UserID:      &sellerID,
		Name:        name,
		Description: description,
		PriceCents:  priceCents,
		PictureURL:  pictureURL,
		IsActive:    true,
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, user_id, name, description, price_cents, picture_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING created_at, updated_at
	`, p.ID, p.UserID, p.Name, p.Description, p.PriceCents, p.PictureURL).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, name, description, price_cents, picture_url, is_active, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.PriceCents, &p.PictureURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) ListActive(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, name, description, price_cents, picture_url, is_active, created_at, updated_at
		FROM products WHERE is_active=true ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.PriceCents, &p.PictureURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindForCheckout resolves the referenced products with their true owners,
// names and current prices. Missing ids are simply absent from the map; the
// caller decides what a count mismatch means.
func (r *ProductRepo) FindForCheckout(ctx context.Context, ids []string) (map[string]Product, error) {
	if len(ids) == 0 {
		return map[string]Product{}, nil
	}
	params := ""
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, name, price_cents, picture_url, is_active
		FROM products WHERE id IN (`+params+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.PriceCents, &p.PictureURL, &p.IsActive); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}
