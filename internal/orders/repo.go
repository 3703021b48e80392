package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// querier lets the row loaders run against the pool or an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CreatePending persists one PENDING order plus its item snapshots in a
// single transaction. Total = Σ(price×quantity) over the snapshots.
func (r *Repo) CreatePending(ctx context.Context, buyerID, sellerID string, items []ItemSnapshot) (Order, error) {
	if len(items) == 0 {
		return Order{}, fmt.Errorf("%w: no items", ErrValidation)
	}
	var total int64
	for _, it := range items {
		if it.Quantity <= 0 {
			return Order{}, fmt.Errorf("%w: quantity must be positive for product %s", ErrValidation, it.ProductID)
		}
		total += it.PriceCents * int64(it.Quantity)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := Order{
		ID:         uuid.NewString(),
		BuyerID:    &buyerID,
		SellerID:   sellerID,
		TotalCents: total,
		Status:     StatusPending,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, buyer_id, seller_id, total_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, o.ID, o.BuyerID, o.SellerID, o.TotalCents, o.Status).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}

	for _, it := range items {
		item := OrderItem{
			ID:         uuid.NewString(),
			OrderID:    o.ID,
			ProductID:  it.ProductID,
			Title:      it.Title,
			Quantity:   it.Quantity,
			PriceCents: it.PriceCents,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, title, quantity, price_cents)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, item.OrderID, item.ProductID, item.Title, item.Quantity, item.PriceCents); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Confirm applies the payment callback under a row lock. Only PENDING orders
// are mutated: a callback on a terminal order is treated as a replay and the
// stored row is returned unchanged. A PENDING target records the payment id
// but is not a transition. The returned flag reports whether the status
// actually moved.
func (r *Repo) Confirm(ctx context.Context, orderID, paymentID string, target Status) (Order, bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, false, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	if err != nil {
		return Order{}, false, err
	}

	changed := false
	switch {
	case current != StatusPending:
		// replayed or out-of-order callback on a terminal order: no-op
	case !CanTransition(current, target):
		// provider still reports in-flight; keep PENDING, remember payment id
		if _, err := tx.Exec(ctx, `UPDATE orders SET payment_id=$2, updated_at=now() WHERE id=$1`, orderID, paymentID); err != nil {
			return Order{}, false, err
		}
	default:
		if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, payment_id=$3, updated_at=now() WHERE id=$1`, orderID, target, paymentID); err != nil {
			return Order{}, false, err
		}
		changed = true
	}

	o, err := loadOrder(ctx, tx, orderID)
	if err != nil {
		return Order{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, false, err
	}
	return o, changed, nil
}

// MarkSold records a sale the seller closed off-platform: an APPROVED order
// with no buyer and payment id "MANUAL", and the product deactivated, all in
// one transaction.
func (r *Repo) MarkSold(ctx context.Context, sellerID, productID string) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		owner      *string
		name       string
		priceCents int64
		isActive   bool
	)
	err = tx.QueryRow(ctx, `
		SELECT user_id, name, price_cents, is_active FROM products WHERE id=$1 FOR UPDATE
	`, productID).Scan(&owner, &name, &priceCents, &isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if err != nil {
		return Order{}, err
	}
	if owner == nil || *owner != sellerID {
		return Order{}, fmt.Errorf("%w: product %s", ErrForbidden, productID)
	}
	if !isActive {
		return Order{}, fmt.Errorf("%w: product %s already sold", ErrConflict, productID)
	}

	paymentID := PaymentIDManual
	o := Order{
		ID:         uuid.NewString(),
		SellerID:   sellerID,
		TotalCents: priceCents,
		Status:     StatusApproved,
		PaymentID:  &paymentID,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, buyer_id, seller_id, total_cents, status, payment_id)
		VALUES ($1, NULL, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, o.ID, o.SellerID, o.TotalCents, o.Status, paymentID).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}

	item := OrderItem{
		ID:         uuid.NewString(),
		OrderID:    o.ID,
		ProductID:  productID,
		Title:      name,
		Quantity:   1,
		PriceCents: priceCents,
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_items(id, order_id, product_id, title, quantity, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ID, item.OrderID, item.ProductID, item.Title, item.Quantity, item.PriceCents); err != nil {
		return Order{}, err
	}
	o.Items = append(o.Items, item)

	if _, err := tx.Exec(ctx, `UPDATE products SET is_active=false, updated_at=now() WHERE id=$1`, productID); err != nil {
		return Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) GetByID(ctx context.Context, orderID string) (Order, error) {
	return loadOrder(ctx, r.DB, orderID)
}

// ListPurchases returns a buyer's orders, newest first.
func (r *Repo) ListPurchases(ctx context.Context, buyerID string) ([]Order, error) {
	return r.list(ctx, `buyer_id=$1`, buyerID)
}

// ListSales returns a seller's orders, newest first.
func (r *Repo) ListSales(ctx context.Context, sellerID string) ([]Order, error) {
	return r.list(ctx, `seller_id=$1`, sellerID)
}

func (r *Repo) list(ctx context.Context, where string, arg any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, buyer_id, seller_id, total_cents, status, payment_id, created_at, updated_at
		FROM orders WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.TotalCents, &o.Status, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := loadItems(ctx, r.DB, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func loadOrder(ctx context.Context, q querier, orderID string) (Order, error) {
	var o Order
	err := q.QueryRow(ctx, `
		SELECT id, buyer_id, seller_id, total_cents, status, payment_id, created_at, updated_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.TotalCents, &o.Status, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	if err != nil {
		return Order{}, err
	}
	items, err := loadItems(ctx, q, orderID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

func loadItems(ctx context.Context, q querier, orderID string) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, title, quantity, price_cents
		FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Title, &it.Quantity, &it.PriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
