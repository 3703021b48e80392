package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/feriapp/marketplace-api/internal/orders"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification type names, seeded in migrations.
const (
	TypeWelcome    = "Alta"
	TypeQuery      = "query"
	TypeAnswer     = "answer"
	TypeManualSale = "manual_sale"
	TypeSale       = "sale"
	TypeBuy        = "buy"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TypeName  string    `json:"type"`
	Message   string    `json:"message"`
	RelatedID *string   `json:"related_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

// TypeIDByName resolves a notification type; ok=false when the name is not
// seeded.
func (r *Repo) TypeIDByName(ctx context.Context, name string) (int32, bool, error) {
	var id int32
	err := r.DB.QueryRow(ctx, `SELECT id FROM notification_types WHERE name=$1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *Repo) Insert(ctx context.Context, userID string, typeID int32, message string, relatedID *string) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO user_notifications(id, user_id, notification_type_id, message, related_id)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), userID, typeID, message, relatedID)
	return err
}

// List returns one page of the user's notifications, newest first, plus the
// total count for paging.
func (r *Repo) List(ctx context.Context, userID string, page, limit int) ([]Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	rows, err := r.DB.Query(ctx, `
		SELECT n.id, n.user_id, t.name, n.message, n.related_id, n.is_read, n.created_at
		FROM user_notifications n
		JOIN notification_types t ON t.id = n.notification_type_id
		WHERE n.user_id=$1
		ORDER BY n.created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.TypeName, &n.Message, &n.RelatedID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM user_notifications WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM user_notifications WHERE user_id=$1 AND is_read=false`, userID).Scan(&n)
	return n, err
}

// MarkRead marks one notification, or all of the user's, as read.
func (r *Repo) MarkRead(ctx context.Context, userID, id string) error {
	if id == "all" {
		_, err := r.DB.Exec(ctx, `
			UPDATE user_notifications SET is_read=true WHERE user_id=$1 AND is_read=false`, userID)
		return err
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE user_notifications SET is_read=true WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %s", orders.ErrNotFound, id)
	}
	return nil
}
