package httpx

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/feriapp/marketplace-api/internal/auth"
	"github.com/feriapp/marketplace-api/internal/notifications"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type NotificationStore interface {
	List(ctx context.Context, userID string, page, limit int) ([]notifications.Notification, int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type NotificationsHandler struct {
	Store NotificationStore
	Log   *zap.Logger
}

func (h *NotificationsHandler) Register(r chi.Router, authed func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authed)
		r.Get("/notifications", h.list)
		r.Get("/notifications/unread-count", h.unreadCount)
		r.Put("/notifications/{id}/read", h.markRead)
	})
}

func (h *NotificationsHandler) list(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	list, total, err := h.Store.List(r.Context(), id.UserID, page, limit)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": list,
		"totalPages":    int(math.Ceil(float64(total) / float64(limit))),
		"currentPage":   page,
	})
}

func (h *NotificationsHandler) unreadCount(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	n, err := h.Store.UnreadCount(r.Context(), id.UserID)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// markRead accepts a notification id or the literal "all".
func (h *NotificationsHandler) markRead(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	target := chi.URLParam(r, "id")
	if target != "all" {
		var ok bool
		if target, ok = pathID(r, "id"); !ok {
			badID(w)
			return
		}
	}
	if err := h.Store.MarkRead(r.Context(), id.UserID, target); err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
