package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/feriapp/marketplace-api/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pathID returns the {key} route parameter when it is a well-formed uuid;
// anything else must be rejected before it reaches a uuid column.
func pathID(r *http.Request, key string) (string, bool) {
	id := chi.URLParam(r, key)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func badID(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id inválido"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the failure taxonomy to HTTP at the handler boundary; only
// unexpected infrastructure failures become 500s.
func writeErr(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, orders.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrMultiSeller):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "No se permite comprar a múltiples vendedores a la vez. Por favor, compra a un solo vendedor por transacción.",
		})
	case errors.Is(err, orders.ErrSellerNotConfigured):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "El vendedor de este producto aún no ha activado los pagos con MercadoPago.",
		})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no encontrado"})
	case errors.Is(err, orders.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no tienes permiso sobre este recurso"})
	case errors.Is(err, orders.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "el recurso ya no está disponible"})
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "error interno"})
	}
}
