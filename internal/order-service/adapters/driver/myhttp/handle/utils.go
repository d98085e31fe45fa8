package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"food-dash/internal/order-service/core/domain/model"
	"food-dash/internal/order-service/core/myerrors"
)

// jsonResponse writes data wrapped under the given envelope key, so a
// created order goes out as {"order": {...}}.
func jsonResponse(w http.ResponseWriter, code int, key string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if key == "" {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{key: data})
}

// JsonError writes the error envelope clients key off:
// {"success": false, "message": "..."}.
func JsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": err.Error(),
	})
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, myerrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, myerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, myerrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, myerrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// serviceError writes the error with the status its kind maps to.
func serviceError(w http.ResponseWriter, err error) {
	JsonError(w, StatusFor(err), err)
}

// actorFrom reads the identity headers set by the auth middleware.
func actorFrom(r *http.Request) model.Actor {
	return model.Actor{
		UserId: r.Header.Get("X-UserId"),
		Role:   r.Header.Get("X-Role"),
	}
}
