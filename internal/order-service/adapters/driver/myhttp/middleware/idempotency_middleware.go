package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/adapters/driver/myhttp/handle"
	"food-dash/internal/order-service/core/myerrors"
	"food-dash/internal/order-service/core/ports"
)

const IdempotencyHeader = "Idempotency-Key"

type IdempotencyMiddleware struct {
	repo  ports.IIdempotencyRepo
	ttl   time.Duration
	mylog mylogger.Logger
}

func NewIdempotencyMiddleware(repo ports.IIdempotencyRepo, ttl time.Duration, mylog mylogger.Logger) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{
		repo:  repo,
		ttl:   ttl,
		mylog: mylog,
	}
}

// recorder captures the response while writing it through, so a
// completed request can be replayed byte for byte later.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rec *recorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	rec.body.Write(b)
	return rec.ResponseWriter.Write(b)
}

// Wrap makes the mutation exactly-once per key. The first request with a
// key takes the lock and runs; retries within the TTL replay the stored
// response; a retry racing the original gets a conflict. A server-side
// failure releases the lock so the client may retry with the same key.
func (im *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyHeader)
		if key == "" {
			handle.JsonError(w, http.StatusBadRequest, fmt.Errorf("missing %s header", IdempotencyHeader))
			return
		}

		// Keys are scoped to the caller and the operation, so two users
		// (or two endpoints) reusing the same key never collide.
		scoped := fmt.Sprintf("%s:%s %s:%s", r.Header.Get("X-UserId"), r.Method, r.URL.Path, key)

		cached, acquired, err := im.repo.Acquire(r.Context(), scoped, im.ttl)
		if err != nil {
			im.mylog.Action("idempotency_acquire").Error("failed to acquire idempotency key", err)
			handle.JsonError(w, http.StatusInternalServerError, myerrors.ErrInternal)
			return
		}

		if cached != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotency-Replayed", "true")
			w.WriteHeader(cached.Status)
			_, _ = w.Write(cached.Body)
			return
		}

		if !acquired {
			handle.JsonError(w, http.StatusConflict, myerrors.ErrKeyInFlight)
			return
		}

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status >= http.StatusInternalServerError {
			if err := im.repo.Release(r.Context(), scoped); err != nil {
				im.mylog.Action("idempotency_release").Error("failed to release idempotency key", err)
			}
			return
		}

		if err := im.repo.Complete(r.Context(), scoped, rec.status, rec.body.Bytes()); err != nil {
			im.mylog.Action("idempotency_complete").Error("failed to store idempotency response", err)
		}
	})
}
