package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-dash/internal/mylogger"
	"food-dash/internal/order-service/core/domain/model"
)

// memIdempotencyRepo mirrors the db adapter's row semantics: one row per
// key, nil status while the original request is in flight.
type memIdempotencyRepo struct {
	mu   sync.Mutex
	rows map[string]*memRow
}

type memRow struct {
	status    *int
	body      []byte
	expiresAt time.Time
}

func newMemIdempotencyRepo() *memIdempotencyRepo {
	return &memIdempotencyRepo{rows: make(map[string]*memRow)}
}

func (r *memIdempotencyRepo) Acquire(ctx context.Context, key string, ttl time.Duration) (*model.CachedResponse, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if row, ok := r.rows[key]; ok && time.Now().Before(row.expiresAt) {
		if row.status == nil {
			return nil, false, nil
		}
		return &model.CachedResponse{Key: key, Status: *row.status, Body: row.body}, false, nil
	}

	r.rows[key] = &memRow{expiresAt: time.Now().Add(ttl)}
	return nil, true, nil
}

func (r *memIdempotencyRepo) Complete(ctx context.Context, key string, status int, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[key]; ok {
		row.status = &status
		row.body = body
	}
	return nil
}

func (r *memIdempotencyRepo) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[key]; ok && row.status == nil {
		delete(r.rows, key)
	}
	return nil
}

func newIdemHarness(t *testing.T, next http.Handler) (http.Handler, *memIdempotencyRepo) {
	t.Helper()
	log, err := mylogger.New("idempotency-test", mylogger.LevelError)
	require.NoError(t, err)
	repo := newMemIdempotencyRepo()
	return NewIdempotencyMiddleware(repo, time.Hour, log).Wrap(next), repo
}

func postReq(key, userId string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"cafe_id":"c1"}`))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	req.Header.Set("X-UserId", userId)
	return req
}

func TestIdempotencyMissingKey(t *testing.T) {
	h, _ := newIdemHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a key")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, postReq("", "u1"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIdempotencyReplay(t *testing.T) {
	calls := 0
	h, _ := newIdemHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"order_id":"order-%d"}`, calls)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, postReq("key-1", "u1"))
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("Idempotency-Replayed"))

	// Retry with the same key: same status, same body, handler not run
	// again.
	second := httptest.NewRecorder()
	h.ServeHTTP(second, postReq("key-1", "u1"))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotency-Replayed"))
	assert.Equal(t, 1, calls)

	// A fresh key runs the handler again.
	third := httptest.NewRecorder()
	h.ServeHTTP(third, postReq("key-2", "u1"))
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, 2, calls)
}

// Error responses below 500 are cached too: a failed validation retried
// with the same key replays the failure instead of re-running.
func TestIdempotencyCachesClientErrors(t *testing.T) {
	calls := 0
	h, _ := newIdemHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, postReq("key-1", "u1"))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	}
	assert.Equal(t, 1, calls)
}

func TestIdempotencyKeyScoping(t *testing.T) {
	calls := 0
	h, _ := newIdemHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	// Two different users may reuse the same key without colliding.
	for _, user := range []string{"u1", "u2"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, postReq("key-1", user))
		assert.Equal(t, http.StatusCreated, rr.Code)
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyInFlightConflict(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	h, _ := newIdemHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusCreated)
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(httptest.NewRecorder(), postReq("key-1", "u1"))
	}()

	<-started
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, postReq("key-1", "u1"))
	assert.Equal(t, http.StatusConflict, rr.Code)

	close(release)
	<-done
}

// A 5xx releases the lock: the client may retry the same key and reach
// the handler again.
func TestIdempotencyServerErrorReleases(t *testing.T) {
	calls := 0
	h, _ := newIdemHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, postReq("key-1", "u1"))
	assert.Equal(t, http.StatusInternalServerError, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, postReq("key-1", "u1"))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, 2, calls)
}
