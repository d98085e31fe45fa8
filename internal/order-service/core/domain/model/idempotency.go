package model

import "time"

// CachedResponse is the completed half of an idempotency record: the
// response replayed verbatim on retries within the TTL.
type CachedResponse struct {
	Key       string
	Status    int
	Body      []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}
