package cache

import (
	"time"
)

// Entry represents a cached response payload.
type Entry struct {
	// Key is the request identity this entry was stored under
	Key string `json:"key"`

	// Payload is the response body
	Payload []byte `json:"payload"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// ETag for conditional requests (If-None-Match)
	ETag string `json:"etag"`

	// LastModified for conditional requests (If-Modified-Since)
	LastModified time.Time `json:"last_modified"`

	// Classification derived from the response headers at store time
	Classification Classification `json:"classification"`

	// StoredAt is when the entry was written
	StoredAt time.Time `json:"stored_at"`
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age() time.Duration {
	return time.Since(e.StoredAt)
}

// Expired reports whether the entry has outlived the given TTL.
func (e *Entry) Expired(ttl time.Duration) bool {
	return e.Age() >= ttl
}

// HasValidators reports whether the entry can back a conditional
// request (If-None-Match or If-Modified-Since).
func (e *Entry) HasValidators() bool {
	return e.ETag != "" || !e.LastModified.IsZero()
}
