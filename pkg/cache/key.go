package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Key identifies a request for caching purposes. Two requests with the
// same method, endpoint, body and headers always produce the same key
// string.
type Key struct {
	// Method is the HTTP method (e.g., "GET")
	Method string

	// Endpoint is the request URL (e.g., "https://api.example.com/posts")
	Endpoint string

	// Body is the request body, if any. Marshalled through encoding/json,
	// which writes map keys in sorted order, so map-typed bodies are
	// order-stable. Struct bodies serialize in field order, which is
	// stable per type; the key therefore encodes per-type equivalence
	// for structs, not cross-type structural equivalence.
	Body any

	// Headers are the request headers
	Headers map[string]string
}

// String generates a deterministic cache key string.
// Format: blog:METHOD:endpoint:h=key=value:b=bodyhash
//
// Example:
//
//	blog:GET:https://api.example.com/posts:h=accept=application/json:b=9f86d081884c7d65
func (k Key) String() string {
	parts := []string{"blog", strings.ToUpper(k.Method)}

	endpoint := strings.TrimRight(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Add headers (sorted for determinism). Keys differing only in
	// case collapse to one entry; the value comes from the original
	// key that sorts last, so the pick never depends on map order.
	if len(k.Headers) > 0 {
		origKeys := make([]string, 0, len(k.Headers))
		for key := range k.Headers {
			origKeys = append(origKeys, key)
		}
		sort.Strings(origKeys)

		lowered := make(map[string]string, len(k.Headers))
		headerKeys := make([]string, 0, len(k.Headers))
		for _, key := range origKeys {
			low := strings.ToLower(key)
			if _, seen := lowered[low]; !seen {
				headerKeys = append(headerKeys, low)
			}
			lowered[low] = k.Headers[key]
		}
		sort.Strings(headerKeys)

		for _, key := range headerKeys {
			parts = append(parts, fmt.Sprintf("h=%s=%s", key, lowered[key]))
		}
	}

	// Add body digest
	if k.Body != nil {
		parts = append(parts, fmt.Sprintf("b=%s", hashBody(k.Body)))
	}

	return strings.Join(parts, ":")
}

// hashBody produces a short stable digest of the request body.
// First 8 bytes of SHA-256 over the JSON encoding keep keys short
// while still distinguishing distinct bodies.
func hashBody(body any) string {
	data, err := json.Marshal(body)
	if err != nil {
		// Unserializable bodies still need a key; the builder never fails.
		data = []byte(fmt.Sprintf("%#v", body))
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
