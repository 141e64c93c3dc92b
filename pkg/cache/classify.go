package cache

import (
	"net/http"
	"strings"
)

// Classification describes how the server intends a response to be
// cached, derived from its cache-control, ETag and Last-Modified
// headers. It is advisory metadata surfaced to the caller (e.g., for
// staleness indicators in a UI); it does not by itself suppress
// storage. Storage is controlled solely by the controller's cache
// configuration and response success, so a no-store response is still
// written when caching is enabled. See DESIGN.md for the rationale
// behind keeping that behavior.
type Classification string

const (
	// ClassificationFresh means the server sent no caching signals.
	ClassificationFresh Classification = "fresh"

	// ClassificationNoCache means the response must be revalidated
	// before reuse (Cache-Control: no-cache).
	ClassificationNoCache Classification = "no-cache"

	// ClassificationNoStore means the server asked for the response
	// not to be stored (Cache-Control: no-store).
	ClassificationNoStore Classification = "no-store"

	// ClassificationValidated means the response carries validators
	// (ETag or Last-Modified) usable for conditional requests.
	ClassificationValidated Classification = "validated"
)

// Classify derives a Classification from response headers.
// First match wins: no-store > no-cache > validated > fresh.
func Classify(headers http.Header) Classification {
	cacheControl := strings.ToLower(headers.Get("Cache-Control"))

	if strings.Contains(cacheControl, "no-store") {
		return ClassificationNoStore
	}
	if strings.Contains(cacheControl, "no-cache") {
		return ClassificationNoCache
	}
	if headers.Get("ETag") != "" || headers.Get("Last-Modified") != "" {
		return ClassificationValidated
	}
	return ClassificationFresh
}
