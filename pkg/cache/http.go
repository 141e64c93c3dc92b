package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NewEntry builds an Entry from the parts of a completed response,
// recording the validators and classification derived from its
// headers.
func NewEntry(key string, payload []byte, statusCode int, headers http.Header) *Entry {
	entry := &Entry{
		Key:            key,
		Payload:        payload,
		StatusCode:     statusCode,
		ETag:           headers.Get("ETag"),
		Classification: Classify(headers),
		StoredAt:       time.Now(),
	}

	if lastModStr := headers.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry
}

// ResponseToEntry converts an HTTP response into an Entry stored under
// the given key. It reads the response body and restores it for the
// caller.
func ResponseToEntry(resp *http.Response, key string) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()

	// Restore body for caller
	resp.Body = io.NopCloser(bytes.NewReader(body))

	return NewEntry(key, body, resp.StatusCode, resp.Header), nil
}

// AddValidators adds If-None-Match (ETag) or If-Modified-Since headers
// to the request so the origin can answer 304 Not Modified.
func AddValidators(req *http.Request, entry *Entry) {
	if entry == nil || req == nil {
		return
	}

	// Prefer ETag over Last-Modified (more accurate)
	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", entry.LastModified.Format(http.TimeFormat))
	}
}
