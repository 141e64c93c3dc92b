package client

import (
	"net/http"

	"github.com/blogkit/api-client/pkg/cache"
)

// State represents the controller lifecycle state.
type State string

const (
	// StateIdle is the initial state before any call has run.
	StateIdle State = "idle"

	// StateLoading means a call is in flight.
	StateLoading State = "loading"

	// StateSuccess means the last call completed successfully
	// (from the network or from cache).
	StateSuccess State = "success"

	// StateError means the last call exhausted its retry budget.
	StateError State = "error"

	// StateAborted means the last call was cancelled before completion.
	StateAborted State = "aborted"
)

// RequestState is the externally observable request state. It is
// mutated only by the controller, and only by the most recently
// started call; superseded calls never write to it.
type RequestState struct {
	// Payload is the body of the last successful response.
	Payload []byte

	// Loading is true while a call is in flight.
	Loading bool

	// Err is the terminal error of the last failed call, nil otherwise.
	// An aborted call leaves Err untouched.
	Err error

	// StatusCode is the HTTP status of the last completed call
	// (0 before the first completion).
	StatusCode int
}

// Result is the outcome record returned by Execute.
type Result struct {
	// Payload is the response body (or cached payload).
	Payload []byte

	// StatusCode is the HTTP status code.
	StatusCode int

	// Header holds the response headers of the network call that
	// produced this result. Nil when the call was satisfied by the
	// cache without a network request.
	Header http.Header

	// FromCache is true when the call was satisfied by the cache
	// without a network request.
	FromCache bool

	// Classification is the cache classification of the response.
	Classification cache.Classification

	// Aborted is true when the call was cancelled or superseded
	// before completion. No other field is meaningful in that case.
	Aborted bool
}
