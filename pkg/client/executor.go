package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/blogkit/api-client/pkg/cache"
	"github.com/rs/zerolog"
)

// callSpec is the fully resolved request for a single Execute
// invocation (config defaults merged with per-call overrides).
type callSpec struct {
	method   string
	endpoint string
	body     any
	headers  map[string]string

	// validators backs conditional request headers; nil when the
	// controller has no prior entry or cache hints are suppressed.
	validators *cache.Entry
}

// execResult is the terminal outcome of one executed call. Exactly one
// of three shapes applies: success (returned with nil error), aborted
// (aborted=true, nil error), or exhausted failure (nil result,
// non-nil error). Cancellation is never surfaced as an error.
type execResult struct {
	payload     []byte
	statusCode  int
	header      http.Header
	notModified bool
	attempts    int
	aborted     bool
}

// executor issues one network call with bounded linear-backoff retry.
type executor struct {
	httpClient *http.Client
	policy     RetryPolicy
	logger     zerolog.Logger
}

// do runs the attempt/classify/wait/retry sequence. The context is
// checked before every attempt and before every backoff wait; a
// cancellation observed at any of those points resolves as aborted
// and never consumes the retry budget.
func (e *executor) do(ctx context.Context, spec callSpec) (*execResult, error) {
	attempts := e.policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return &execResult{aborted: true, attempts: attempt - 1}, nil
		}

		res, err := e.attempt(ctx, spec)
		if err == nil {
			res.attempts = attempt
			if attempt > 1 {
				e.logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return res, nil
		}

		// A failure caused by cancellation mid-flight is an abort,
		// not a transient error.
		if ctx.Err() != nil {
			return &execResult{aborted: true, attempts: attempt}, nil
		}

		lastErr = err
		class := errorClassOf(err)
		errorsTotal.WithLabelValues(string(class)).Inc()

		if attempt >= attempts {
			break
		}

		retriesTotal.WithLabelValues(string(class)).Inc()
		e.logger.Debug().
			Err(err).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", e.policy.Backoff(attempt)).
			Msg("Retrying request after backoff")

		if waitErr := e.policy.Wait(ctx, attempt, class); waitErr != nil {
			return &execResult{aborted: true, attempts: attempt}, nil
		}
	}

	retryExhaustedTotal.WithLabelValues(string(errorClassOf(lastErr))).Inc()
	e.logger.Warn().
		Err(lastErr).
		Int("max_attempts", attempts).
		Msg("Retry attempts exhausted")

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, attempts, lastErr)
}

// attempt performs one network call. Any non-2xx status or transport
// failure is returned as an error for the retry loop to classify.
func (e *executor) attempt(ctx context.Context, spec callSpec) (*execResult, error) {
	req, err := e.buildRequest(ctx, spec)
	if err != nil {
		return nil, &RequestError{
			ErrorClass: ErrorClassNetwork,
			Message:    "build request",
			Err:        err,
		}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{
			ErrorClass: ErrorClassNetwork,
			Message:    "transport failure",
			Err:        err,
		}
	}

	// 304 against our validators resolves with the remembered payload.
	if resp.StatusCode == http.StatusNotModified && spec.validators != nil {
		resp.Body.Close()
		return &execResult{
			statusCode:  resp.StatusCode,
			header:      resp.Header,
			notModified: true,
		}, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &RequestError{
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    resp.Status,
		}
	}

	return &execResult{
		payload:    body,
		statusCode: resp.StatusCode,
		header:     resp.Header,
	}, nil
}

// buildRequest constructs the outgoing request for one attempt. The
// body reader is rebuilt per attempt so retries never reuse a
// half-consumed reader.
func (e *executor) buildRequest(ctx context.Context, spec callSpec) (*http.Request, error) {
	var bodyReader io.Reader
	if spec.body != nil {
		data, err := json.Marshal(spec.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, spec.endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range spec.headers {
		req.Header.Set(key, value)
	}

	if spec.validators != nil && spec.validators.HasValidators() {
		cache.AddValidators(req, spec.validators)
		cache.ConditionalRequestsSent.Inc()
	}

	return req, nil
}
