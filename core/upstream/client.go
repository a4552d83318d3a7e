package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"

	mderrors "github.com/mealdex/mealdex/core/errors"
)

// json is the shared fast JSON codec for upstream payloads.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultCallTimeout caps a single provider call when the orchestrator has
// not already bounded the context.
const DefaultCallTimeout = 2 * time.Second

// maxRetryInterval caps the exponential backoff between retry attempts.
// Retries only make sense well inside the adapter's budget slice, so the
// intervals stay short.
const maxRetryInterval = 250 * time.Millisecond

// Client is the HTTP plumbing shared by concrete adapters: request
// construction, retry with exponential backoff on transient failures, and
// normalization of transport errors into the engine taxonomy.
type Client struct {
	http     *http.Client
	provider string
	timeout  time.Duration
}

// NewClient creates a Client for a provider. A nil httpClient uses
// http.DefaultClient; a non-positive timeout uses DefaultCallTimeout.
func NewClient(provider string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Client{http: httpClient, provider: provider, timeout: timeout}
}

// GetJSON issues a GET for endpoint with the given query parameters and
// decodes the response body into out. Transient failures (network errors,
// 429, 5xx) are retried with exponential backoff until the context expires.
func (c *Client) GetJSON(ctx context.Context, operation, endpoint string, params url.Values, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestURL := endpoint
	if len(params) > 0 {
		requestURL = endpoint + "?" + params.Encode()
	}

	attempt := func() error {
		return c.getOnce(ctx, operation, requestURL, out)
	}

	policy := backoff.WithContext(c.retryPolicy(), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return c.classify(ctx, operation, err)
	}
	return nil
}

// getOnce performs a single request/decode cycle. Non-retryable failures are
// wrapped in backoff.Permanent so the retry loop stops immediately.
func (c *Client) getOnce(ctx context.Context, operation, requestURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return backoff.Permanent(mderrors.NewUpstreamError(c.provider, operation, 0, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return mderrors.NewUpstreamError(c.provider, operation, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused across retries.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		ue := mderrors.NewUpstreamError(c.provider, operation, resp.StatusCode, nil)
		if !ue.Retryable() {
			return backoff.Permanent(ue)
		}
		return ue
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return mderrors.NewUpstreamError(c.provider, operation, 0, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		// A garbled body is a provider failure, not a retry candidate.
		return backoff.Permanent(mderrors.NewUpstreamError(c.provider, operation, 0, err))
	}
	return nil
}

// retryPolicy returns the short exponential backoff used between attempts.
func (c *Client) retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 25 * time.Millisecond
	policy.MaxInterval = maxRetryInterval
	policy.MaxElapsedTime = 0 // bounded by the context, not wall time
	return policy
}

// classify maps a terminal error to the taxonomy: caller cancellation
// becomes AbortedError, everything else is guaranteed to be an
// UpstreamError already.
func (c *Client) classify(ctx context.Context, operation string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &mderrors.AbortedError{Operation: c.provider + " " + operation}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var ue *mderrors.UpstreamError
		if errors.As(err, &ue) {
			return ue
		}
		return context.DeadlineExceeded
	}
	return err
}

// MalformedResponse builds the error adapters return when a 2xx payload is
// structurally unusable (missing IDs, empty names). Partial success is never
// reported.
func (c *Client) MalformedResponse(operation string, err error) error {
	return mderrors.NewUpstreamError(c.provider, operation, 0, err)
}

// Provider returns the provider name this client was built for.
func (c *Client) Provider() string {
	return c.provider
}
