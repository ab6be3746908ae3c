// Package transport is the shared HTTP layer under every adapter: one
// rate-limited client per exchange, request signing via a callback, JSON
// decoding, and the error-mapping hook that turns exchange error bodies
// into the unified taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/navid-fn/uniex/exchange"
)

const defaultRequestTimeout = 10 * time.Second

// Request is a fully built exchange call. Adapters populate it, run their
// signer over it, and hand it to Client.Do.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Headers http.Header
	Body    []byte

	// Weight is the rate-limit cost of the endpoint group; zero means 1.
	Weight int
}

// SetHeader sets a header, allocating the map on first use.
func (r *Request) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = http.Header{}
	}
	r.Headers.Set(key, value)
}

// HandleErrors inspects a response before the caller parses it. The decoded
// argument is the JSON body as map[string]any or []any (nil when the body
// is not JSON). Returning a non-nil error aborts the call.
type HandleErrors func(status int, body []byte, decoded any) error

// Client executes requests for one exchange.
type Client struct {
	name         string
	http         *http.Client
	limiter      *rate.Limiter
	log          *logrus.Entry
	handleErrors HandleErrors
}

// Option customizes a Client.
type Option func(*Client)

// WithHandleErrors installs the adapter's error hook.
func WithHandleErrors(h HandleErrors) Option {
	return func(c *Client) { c.handleErrors = h }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient overrides the underlying client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a client for the named exchange limited to requestsPerSecond.
func New(name string, requestsPerSecond float64, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		name:    name,
		http:    &http.Client{Timeout: defaultRequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 10),
		log:     logger.WithField("exchange", name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request and returns the decoded JSON body. The rate
// limiter is waited on before the call; the error hook runs after it.
func (c *Client) Do(ctx context.Context, req *Request) (any, error) {
	weight := req.Weight
	if weight < 1 {
		weight = 1
	}
	if err := c.limiter.WaitN(ctx, weight); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	target := req.URL
	if len(req.Query) > 0 {
		target = target + "?" + req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	requestID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{
		"requestId": requestID,
		"method":    req.Method,
		"url":       req.URL,
	})
	log.Debug("sending request")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, exchange.NewAPIError(c.name, exchange.ErrRequestTimeout, err.Error())
		}
		return nil, exchange.NewAPIError(c.name, exchange.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exchange.NewAPIError(c.name, exchange.ErrNetwork, err.Error())
	}

	var decoded any
	var parseErr error
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			decoded = nil
			parseErr = err
		}
	}

	if c.handleErrors != nil {
		if err := c.handleErrors(resp.StatusCode, raw, decoded); err != nil {
			log.WithField("status", resp.StatusCode).Warn("exchange reported error")
			return nil, err
		}
	}
	if resp.StatusCode >= 400 {
		log.WithField("status", resp.StatusCode).Warn("http error")
		return nil, exchange.NewAPIError(c.name, statusCategory(resp.StatusCode), string(raw))
	}
	// A success status with a body that is not JSON is still a failure;
	// maintenance pages are the usual culprit. Keep the raw body.
	if parseErr != nil {
		log.WithError(parseErr).Warn("unparseable response body")
		return nil, exchange.NewAPIError(c.name, exchange.ErrExchange, string(raw))
	}

	return decoded, nil
}

// statusCategory maps HTTP statuses that carried no mappable body.
func statusCategory(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return exchange.ErrRateLimitExceeded
	case status == http.StatusTeapot:
		return exchange.ErrDDoSProtection
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return exchange.ErrRequestTimeout
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return exchange.ErrAuthentication
	case status >= 500:
		return exchange.ErrExchangeNotAvailable
	default:
		return exchange.ErrExchange
	}
}
