// Package api implements HTTP/JSON clients for the two external
// collaborators: the ACSL annotator and the formal verifier. Both are
// opaque request/response services; this package only enforces the
// wire contract and maps failures onto the domain error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"cproof/internal/core/errors"
	"cproof/internal/shared/observability"
	"cproof/internal/shared/util"
)

const maxErrorBodyBytes = 512

// Options configure both service clients.
type Options struct {
	Timeout   time.Duration
	AuthToken string
	Limiter   *util.Limiter // nil disables client-side throttling
}

type client struct {
	http      *http.Client
	endpoint  string
	authToken string
	limiter   *util.Limiter
	service   string // metric label
	code      errors.ErrorCode
}

func newClient(endpoint, service string, code errors.ErrorCode, opts Options) *client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		http:      &http.Client{Timeout: timeout},
		endpoint:  endpoint,
		authToken: opts.AuthToken,
		limiter:   opts.Limiter,
		service:   service,
		code:      code,
	}
}

// postJSON sends payload and decodes the reply into out. Every failure
// mode, including per-call timeout expiry, maps to the client's domain
// code; only caller cancellation is classified apart.
func (c *client) postJSON(ctx context.Context, payload, out any) error {
	if err := c.limiter.Wait(ctx, 1); err != nil {
		return c.fail(errors.Wrap(err, c.classify(ctx), "rate limit wait interrupted"))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return c.fail(errors.Wrap(err, c.code, "cannot encode request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.fail(errors.Wrap(err, c.code, "cannot build request"))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.APICallDuration.WithLabelValues(c.service).Observe(time.Since(start).Seconds())
	if err != nil {
		return c.fail(errors.Wrap(err, c.classify(ctx), "request failed"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return c.fail(errors.Newf(c.code, "unexpected status %d: %s", resp.StatusCode, string(snippet)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(errors.Wrap(err, c.code, "cannot read response"))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return c.fail(errors.Wrap(err, c.code, "malformed response"))
	}

	observability.APICallsTotal.WithLabelValues(c.service, "ok").Inc()
	return nil
}

// classify distinguishes caller cancellation from genuine transport
// failure. Deadline expiry keeps the service code: a timeout is still
// that service failing to answer in time.
func (c *client) classify(ctx context.Context) errors.ErrorCode {
	if ctx.Err() == context.Canceled {
		return errors.CodeCancelled
	}
	return c.code
}

func (c *client) fail(err error) error {
	observability.APICallsTotal.WithLabelValues(c.service, "error").Inc()
	return errors.AddContext(err, errors.CtxService, c.service)
}
