// Package client holds the adapters for the collaborator ports: HTTP clients
// for a remote claim service and notification service, and in-process
// adapters used when everything runs in one binary.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/claimswift/backend/internal/domain/shared"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseBytes caps how much of a collaborator response is read.
const maxResponseBytes = 1 << 20

// envelope mirrors the {success, timestamp, data, error} body every service
// in the platform answers with.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// remoteError is a 4xx answer. It is never retried.
type remoteError struct {
	status int
	code   string
	msg    string
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("collaborator answered %d %s: %s", e.status, e.code, e.msg)
}

// domainError turns the remote envelope code back into a local DomainError.
// Codes this service does not know become SERVICE_COMMUNICATION.
func (e *remoteError) domainError() error {
	code := strings.TrimPrefix(e.code, "ERR_")
	de := shared.NewDomainError(code, e.msg)
	if code == "" || (de.Category() == shared.CategoryInternal && code != shared.CodeInternal) {
		return shared.WrapDomainError(shared.CodeServiceCommunication, "Unexpected collaborator response", e)
	}
	return de
}

// RetryPolicy bounds attempts on transport errors and 5xx answers.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries twice with a short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxTries: 3, InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second}
}

// NewHTTPClient returns an http.Client whose requests carry trace context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

type jsonCaller struct {
	http  *http.Client
	retry RetryPolicy
}

// call sends body as JSON and decodes the envelope's data into out. Transport
// errors and 5xx answers are retried per the policy. 4xx answers and 2xx
// envelopes with success=false come back as *remoteError.
func (c *jsonCaller) call(ctx context.Context, method, url string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	op := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to read %s %s response: %w", method, url, err)
		}
		var env envelope
		decodeErr := json.Unmarshal(raw, &env)

		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			return struct{}{}, fmt.Errorf("%s %s answered %d", method, url, resp.StatusCode)
		case resp.StatusCode >= http.StatusBadRequest:
			re := &remoteError{status: resp.StatusCode, msg: http.StatusText(resp.StatusCode)}
			if decodeErr == nil && env.Error != nil {
				re.code, re.msg = env.Error.Code, env.Error.Message
			}
			return struct{}{}, backoff.Permanent(re)
		}
		if decodeErr == nil && !env.Success {
			re := &remoteError{status: resp.StatusCode, msg: "collaborator reported failure"}
			if env.Error != nil {
				re.code, re.msg = env.Error.Code, env.Error.Message
			}
			return struct{}{}, backoff.Permanent(re)
		}

		if out == nil || len(env.Data) == 0 {
			return struct{}{}, nil
		}
		if decodeErr != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("failed to decode %s %s response: %w", method, url, decodeErr))
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("failed to decode %s %s data: %w", method, url, err))
		}
		return struct{}{}, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.InitialInterval
	policy.MaxInterval = c.retry.MaxInterval

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(max(c.retry.MaxTries, 1)),
	)
	return err
}

// asRemote extracts a 4xx answer from err.
func asRemote(err error) (*remoteError, bool) {
	var re *remoteError
	ok := errors.As(err, &re)
	return re, ok
}
