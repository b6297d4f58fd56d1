package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lgc202/odsc-go/llm/internal/transport"
)

const (
	// DefaultTimeout bounds one attempt: connect plus reads.
	DefaultTimeout = 300 * time.Second

	// DefaultMaxRetries is the number of retries after the initial attempt.
	DefaultMaxRetries = 3

	// EnvEndpoint is consulted when no endpoint is configured explicitly.
	EnvEndpoint = "OCI_LLM_ENDPOINT"

	contentTypeJSON = "application/json"
)

// Client invokes one model deployment inference endpoint.
//
// The endpoint value (URL, retry budget, timeout) is immutable for the
// client's lifetime; streaming is a per-call choice, never client state, so
// concurrent Invoke and InvokeStream calls cannot interfere.
type Client struct {
	endpoint   string
	signer     Signer
	maxRetries int
	timeout    time.Duration

	logger  *slog.Logger
	tr      *transport.Client
	backoff transport.Backoff

	// refreshMu serializes credential refreshes so concurrent invocations
	// hitting 401 at the same time cannot stack redundant refreshes.
	refreshMu sync.Mutex
}

func New(opts ...Option) (*Client, error) {
	c := &Client{
		maxRetries: DefaultMaxRetries,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
		tr:         transport.New(nil),
		backoff:    transport.DefaultBackoff(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.endpoint == "" {
		c.endpoint = strings.TrimSpace(os.Getenv(EnvEndpoint))
	}
	if c.endpoint == "" {
		return nil, fmt.Errorf("llm: endpoint required (use WithEndpoint or set %s)", EnvEndpoint)
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("llm: parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("llm: endpoint %q must be an absolute URL", c.endpoint)
	}

	if c.signer == nil {
		c.signer = nopSigner{}
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	c.tr.Logger = c.logger
	return c, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

// Invoke posts body to the endpoint and returns the buffered JSON response.
// The payload is passed through unchanged; shape interpretation belongs to
// the Backend layer.
func (c *Client) Invoke(ctx context.Context, body []byte) (json.RawMessage, error) {
	resp, err := c.invoke(ctx, body, false)
	if err != nil {
		return nil, err
	}
	return resp.JSON(), nil
}

// InvokeStream posts body with streaming delivery requested and returns the
// event stream. The caller drives consumption via Recv until io.EOF and must
// Close the stream.
func (c *Client) InvokeStream(ctx context.Context, body []byte) (Stream, error) {
	resp, err := c.invoke(ctx, body, true)
	if err != nil {
		return nil, err
	}
	return newSSEStream(c.endpoint, resp.Body()), nil
}

// invoke runs the retry/refresh loop shared by every execution path.
//
// Two outcomes may retry: connect-timeout class network failures (with
// backoff) and a 401 answered by a successful credential refresh (immediate,
// freshly signed). Both draw from the same attempt budget of maxRetries+1
// total attempts, which also bounds refresh loops against endpoints that
// keep answering 401.
func (c *Client) invoke(ctx context.Context, body []byte, stream bool) (*transport.Response, error) {
	maxAttempts := c.maxRetries + 1

	for attempt := 1; ; attempt++ {
		att, err := c.newAttempt(body, stream)
		if err != nil {
			return nil, err
		}

		resp, err := c.tr.Do(ctx, att)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &Error{Endpoint: c.endpoint, Kind: ErrKindCanceled, Message: "invocation canceled", Cause: ctx.Err()}
			}
			if !isConnectTimeout(err) {
				return nil, &Error{Endpoint: c.endpoint, Kind: ErrKindNetwork, Message: "inference request failed", Cause: err}
			}
			if attempt >= maxAttempts {
				return nil, &Error{
					Endpoint:  c.endpoint,
					Kind:      ErrKindNetwork,
					Message:   fmt.Sprintf("connect timeout, giving up after %d attempts", attempt),
					Retryable: true,
					Cause:     err,
				}
			}
			c.logRetry(attempt, body, stream, err)
			if serr := transport.Sleep(ctx, c.backoff.Next(attempt)); serr != nil {
				return nil, &Error{Endpoint: c.endpoint, Kind: ErrKindCanceled, Message: "invocation canceled", Cause: serr}
			}
			continue
		}

		switch {
		case resp.StatusCode < 400:
			return resp, nil

		case resp.StatusCode == http.StatusUnauthorized:
			refreshed, rerr := c.refreshCredential(ctx)
			if rerr != nil || !refreshed {
				// No refresh capability (or refresh failed): the 401 is
				// final and surfaces as a server error with the body.
				return nil, &Error{
					Endpoint:   c.endpoint,
					Kind:       ErrKindServer,
					HTTPStatus: resp.StatusCode,
					Message:    "authorization expired and credential refresh unavailable",
					Raw:        resp.Bytes(),
					Cause:      rerr,
				}
			}
			if attempt >= maxAttempts {
				return nil, &Error{
					Endpoint:   c.endpoint,
					Kind:       ErrKindAuthExpired,
					HTTPStatus: resp.StatusCode,
					Message:    fmt.Sprintf("authorization still expired after %d attempts", attempt),
					Raw:        resp.Bytes(),
				}
			}
			c.logRetry(attempt, body, stream, errAuthExpired)
			continue

		default:
			return nil, &Error{
				Endpoint:   c.endpoint,
				Kind:       ErrKindServer,
				HTTPStatus: resp.StatusCode,
				Message:    http.StatusText(resp.StatusCode),
				Raw:        resp.Bytes(),
			}
		}
	}
}

var errAuthExpired = errors.New("authorization expired, credential refreshed")

// newAttempt builds a freshly signed request description. Headers are
// recomputed every time: a refreshed credential produces different
// authorization headers, and stale ones must never be reused.
func (c *Client) newAttempt(body []byte, stream bool) (transport.Attempt, error) {
	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return transport.Attempt{}, fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("enable-streaming", "true")
	}
	if err := c.signer.Sign(req); err != nil {
		return transport.Attempt{}, fmt.Errorf("llm: sign request: %w", err)
	}

	return transport.Attempt{
		Method:  http.MethodPost,
		URL:     c.endpoint,
		Header:  req.Header,
		Body:    body,
		Timeout: c.timeout,
		Stream:  stream,
	}, nil
}

func (c *Client) refreshCredential(ctx context.Context) (bool, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.signer.RefreshSecurityToken(ctx)
}

// logRetry surfaces everything an operator needs to correlate a failed
// attempt. Debug level only: the body carries prompt content.
func (c *Client) logRetry(attempt int, body []byte, stream bool, cause error) {
	c.logger.Debug("retrying model invocation",
		"attempt", attempt,
		"url", c.endpoint,
		"timeout", c.timeout,
		"stream", stream,
		"body", string(body),
		"cause", cause)
}

func isConnectTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
