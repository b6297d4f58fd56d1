package transport

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// 限制缓冲的响应体最大读取 1MB
const maxBufferedBody = 1 << 20

// Attempt is one fully materialized request. Callers build a fresh Attempt
// per try: signed authorization headers are single-use and time-bound, so
// they must never be carried over from a previous attempt.
type Attempt struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
	Timeout time.Duration
	Stream  bool
}

// Response is the handle returned by Do.
//
// For non-streaming attempts and for any status >= 400 the body has been
// buffered (bounded) and the connection released. For streaming successes
// Body() is the open chunk producer and the caller owns closing it.
type Response struct {
	StatusCode int
	Header     http.Header

	raw  []byte
	body io.ReadCloser
}

func (r *Response) Text() string { return string(r.raw) }

func (r *Response) Bytes() []byte { return r.raw }

func (r *Response) JSON() json.RawMessage { return json.RawMessage(r.raw) }

// Body returns the open byte producer for streaming responses, nil otherwise.
// Closing it also releases the attempt's deadline timer.
func (r *Response) Body() io.ReadCloser { return r.body }

type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	Logger     *slog.Logger
}

func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		HTTPClient: httpClient,
		UserAgent:  "odsc-go/1",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Do performs exactly one HTTP call. Retry and refresh policy live in the
// caller; Do returns the Response for any status code it receives and an
// error only for network-level failures.
//
// Attempt.Timeout bounds the whole attempt: connect plus reads. For a
// streaming response the deadline keeps running after Do returns, so a
// timeout expiring mid-stream fails the next body read and closes the
// connection.
func (c *Client) Do(ctx context.Context, a Attempt) (*Response, error) {
	cancel := context.CancelFunc(func() {})
	if a.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
	}

	req, err := http.NewRequestWithContext(ctx, a.Method, a.URL, bytes.NewReader(a.Body))
	if err != nil {
		cancel()
		return nil, err
	}
	for k, vs := range a.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", randomID())
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	c.Logger.Debug("model endpoint responded",
		"status", resp.StatusCode,
		"stream", a.Stream,
		"dur", time.Since(start),
		"request_id", req.Header.Get("X-Request-Id"))

	if a.Stream && resp.StatusCode < 400 {
		return &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			body:       &cancelBody{ReadCloser: resp.Body, cancel: cancel},
		}, nil
	}

	defer cancel()
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBufferedBody))
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), raw: raw}, nil
}

// cancelBody ties the attempt deadline's cleanup to the stream body.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	b.cancel()
	return b.ReadCloser.Close()
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}
