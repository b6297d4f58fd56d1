package llm

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lgc202/odsc-go/llm/internal/transport"
)

type Option func(*Client) error

// WithEndpoint sets the model deployment invocation URL. When omitted, the
// OCI_LLM_ENDPOINT environment variable is consulted.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) error {
		c.endpoint = endpoint
		return nil
	}
}

func WithSigner(s Signer) Option {
	return func(c *Client) error {
		c.signer = s
		return nil
	}
}

// WithMaxRetries sets the retry budget after the initial attempt. The same
// budget bounds connect-timeout retries and 401 refresh cycles.
func WithMaxRetries(n int) Option {
	return func(c *Client) error {
		c.maxRetries = n
		return nil
	}
}

// WithTimeout bounds each individual attempt (connect plus reads, including
// reads from an open stream).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("llm: timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("llm: nil http client")
		}
		c.tr.HTTPClient = hc
		return nil
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.tr.UserAgent = ua
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithBackoff tunes the sleep between connect-timeout retries.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) error {
		c.backoff = transport.Backoff{Initial: initial, Max: max}
		return nil
	}
}
