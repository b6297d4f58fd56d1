package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "http status and message",
			err: &Error{
				Endpoint:   "https://model.example/predict",
				Kind:       ErrKindServer,
				HTTPStatus: http.StatusInternalServerError,
				Message:    "endpoint returned an error",
			},
			want: "llm https://model.example/predict: http 500 Internal Server Error: endpoint returned an error",
		},
		{
			name: "kind fallback when message empty",
			err:  &Error{Kind: ErrKindNetwork},
			want: "llm: network",
		},
		{
			name: "cause appended",
			err: &Error{
				Endpoint: "https://model.example/predict",
				Kind:     ErrKindNetwork,
				Message:  "request failed",
				Cause:    fmt.Errorf("dial tcp: i/o timeout"),
			},
			want: "llm https://model.example/predict: request failed: dial tcp: i/o timeout",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection reset")
	err := fmt.Errorf("invoke: %w", &Error{Kind: ErrKindNetwork, Cause: cause})

	e, ok := AsError(err)
	if !ok || e.Kind != ErrKindNetwork {
		t.Fatalf("AsError() through wrapping = (%v, %v)", e, ok)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	authErr := &Error{Kind: ErrKindAuthExpired, HTTPStatus: http.StatusUnauthorized}
	if !IsAuthExpired(authErr) {
		t.Error("IsAuthExpired(auth_expired) = false")
	}
	// A 401 wrapped as a terminal server error still reads as auth trouble.
	if !IsAuthExpired(&Error{Kind: ErrKindServer, HTTPStatus: http.StatusUnauthorized}) {
		t.Error("IsAuthExpired(server 401) = false")
	}

	if !IsServerError(&Error{Kind: ErrKindServer, HTTPStatus: http.StatusBadGateway}) {
		t.Error("IsServerError(server) = false")
	}
	if IsServerError(authErr) {
		t.Error("IsServerError(auth_expired) = true")
	}

	if !IsTransient(&Error{Kind: ErrKindNetwork, Retryable: true}) {
		t.Error("IsTransient(retryable network) = false")
	}
	if IsTransient(&Error{Kind: ErrKindNetwork}) {
		t.Error("IsTransient(terminal network) = true")
	}
	if IsTransient(fmt.Errorf("plain error")) {
		t.Error("IsTransient(plain error) = true")
	}
}
