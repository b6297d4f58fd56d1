package llm

import (
	"context"
	"net/http"
)

// Signer produces authentication headers for outgoing requests.
//
// Implementations own the credential. The client never inspects it: it signs
// a fresh request per attempt and, after an authorization failure, asks the
// signer to refresh.
//
// Implementations are expected to:
//   - treat the request as the unit being signed (method, URL, body and
//     headers may all participate in the signature)
//   - be safe for concurrent Sign calls
type Signer interface {
	// Sign adds authentication headers to req.
	Sign(req *http.Request) error

	// RefreshSecurityToken renews the underlying credential and reports
	// whether anything actually changed. Returning false means the signer has
	// no refresh capability (or declined), and a 401 is final.
	//
	// Refresh may perform network I/O; it honors ctx. The client serializes
	// refresh calls, so implementations do not need their own locking for
	// correctness, only for safety against other users of the credential.
	RefreshSecurityToken(ctx context.Context) (bool, error)
}

// TokenSigner signs with a static bearer token. It cannot refresh, so a 401
// from the endpoint is terminal.
type TokenSigner struct {
	Token string
}

func (s TokenSigner) Sign(req *http.Request) error {
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	return nil
}

func (s TokenSigner) RefreshSecurityToken(context.Context) (bool, error) { return false, nil }

// nopSigner is used when no signer is configured (open endpoints, tests).
type nopSigner struct{}

func (nopSigner) Sign(*http.Request) error { return nil }

func (nopSigner) RefreshSecurityToken(context.Context) (bool, error) { return false, nil }
