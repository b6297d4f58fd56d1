package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Backend maps between caller-level prompts/results and one serving
// runtime's wire shapes. It is injected into a Model rather than inherited:
// the retry/refresh machinery underneath stays identical across backends.
type Backend interface {
	// BuildBody constructs the JSON request payload for prompt, merged with
	// invocation params.
	BuildBody(prompt string, params map[string]any) (map[string]any, error)

	// ParseCompletion converts a complete response payload into results.
	ParseCompletion(raw json.RawMessage) ([]Completion, error)

	// ParseFragment converts one stream payload into an incremental
	// fragment. Errors are tolerated by the caller, see FragmentStream.
	ParseFragment(data string) (Fragment, error)
}

// Completion is one finished generation.
type Completion struct {
	Text         string
	FinishReason string
	Index        int
	LogProbs     json.RawMessage
}

// Fragment is one incremental unit of generated output.
type Fragment struct {
	Text string
}

// Model pairs a Client with a Backend.
type Model struct {
	client  *Client
	backend Backend
	params  map[string]any
}

func NewModel(client *Client, backend Backend, params map[string]any) *Model {
	return &Model{client: client, backend: backend, params: params}
}

// Complete invokes the endpoint without streaming and returns the parsed
// results. A shape mismatch from the backend parser passes through with one
// contextual wrapper identifying the call; the underlying error is never
// masked.
func (m *Model) Complete(ctx context.Context, prompt string) ([]Completion, error) {
	body, err := m.buildBody(prompt)
	if err != nil {
		return nil, err
	}
	raw, err := m.client.Invoke(ctx, body)
	if err != nil {
		return nil, err
	}
	out, err := m.backend.ParseCompletion(raw)
	if err != nil {
		return nil, fmt.Errorf("llm: parse response from %s: %w", m.client.Endpoint(), err)
	}
	return out, nil
}

// CompleteStream invokes the endpoint with streaming and returns the
// fragment stream.
func (m *Model) CompleteStream(ctx context.Context, prompt string) (*FragmentStream, error) {
	body, err := m.buildBody(prompt)
	if err != nil {
		return nil, err
	}
	s, err := m.client.InvokeStream(ctx, body)
	if err != nil {
		return nil, err
	}
	return &FragmentStream{s: s, backend: m.backend}, nil
}

// CompleteStreamFunc streams and pushes every fragment through fn, returning
// the accumulated text. A non-nil error from fn aborts the stream.
func (m *Model) CompleteStreamFunc(ctx context.Context, prompt string, fn func(ctx context.Context, f Fragment) error) (string, error) {
	fs, err := m.CompleteStream(ctx, prompt)
	if err != nil {
		return "", err
	}
	defer fs.Close()

	var sb strings.Builder
	for {
		f, err := fs.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return sb.String(), nil
			}
			return sb.String(), err
		}
		sb.WriteString(f.Text)
		if fn != nil {
			if err := fn(ctx, f); err != nil {
				return sb.String(), err
			}
		}
	}
}

func (m *Model) buildBody(prompt string) ([]byte, error) {
	payload, err := m.backend.BuildBody(prompt, m.params)
	if err != nil {
		return nil, fmt.Errorf("llm: build request body: %w", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request body: %w", err)
	}
	return body, nil
}

// FragmentStream yields parsed fragments until io.EOF.
//
// A payload the backend cannot parse yields an empty Fragment instead of an
// error: a single bad token must not abort an otherwise healthy stream. This
// leniency is deliberate and mirrors the endpoint containers, which
// occasionally interleave non-JSON keepalive payloads.
type FragmentStream struct {
	s       Stream
	backend Backend
}

func (fs *FragmentStream) Recv() (Fragment, error) {
	ev, err := fs.s.Recv()
	if err != nil {
		return Fragment{}, err
	}
	f, err := fs.backend.ParseFragment(ev.Data)
	if err != nil {
		return Fragment{}, nil
	}
	return f, nil
}

func (fs *FragmentStream) Close() error { return fs.s.Close() }
