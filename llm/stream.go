package llm

import (
	"context"
	"errors"
	"io"

	"github.com/lgc202/odsc-go/llm/internal/transport"
)

// StreamEvent is one decoded SSE data payload, in wire arrival order.
type StreamEvent struct {
	Data string
}

// Stream yields StreamEvent values until io.EOF.
//
// Implementations return io.EOF once the stream finishes normally (the
// termination marker or connection end).
type Stream interface {
	Recv() (StreamEvent, error)
	Close() error
}

var ErrStreamClosed = errors.New("llm: stream closed")

type sseStream struct {
	endpoint string
	body     io.ReadCloser
	sc       *transport.SSEScanner

	closed bool
	done   bool
}

func newSSEStream(endpoint string, body io.ReadCloser) *sseStream {
	return &sseStream{
		endpoint: endpoint,
		body:     body,
		sc:       transport.NewSSEScanner(body),
	}
}

func (s *sseStream) Recv() (StreamEvent, error) {
	if s.closed {
		return StreamEvent{}, ErrStreamClosed
	}
	if s.done {
		return StreamEvent{}, io.EOF
	}

	data, err := s.sc.Next()
	if err != nil {
		s.done = true
		_ = s.body.Close()
		if errors.Is(err, io.EOF) {
			return StreamEvent{}, io.EOF
		}
		// A timeout expiring mid-stream lands here. The connection is closed
		// and the error is typed transient; re-invoking starts a fresh
		// logical response, already-delivered events are never retracted.
		return StreamEvent{}, &Error{
			Endpoint:  s.endpoint,
			Kind:      ErrKindNetwork,
			Message:   "stream read failed",
			Retryable: true,
			Cause:     err,
		}
	}
	return StreamEvent{Data: data}, nil
}

func (s *sseStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// InvokeStreamCh is the non-blocking form of InvokeStream: a goroutine
// drives the same controller and decoder, and the caller suspends on channel
// receives instead of Recv calls.
//
// The events channel closes when the stream ends; at most one error is sent
// on the error channel, which also closes when the goroutine exits. Policy
// (retry, refresh, classification) is identical to the blocking form.
func (c *Client) InvokeStreamCh(ctx context.Context, body []byte) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent)
	errc := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errc)

		s, err := c.InvokeStream(ctx, body)
		if err != nil {
			errc <- err
			return
		}
		defer s.Close()

		for {
			ev, err := s.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					errc <- err
				}
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				errc <- &Error{Endpoint: c.endpoint, Kind: ErrKindCanceled, Message: "stream canceled", Cause: ctx.Err()}
				return
			}
		}
	}()

	return events, errc
}
