package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestModel_Complete(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"text":"ok","index":0,"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, &fakeSigner{})
	m := NewModel(c, CompletionsBackend{}, map[string]any{"temperature": 0.2})

	out, err := m.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(out) != 1 || out[0].Text != "ok" || out[0].FinishReason != "stop" {
		t.Errorf("Complete() = %+v", out)
	}

	if gotBody["prompt"] != "hi" {
		t.Errorf("prompt = %v", gotBody["prompt"])
	}
	if gotBody["model"] != DefaultModelName {
		t.Errorf("model = %v, want %q", gotBody["model"], DefaultModelName)
	}
	if gotBody["temperature"] != 0.2 {
		t.Errorf("temperature = %v", gotBody["temperature"])
	}
}

func TestModel_CompleteMalformedPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, &fakeSigner{})
	m := NewModel(c, CompletionsBackend{}, nil)

	_, err := m.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("Complete() should fail on a payload without choices")
	}
	if !strings.Contains(err.Error(), "parse response from") {
		t.Errorf("error = %v, want single contextual wrapper", err)
	}
}

func TestModel_CompleteModelOverride(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"text":"ok"}]}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, &fakeSigner{})
	m := NewModel(c, CompletionsBackend{Model: "odsc-llm-ft"}, nil)

	if _, err := m.Complete(context.Background(), "hi"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if gotBody["model"] != "odsc-llm-ft" {
		t.Errorf("model = %v, want backend override", gotBody["model"])
	}
}

func TestModel_CompleteStreamLeniency(t *testing.T) {
	t.Parallel()

	// The second line is not valid JSON: it must surface as an empty
	// fragment, not abort the stream.
	wire := "data: {\"choices\":[{\"text\":\"Hel\"}]}\n" +
		"data: not json at all\n" +
		"data: {\"choices\":[{\"text\":\"lo\"}]}\n" +
		"data: [DONE]\n"
	srv := httptest.NewServer(sseHandler(http.StatusOK, wire))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, &fakeSigner{})
	m := NewModel(c, CompletionsBackend{}, nil)

	fs, err := m.CompleteStream(context.Background(), "hi")
	if err != nil {
		t.Fatalf("CompleteStream() error = %v", err)
	}
	defer fs.Close()

	var texts []string
	for {
		f, err := fs.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("Recv() error = %v", err)
		}
		texts = append(texts, f.Text)
	}

	want := []string{"Hel", "", "lo"}
	if len(texts) != len(want) {
		t.Fatalf("fragments = %q, want %q", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("fragments[%d] = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestModel_CompleteStreamFunc(t *testing.T) {
	t.Parallel()

	wire := "data: {\"choices\":[{\"text\":\"Hel\"}]}\n" +
		"data: {\"choices\":[{\"text\":\"lo\"}]}\n" +
		"data: [DONE]\n"
	srv := httptest.NewServer(sseHandler(http.StatusOK, wire))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, &fakeSigner{})
	m := NewModel(c, CompletionsBackend{}, nil)

	var seen []string
	got, err := m.CompleteStreamFunc(context.Background(), "hi", func(_ context.Context, f Fragment) error {
		seen = append(seen, f.Text)
		return nil
	})
	if err != nil {
		t.Fatalf("CompleteStreamFunc() error = %v", err)
	}
	if got != "Hello" {
		t.Errorf("accumulated = %q, want Hello", got)
	}
	if len(seen) != 2 {
		t.Errorf("callbacks = %q, want 2 fragments", seen)
	}
}

func TestModel_CompleteStreamFuncCallbackAborts(t *testing.T) {
	t.Parallel()

	wire := "data: {\"choices\":[{\"text\":\"Hel\"}]}\n" +
		"data: {\"choices\":[{\"text\":\"lo\"}]}\n" +
		"data: [DONE]\n"
	srv := httptest.NewServer(sseHandler(http.StatusOK, wire))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, &fakeSigner{})
	m := NewModel(c, CompletionsBackend{}, nil)

	boom := fmt.Errorf("consumer gave up")
	got, err := m.CompleteStreamFunc(context.Background(), "hi", func(_ context.Context, f Fragment) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want callback error", err)
	}
	if got != "Hel" {
		t.Errorf("accumulated = %q, want text up to the abort", got)
	}
}

func TestCompletionsBackend_BuildBodyKeepsCallerModel(t *testing.T) {
	t.Parallel()

	b := CompletionsBackend{Model: "odsc-llm-ft"}
	body, err := b.BuildBody("hi", map[string]any{"model": "explicit"})
	if err != nil {
		t.Fatalf("BuildBody() error = %v", err)
	}
	if body["model"] != "explicit" {
		t.Errorf("model = %v, params must win over the backend default", body["model"])
	}
}
