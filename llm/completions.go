package llm

import (
	"encoding/json"
	"fmt"
	"maps"
)

// DefaultModelName is the model id served by default inside deployment
// containers.
const DefaultModelName = "odsc-llm"

// CompletionsBackend speaks the OpenAI-style completions shape that model
// deployment containers serve by default: request `{"prompt": ...}` and
// response `{"choices":[{"text": ...}]}`, both buffered and streamed.
type CompletionsBackend struct {
	// Model overrides the model id sent with each request. Empty means
	// DefaultModelName unless params already carry one.
	Model string
}

var _ Backend = CompletionsBackend{}

func (b CompletionsBackend) BuildBody(prompt string, params map[string]any) (map[string]any, error) {
	body := make(map[string]any, len(params)+2)
	maps.Copy(body, params)
	body["prompt"] = prompt
	if _, ok := body["model"]; !ok {
		model := b.Model
		if model == "" {
			model = DefaultModelName
		}
		body["model"] = model
	}
	return body, nil
}

type completionsResponse struct {
	Choices []completionsChoice `json:"choices"`
}

type completionsChoice struct {
	Text         string          `json:"text"`
	Index        int             `json:"index"`
	FinishReason string          `json:"finish_reason"`
	LogProbs     json.RawMessage `json:"logprobs"`
}

func (b CompletionsBackend) ParseCompletion(raw json.RawMessage) ([]Completion, error) {
	var resp completionsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode completion payload: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion payload has no choices")
	}

	out := make([]Completion, 0, len(resp.Choices))
	for _, ch := range resp.Choices {
		out = append(out, Completion{
			Text:         ch.Text,
			FinishReason: ch.FinishReason,
			Index:        ch.Index,
			LogProbs:     ch.LogProbs,
		})
	}
	return out, nil
}

func (b CompletionsBackend) ParseFragment(data string) (Fragment, error) {
	var resp completionsResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		return Fragment{}, fmt.Errorf("decode stream chunk: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Fragment{}, fmt.Errorf("stream chunk has no choices")
	}
	return Fragment{Text: resp.Choices[0].Text}, nil
}
