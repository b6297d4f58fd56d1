// Streaming invocation: fragments are printed as they arrive.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/lgc202/odsc-go/llm"
)

func main() {
	client, err := llm.New(
		llm.WithSigner(llm.TokenSigner{Token: os.Getenv("MODEL_AUTH_TOKEN")}),
	)
	if err != nil {
		log.Fatal(err)
	}

	model := llm.NewModel(client, llm.CompletionsBackend{}, map[string]any{
		"max_tokens": 256,
	})

	full, err := model.CompleteStreamFunc(context.Background(), "Tell me a joke.",
		func(_ context.Context, f llm.Fragment) error {
			fmt.Print(f.Text)
			return nil
		})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\n--- %d bytes total ---\n", len(full))
}
