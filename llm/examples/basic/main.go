// Basic non-streaming invocation against a model deployment endpoint.
//
// The endpoint is taken from OCI_LLM_ENDPOINT; authentication uses a static
// bearer token from MODEL_AUTH_TOKEN for the sake of the demo. Production
// deployments plug in a request signer with refresh support instead.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lgc202/odsc-go/llm"
)

func main() {
	client, err := llm.New(
		llm.WithSigner(llm.TokenSigner{Token: os.Getenv("MODEL_AUTH_TOKEN")}),
		llm.WithTimeout(60*time.Second),
	)
	if err != nil {
		log.Fatal(err)
	}

	model := llm.NewModel(client, llm.CompletionsBackend{}, map[string]any{
		"max_tokens":  256,
		"temperature": 0.2,
	})

	completions, err := model.Complete(context.Background(), "Tell me a joke.")
	if err != nil {
		log.Fatal(err)
	}
	for _, c := range completions {
		fmt.Println(c.Text)
	}
}
