// Package embed provides the optional TEXT→VECTOR convenience path: when
// a schema declares both a TEXT and a VECTOR field under the same source
// identifier, the indexer can turn the TEXT content into the VECTOR
// field's value via an Embedder instead of requiring the caller to
// precompute and ship the vector themselves.
package embed

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder turns text into a fixed-dimension float32 vector.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// OpenAIEmbedder calls the OpenAI embeddings API. It is never required by
// the core engine — internal/indexer accepts a nil Embedder and simply
// skips the convenience path.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder builds an Embedder for the given API key and model.
func NewOpenAIEmbedder(apiKey string, model openai.EmbeddingModel) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: openai.NewClient(apiKey), model: model}
}

func (e *OpenAIEmbedder) Embed(text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(context.Background(), openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embed: openai request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed: openai returned no embeddings")
	}
	return resp.Data[0].Embedding, nil
}
