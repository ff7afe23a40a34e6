// Package embedding generates embedding vectors via the OpenAI API.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "text-embedding-3-small"

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute
	// rate limits. OpenAI supports up to 2048 texts per batch, but smaller
	// batches reduce TPM pressure.
	DefaultBatchSize = 500
)

// Embedder generates embeddings for text. It batches requests and retries
// with exponential backoff on rate limit errors. Implements domain.Embedder.
type Embedder struct {
	client     openai.Client
	model      string
	dimensions int
	batchSize  int
}

// NewEmbedder creates an Embedder for the given model and vector dimension.
// The OpenAI API key is read from OPENAI_API_KEY; an unset key is an error.
// Zero model/batchSize fall back to defaults.
func NewEmbedder(model string, dimensions, batchSize int) (*Embedder, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if model == "" {
		model = DefaultModel
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:     openai.NewClient(),
		model:      model,
		dimensions: dimensions,
		batchSize:  batchSize,
	}, nil
}

// Embed generates one embedding per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var all [][]float32
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch, err := e.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, batch...)
	}
	return all, nil
}

// embedBatchWithRetry generates embeddings for a single batch, retrying
// with exponential backoff on rate limit errors (HTTP 429). Other errors
// are treated as permanent and fail immediately.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vec := toFloat32(data.Embedding)
			if e.dimensions > 0 && len(vec) != e.dimensions {
				return backoff.Permanent(fmt.Errorf(
					"embedding has %d dimensions, expected %d", len(vec), e.dimensions))
			}
			embeddings[i] = vec
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32. OpenAI returns float64 but
// vectors are stored as float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
